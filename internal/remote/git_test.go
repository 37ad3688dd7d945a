package remote

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func bareRepo(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "remote.git")
	out, err := exec.Command("git", "init", "--bare", dir).CombinedOutput()
	if err != nil {
		t.Fatalf("git init --bare: %v\n%s", err, out)
	}
	return dir
}

func TestMessage(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 2, 0, time.UTC)
	got := Message("gnotes manual save", now)
	if got != "gnotes manual save [2024-03-09][07:05:02]" {
		t.Errorf("Message = %q", got)
	}
}

func TestCommitAndPushThenClone(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	repo := bareRepo(t)

	notes := filepath.Join(t.TempDir(), "notes-root")
	if err := os.MkdirAll(filepath.Join(notes, "notes"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(notes, "notes", "chores"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := NewGit(notes, repo, "", nil)
	if err := g.CommitAndPush(ctx, "first save"); err != nil {
		t.Fatalf("CommitAndPush: %v", err)
	}
	// Nothing changed: must not fail.
	if err := g.CommitAndPush(ctx, "second save"); err != nil {
		t.Fatalf("CommitAndPush without changes: %v", err)
	}

	out, err := exec.Command("git", "--git-dir", repo, "log", "--format=%an <%ae> %s").CombinedOutput()
	if err != nil {
		t.Fatalf("git log: %v\n%s", err, out)
	}
	log := strings.TrimSpace(string(out))
	if log != "gnotes <gnotes@gnotes.com> first save" {
		t.Errorf("remote log = %q", log)
	}

	clone := filepath.Join(t.TempDir(), "cloned")
	if err := NewGit(clone, repo, "", nil).Clone(ctx); err != nil {
		t.Fatalf("Clone: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(clone, "notes", "chores"))
	if err != nil {
		t.Fatalf("cloned note: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("cloned content = %q", data)
	}
}

func TestCommitAndPushFailsOnBadRemote(t *testing.T) {
	requireGit(t)
	notes := t.TempDir()
	if err := os.WriteFile(filepath.Join(notes, "n"), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	g := NewGit(notes, filepath.Join(t.TempDir(), "missing.git"), "", nil)
	if err := g.CommitAndPush(context.Background(), "save"); err == nil {
		t.Fatal("expected push failure")
	}
	// The local commit stays.
	if !g.hasCommits(context.Background()) {
		t.Error("local commit should remain after failed push")
	}
}
