package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/gnotes/internal/tags"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// gnotes runs the CLI against a home directory.
func gnotes(t *testing.T, home string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	argv := append([]string{"gnotes", "--home-dir", home}, args...)
	code := run(context.Background(), argv, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func mustRun(t *testing.T, home string, args ...string) result {
	t.Helper()
	r := gnotes(t, home, args...)
	if r.code != 0 {
		t.Fatalf("gnotes %v: exit %d, stderr %q", args, r.code, r.stderr)
	}
	return r
}

func notesRoot(home string) string {
	return filepath.Join(home, ".gnotes")
}

func loadTags(t *testing.T, home string) tags.Tags {
	t.Helper()
	got, err := tags.Load(notesRoot(home))
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func TestTagNote(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "chores", "hello")
	mustRun(t, home, "tag", "chores", "tag1", "tag2")

	chores := filepath.Join("notes", "chores")
	want := tags.Tags{"tag1": tags.NewSet(chores), "tag2": tags.NewSet(chores)}
	if diff := cmp.Diff(want, loadTags(t, home)); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(notesRoot(home), chores))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q", data)
	}
}

func TestUntagNote(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "chores", "hello")
	mustRun(t, home, "tag", "chores", "tag1", "tag2")
	mustRun(t, home, "untag", "chores", "tag1")

	want := tags.Tags{"tag2": tags.NewSet(filepath.Join("notes", "chores"))}
	if diff := cmp.Diff(want, loadTags(t, home)); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}

	mustRun(t, home, "untag", "chores", "never-had")
}

func TestTagMissingNote(t *testing.T) {
	home := t.TempDir()
	r := gnotes(t, home, "tag", "ghost", "tag1")
	if r.code != 1 {
		t.Fatalf("exit = %d, want 1", r.code)
	}
	want := "tag failed: file '" + filepath.Join("notes", "ghost") + "' not found\n"
	if r.stderr != want {
		t.Errorf("stderr = %q, want %q", r.stderr, want)
	}
	if _, err := os.Stat(tags.Path(notesRoot(home))); !os.IsNotExist(err) {
		t.Errorf("tag index created: %v", err)
	}
}

func TestRemoveCascadesToTags(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "chores", "hello")
	mustRun(t, home, "add", "reminders", "call mom")
	mustRun(t, home, "tag", "chores", "tag1", "tag2")
	mustRun(t, home, "tag", "reminders", "tag1")

	mustRun(t, home, "rm", "chores")

	want := tags.Tags{"tag1": tags.NewSet(filepath.Join("notes", "reminders"))}
	if diff := cmp.Diff(want, loadTags(t, home)); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(notesRoot(home), "notes", "chores")); !os.IsNotExist(err) {
		t.Errorf("note still present: %v", err)
	}
}

func TestRemoveMissingNote(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "remove", "ghost")
	if _, err := os.Stat(tags.Path(notesRoot(home))); !os.IsNotExist(err) {
		t.Errorf("tag index created: %v", err)
	}
}

func TestSearchDirBoundary(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "--dir", "custom", "a", "x")
	mustRun(t, home, "add", "--dir", "custom1", "b", "y")
	mustRun(t, home, "tag", "--dir", "custom", "a", "tag")
	mustRun(t, home, "tag", "--dir", "custom1", "b", "tag")

	r := mustRun(t, home, "search", "--dir", "custom", "tag")
	want := "total 1\n" + filepath.Join("custom", "a") + "\n"
	if r.stdout != want {
		t.Errorf("stdout = %q, want %q", r.stdout, want)
	}

	r = mustRun(t, home, "search", "--all", "tag")
	if !strings.HasPrefix(r.stdout, "total 2\n") {
		t.Errorf("search --all = %q", r.stdout)
	}
}

func TestSearchNoMatch(t *testing.T) {
	home := t.TempDir()
	r := mustRun(t, home, "search", "nothing")
	if r.stdout != "" {
		t.Errorf("stdout = %q, want empty", r.stdout)
	}
}

func TestSearchShow(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "chores", "hello")
	mustRun(t, home, "tag", "chores", "home")

	r := mustRun(t, home, "search", "--show", "home")
	for _, want := range []string{"total 1\n", filepath.Join("notes", "chores") + ":\n", "hello"} {
		if !strings.Contains(r.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, r.stdout)
		}
	}
}

func TestDirWithAll(t *testing.T) {
	home := t.TempDir()
	for _, cmd := range [][]string{
		{"list", "--dir", "x", "--all"},
		{"search", "--dir", "x", "--all", "tag"},
	} {
		r := gnotes(t, home, cmd...)
		if r.code != 1 || r.stderr != "--dir can't be used with --all\n" {
			t.Errorf("%v: exit %d, stderr %q", cmd, r.code, r.stderr)
		}
	}
}

func TestShow(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "new", "-m", "# Title", "idea")

	r := mustRun(t, home, "show", "idea")
	if !strings.HasPrefix(r.stdout, filepath.Join("notes", "idea")+":\n") || !strings.Contains(r.stdout, "Title") {
		t.Errorf("stdout = %q", r.stdout)
	}

	r = gnotes(t, home, "show", "missing")
	if r.code != 1 || !strings.HasPrefix(r.stderr, "show failed: file ") {
		t.Errorf("missing: exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestList(t *testing.T) {
	home := t.TempDir()
	r := mustRun(t, home, "ls")
	if r.stdout != "total 0\n" {
		t.Errorf("empty list = %q", r.stdout)
	}

	mustRun(t, home, "add", "chores", "hello")
	mustRun(t, home, "add", "--dir", "work", "plan", "x")

	r = mustRun(t, home, "list", "--include-headers")
	lines := strings.Split(strings.TrimRight(r.stdout, "\n"), "\n")
	if len(lines) != 3 || lines[0] != "total 1" || !strings.Contains(lines[1], "Path") {
		t.Errorf("list = %q", r.stdout)
	}

	r = mustRun(t, home, "list", "--all")
	if !strings.HasPrefix(r.stdout, "total 2\n") {
		t.Errorf("list --all = %q", r.stdout)
	}
}

func TestSaveWithoutRepository(t *testing.T) {
	home := t.TempDir()
	for _, cmd := range []string{"save", "clone"} {
		r := gnotes(t, home, cmd)
		want := "Can't " + cmd + " without a repository. Please specify a repository in the config file.\n"
		if r.code != 1 || r.stderr != want {
			t.Errorf("%s: exit %d, stderr %q", cmd, r.code, r.stderr)
		}
	}
}

func TestAutoSaveWithoutRepository(t *testing.T) {
	home := t.TempDir()
	r := gnotes(t, home, "--auto-save", "ls")
	want := "invalid config: repository is mandatory when auto_save is enabled\n"
	if r.code != 1 || r.stderr != want {
		t.Errorf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestConfigFile(t *testing.T) {
	home := t.TempDir()
	custom := filepath.Join(t.TempDir(), "elsewhere")
	cfg := "notes_dir = \"" + filepath.ToSlash(custom) + "\"\n"
	if err := os.WriteFile(filepath.Join(home, ".gnotes.toml"), []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	mustRun(t, home, "add", "chores", "hello")
	if _, err := os.Stat(filepath.Join(custom, "notes", "chores")); err != nil {
		t.Errorf("note not under configured notes_dir: %v", err)
	}

	override := filepath.Join(t.TempDir(), "flag")
	mustRun(t, home, "--notes-dir", override, "add", "chores", "hello")
	if _, err := os.Stat(filepath.Join(override, "notes", "chores")); err != nil {
		t.Errorf("note not under --notes-dir: %v", err)
	}
}

func TestMalformedConfig(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, ".gnotes.toml"), []byte("notes_dir = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	r := gnotes(t, home, "ls")
	if r.code != 1 || !strings.HasPrefix(r.stderr, "invalid config: failed to parse config file ") {
		t.Errorf("exit %d, stderr %q", r.code, r.stderr)
	}
	if n := strings.Count(r.stderr, ".gnotes.toml"); n != 1 {
		t.Errorf("config path printed %d times: %q", n, r.stderr)
	}
}

func TestMalformedTagIndex(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "chores", "hello")
	if err := os.WriteFile(tags.Path(notesRoot(home)), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := gnotes(t, home, "tag", "chores", "x")
	if r.code != 1 || r.stderr == "" {
		t.Errorf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestUsageErrors(t *testing.T) {
	home := t.TempDir()
	for _, cmd := range [][]string{
		{"add", "only-name"},
		{"tag", "chores"},
		{"search"},
		{"find"},
	} {
		r := gnotes(t, home, cmd...)
		if r.code != 1 || !strings.HasPrefix(r.stderr, "usage: ") {
			t.Errorf("%v: exit %d, stderr %q", cmd, r.code, r.stderr)
		}
	}
}

func TestFind(t *testing.T) {
	home := t.TempDir()
	mustRun(t, home, "add", "shopping", "# Shopping")
	mustRun(t, home, "add", "shopping", "buy milk")
	mustRun(t, home, "tag", "shopping", "food")

	r := mustRun(t, home, "find", "milk")
	want := filepath.Join("notes", "shopping") + "  Shopping  [food]\n"
	if !strings.HasPrefix(r.stdout, want) || !strings.Contains(r.stdout, "buy milk") {
		t.Errorf("stdout = %q", r.stdout)
	}
}
