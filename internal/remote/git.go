// Package remote synchronizes the notes root with a remote git repository.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Commit identity used for every gnotes commit.
const (
	AuthorName  = "gnotes"
	AuthorEmail = "gnotes@gnotes.com"
)

// Syncer is the remote persistence collaborator.
type Syncer interface {
	// Clone copies the remote repository into the notes root.
	Clone(ctx context.Context) error
	// CommitAndPush records every change in the notes root and pushes it.
	// A failed push leaves the local commit in place.
	CommitAndPush(ctx context.Context, message string) error
}

// Message returns a commit message of the form "<prefix> [2006-01-02][15:04:05]".
func Message(prefix string, now time.Time) string {
	return fmt.Sprintf("%s [%s][%s]", prefix, now.Format("2006-01-02"), now.Format("15:04:05"))
}

// Git implements Syncer by running the git binary.
type Git struct {
	dir        string
	repository string
	sshKey     string
	logger     *slog.Logger
}

var _ Syncer = (*Git)(nil)

// NewGit creates a Git syncer for the notes root dir.
func NewGit(dir, repository, sshKey string, logger *slog.Logger) *Git {
	if logger == nil {
		logger = slog.Default()
	}
	return &Git{dir: dir, repository: repository, sshKey: sshKey, logger: logger}
}

// Clone runs git clone into the notes root.
func (g *Git) Clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(g.dir), 0o755); err != nil {
		return fmt.Errorf("remote: mkdir: %w", err)
	}
	g.logger.Debug("git clone", slog.String("repository", g.repository), slog.String("dir", g.dir))
	_, err := g.exec(ctx, "", "clone", g.repository, g.dir)
	return err
}

// CommitAndPush stages everything, commits when something changed and
// pushes HEAD to origin.
func (g *Git) CommitAndPush(ctx context.Context, message string) error {
	if err := g.ensureRepo(ctx); err != nil {
		return err
	}
	if _, err := g.exec(ctx, g.dir, "add", "-A"); err != nil {
		return err
	}
	if g.hasStagedChanges(ctx) {
		if _, err := g.exec(ctx, g.dir,
			"-c", "user.name="+AuthorName,
			"-c", "user.email="+AuthorEmail,
			"commit", "-m", message,
		); err != nil {
			return err
		}
		g.logger.Debug("git commit", slog.String("message", message))
	} else {
		g.logger.Debug("git commit skipped: nothing to commit")
	}
	if !g.hasCommits(ctx) {
		return nil
	}
	if _, err := g.exec(ctx, g.dir, "push", "-u", "origin", "HEAD"); err != nil {
		return err
	}
	g.logger.Debug("git push", slog.String("repository", g.repository))
	return nil
}

func (g *Git) ensureRepo(ctx context.Context) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("remote: mkdir: %w", err)
	}
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); errors.Is(err, fs.ErrNotExist) {
		if _, err := g.exec(ctx, g.dir, "init"); err != nil {
			return err
		}
	}
	if _, err := g.exec(ctx, g.dir, "remote", "get-url", "origin"); err != nil {
		if _, err := g.exec(ctx, g.dir, "remote", "add", "origin", g.repository); err != nil {
			return err
		}
	}
	return nil
}

func (g *Git) hasStagedChanges(ctx context.Context) bool {
	// diff --quiet exits non-zero when the index differs from HEAD.
	if !g.hasCommits(ctx) {
		out, err := g.exec(ctx, g.dir, "ls-files")
		return err == nil && len(strings.TrimSpace(string(out))) > 0
	}
	_, err := g.exec(ctx, g.dir, "diff", "--cached", "--quiet")
	return err != nil
}

func (g *Git) hasCommits(ctx context.Context) bool {
	_, err := g.exec(ctx, g.dir, "rev-parse", "--verify", "HEAD")
	return err == nil
}

func (g *Git) env() []string {
	env := append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if g.sshKey != "" {
		if _, err := os.Stat(g.sshKey); err == nil {
			env = append(env, fmt.Sprintf("GIT_SSH_COMMAND=ssh -i %s -o IdentitiesOnly=yes", g.sshKey))
		}
	}
	return env
}

func (g *Git) exec(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = g.env()

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\n%s",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return output, nil
}
