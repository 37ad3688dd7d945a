package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/gnotes/internal/apperr"
	"github.com/starford/gnotes/internal/models"
)

// DefaultDir is the note directory used when none is given.
const DefaultDir = "notes"

// ResolveDir returns dir, or DefaultDir when dir is empty.
func ResolveDir(dir string) string {
	if dir == "" {
		return DefaultDir
	}
	return dir
}

// NotFoundError reports a note that had to exist for command to run.
type NotFoundError struct {
	Command string
	Path    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s failed: file '%s' not found", e.Command, e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return apperr.ErrNotFound
}

// Write creates parentDir if needed and appends content plus a newline to
// parentDir/fileName. Existing content is never truncated.
func Write(parentDir, fileName, content string) error {
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(parentDir, fileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", fileName, err)
	}
	if _, err := f.WriteString(content + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("storage: append %s: %w", fileName, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", fileName, err)
	}
	return nil
}

// FS implements Provider backed by the notes root on the local file system.
type FS struct {
	root string // absolute path to the notes root
}

// NewFS creates a new FS rooted at root. The directory is not required to
// exist yet; it is created by the first write.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute notes root.
func (f *FS) Root() string {
	return f.root
}

// safePath resolves rel against the notes root and rejects any result that
// escapes it.
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: %w: %s", apperr.ErrPathEscape, rel)
	}
	abs := filepath.Join(f.root, cleaned)
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("storage: %w: %s", apperr.ErrPathEscape, rel)
	}
	return abs, nil
}

// Path returns the absolute path of the note with the given identifier.
func (f *FS) Path(id string) (string, error) {
	return f.safePath(id)
}

// Exists reports whether a note file exists for id.
func (f *FS) Exists(id string) bool {
	p, err := f.safePath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Identify joins dir and name into a note identifier and checks that the
// note exists. A missing note yields a *NotFoundError naming command.
func (f *FS) Identify(command, name, dir string) (string, error) {
	id := filepath.Join(dir, name)
	if _, err := f.safePath(id); err != nil {
		return "", err
	}
	if !f.Exists(id) {
		return "", &NotFoundError{Command: command, Path: id}
	}
	return id, nil
}

// Append adds content to the note dir/name, creating it when absent.
func (f *FS) Append(dir, name, content string) (string, error) {
	id := filepath.Join(dir, name)
	p, err := f.safePath(id)
	if err != nil {
		return "", err
	}
	if err := Write(filepath.Dir(p), filepath.Base(p), content); err != nil {
		return "", err
	}
	return id, nil
}

// Prepare creates the parent directory of dir/name and returns the absolute
// note path for an external editor.
func (f *FS) Prepare(dir, name string) (string, error) {
	p, err := f.safePath(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}
	return p, nil
}

// Read returns the raw bytes of a note.
func (f *FS) Read(id string) ([]byte, error) {
	p, err := f.safePath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: read %s: %w: %w", id, apperr.ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", id, err)
	}
	return data, nil
}

// Delete removes a note. It reports false without error when the note does
// not exist.
func (f *FS) Delete(id string) (bool, error) {
	p, err := f.safePath(id)
	if err != nil {
		return false, err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: delete %s: %w", id, err)
	}
	return true, nil
}

// List returns the notes stored directly in dir. A missing directory holds
// no notes.
func (f *FS) List(dir string) ([]models.NoteEntry, error) {
	p, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	var out []models.NoteEntry
	for _, d := range entries {
		if hidden(d.Name()) || !d.Type().IsRegular() {
			continue
		}
		info, err := d.Info()
		if err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", dir, err)
		}
		out = append(out, entry(filepath.Join(dir, d.Name()), info))
	}
	return out, nil
}

// ListAll walks the whole notes root and returns every note. Dot files and
// dot directories such as .tags and .git are skipped.
func (f *FS) ListAll() ([]models.NoteEntry, error) {
	var out []models.NoteEntry
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == f.root && errors.Is(walkErr, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return walkErr
		}
		if p == f.root {
			return nil
		}
		if hidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(f.root, p)
		out = append(out, entry(rel, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

func entry(id string, info fs.FileInfo) models.NoteEntry {
	return models.NoteEntry{
		ID:        id,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
