// Package noteservice implements the gnotes operations shared by the CLI,
// the HTTP API and the MCP server.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/starford/gnotes/internal/apperr"
	"github.com/starford/gnotes/internal/models"
	"github.com/starford/gnotes/internal/remote"
	"github.com/starford/gnotes/internal/storage"
	"github.com/starford/gnotes/internal/tags"
)

// Commit message prefixes.
const (
	ManualSavePrefix = "gnotes manual save"
	AutoSavePrefix   = "gnotes auto save"
)

// EditFunc opens the note file at path for interactive editing.
type EditFunc func(ctx context.Context, path string) error

// Catalog answers free-text lookups over note contents.
type Catalog interface {
	Find(query string, limit int) ([]models.FindResult, error)
}

// Service coordinates the note store, the tag index and the remote.
type Service struct {
	store    *storage.FS
	syncer   remote.Syncer
	autoSave bool
	edit     EditFunc
	catalog  Catalog
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRemote sets the remote syncer. When autoSave is true every mutation
// is committed and pushed.
func WithRemote(syncer remote.Syncer, autoSave bool) Option {
	return func(s *Service) {
		s.syncer = syncer
		s.autoSave = autoSave
	}
}

// WithEditor sets the interactive editor used by New and Edit.
func WithEditor(fn EditFunc) Option {
	return func(s *Service) {
		s.edit = fn
	}
}

// WithCatalog sets the catalog used by Find.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithClock overrides the time source used for commit messages.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new note service.
func NewService(store *storage.FS, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying note store.
func (s *Service) Store() *storage.FS {
	return s.store
}

// New creates the note dir/name. A non-empty message is appended directly;
// otherwise the note is opened in the editor.
func (s *Service) New(ctx context.Context, name, dir, message string) (string, error) {
	if message != "" {
		return s.Add(ctx, name, dir, message)
	}
	return s.Edit(ctx, name, dir)
}

// Add appends message to the note dir/name, creating it when needed.
func (s *Service) Add(ctx context.Context, name, dir, message string) (string, error) {
	dir = storage.ResolveDir(dir)
	id, err := s.store.Append(dir, name, message)
	if err != nil {
		return "", err
	}
	s.logger.Debug("note written", slog.String("id", id))
	return id, s.afterMutation(ctx)
}

// Edit opens the note dir/name in the editor, creating its directory.
func (s *Service) Edit(ctx context.Context, name, dir string) (string, error) {
	if s.edit == nil {
		return "", fmt.Errorf("%w: no editor configured", apperr.ErrUsage)
	}
	dir = storage.ResolveDir(dir)
	path, err := s.store.Prepare(dir, name)
	if err != nil {
		return "", err
	}
	s.logger.Debug("opening editor", slog.String("path", path))
	if err := s.edit(ctx, path); err != nil {
		return "", err
	}
	return filepath.Join(dir, name), s.afterMutation(ctx)
}

// Remove deletes the note dir/name and prunes it from the tag index.
// Removing a missing note is not an error.
func (s *Service) Remove(ctx context.Context, name, dir string) error {
	return s.RemoveID(ctx, filepath.Join(storage.ResolveDir(dir), name))
}

// RemoveID deletes the note id and prunes it from the tag index.
func (s *Service) RemoveID(ctx context.Context, id string) error {
	removed, err := s.store.Delete(id)
	if err != nil {
		return err
	}
	t, err := tags.Load(s.store.Root())
	if err != nil {
		return err
	}
	tagged := len(t.Of(id)) > 0
	if tagged {
		if err := tags.Save(s.store.Root(), t.Prune(id)); err != nil {
			return err
		}
	}
	s.logger.Debug("note removed",
		slog.String("id", id),
		slog.Bool("existed", removed),
		slog.Bool("pruned", tagged))
	if !removed && !tagged {
		return nil
	}
	return s.afterMutation(ctx)
}

// List returns the notes in dir, or every note when all is set.
// dir must be empty when all is set.
func (s *Service) List(_ context.Context, dir string, all bool) ([]models.NoteEntry, error) {
	if dir != "" && all {
		return nil, apperr.ErrDirWithAll
	}
	if all {
		return s.store.ListAll()
	}
	return s.store.List(storage.ResolveDir(dir))
}

// Show resolves the existing note dir/name and returns its content.
func (s *Service) Show(ctx context.Context, name, dir string) (string, []byte, error) {
	id, err := s.store.Identify("show", name, storage.ResolveDir(dir))
	if err != nil {
		return "", nil, err
	}
	data, err := s.Read(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, data, nil
}

// Read returns the content of the note id.
func (s *Service) Read(_ context.Context, id string) ([]byte, error) {
	return s.store.Read(id)
}

// Get returns the note id with the tags referencing it.
func (s *Service) Get(ctx context.Context, id string) (*models.Note, error) {
	data, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := tags.Load(s.store.Root())
	if err != nil {
		return nil, err
	}
	noteTags := t.Of(id)
	if noteTags == nil {
		noteTags = []string{}
	}
	return &models.Note{ID: id, Content: string(data), Tags: noteTags}, nil
}

// Tag adds every tag to the existing note dir/name.
func (s *Service) Tag(ctx context.Context, name, dir string, names ...string) (string, error) {
	return s.updateTags(ctx, "tag", name, dir, names, tags.Tags.Add)
}

// Untag removes every tag from the existing note dir/name. Tags the note
// does not carry are ignored.
func (s *Service) Untag(ctx context.Context, name, dir string, names ...string) (string, error) {
	return s.updateTags(ctx, "untag", name, dir, names, tags.Tags.Remove)
}

func (s *Service) updateTags(ctx context.Context, command, name, dir string, names []string, apply func(tags.Tags, string, string)) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("%w: %s requires at least one tag", apperr.ErrUsage, command)
	}
	id, err := s.store.Identify(command, name, storage.ResolveDir(dir))
	if err != nil {
		return "", err
	}
	t, err := tags.Load(s.store.Root())
	if err != nil {
		return "", err
	}
	for _, tag := range names {
		apply(t, tag, id)
	}
	if err := tags.Save(s.store.Root(), t); err != nil {
		return "", err
	}
	s.logger.Debug("tags updated",
		slog.String("command", command),
		slog.String("id", id),
		slog.Any("tags", names))
	return id, s.afterMutation(ctx)
}

// Search returns the notes carrying tag under dir, or anywhere when all is
// set. dir must be empty when all is set. Identifiers are returned as
// recorded; they are not checked against the note store.
func (s *Service) Search(_ context.Context, tag, dir string, all bool) ([]string, error) {
	if dir != "" && all {
		return nil, apperr.ErrDirWithAll
	}
	t, err := tags.Load(s.store.Root())
	if err != nil {
		return nil, err
	}
	return t.Search(tag, storage.ResolveDir(dir), all), nil
}

// Tags returns the whole tag index.
func (s *Service) Tags(_ context.Context) (tags.Tags, error) {
	return tags.Load(s.store.Root())
}

// Find looks query up in the catalog.
func (s *Service) Find(_ context.Context, query string, limit int) ([]models.FindResult, error) {
	if s.catalog == nil {
		return nil, errors.New("noteservice: no catalog configured")
	}
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", apperr.ErrUsage)
	}
	return s.catalog.Find(query, limit)
}

// Save commits and pushes the notes root. An empty message gets a
// timestamped default.
func (s *Service) Save(ctx context.Context, message string) error {
	if s.syncer == nil {
		return &apperr.MissingRepositoryError{Action: "save"}
	}
	if message == "" {
		message = remote.Message(ManualSavePrefix, s.now())
	}
	return s.syncer.CommitAndPush(ctx, message)
}

// Clone copies the remote repository into the notes root.
func (s *Service) Clone(ctx context.Context) error {
	if s.syncer == nil {
		return &apperr.MissingRepositoryError{Action: "clone"}
	}
	return s.syncer.Clone(ctx)
}

func (s *Service) afterMutation(ctx context.Context) error {
	if !s.autoSave || s.syncer == nil {
		return nil
	}
	message := remote.Message(AutoSavePrefix, s.now())
	s.logger.Debug("auto save", slog.String("message", message))
	return s.syncer.CommitAndPush(ctx, message)
}
