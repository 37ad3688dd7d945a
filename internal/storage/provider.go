// Package storage resolves note identifiers and stores note contents under
// the notes root.
package storage

import "github.com/starford/gnotes/internal/models"

// Provider is the read side of the note store used by the catalog.
type Provider interface {
	// Root returns the absolute notes root.
	Root() string
	// Read returns the raw bytes of the note id (relative to the notes root).
	Read(id string) ([]byte, error)
	// ListAll returns metadata for every note under the notes root.
	ListAll() ([]models.NoteEntry, error)
}

var _ Provider = (*FS)(nil)
