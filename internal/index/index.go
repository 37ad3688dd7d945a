package index

import (
	"github.com/starford/gnotes/internal/models"
	"github.com/starford/gnotes/internal/tags"
)

// NoteIndex defines the catalog operations. Consumers should depend on
// this interface rather than the concrete *DB type.
type NoteIndex interface {
	UpsertNote(n NoteRow, body string) error
	DeleteNote(id string) error
	GetChecksum(id string) (string, error)
	AllChecksums() (map[string]string, error)
	ReplaceTags(t tags.Tags) error
	NoteTags(id string) ([]string, error)
	Find(query string, limit int) ([]models.FindResult, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
