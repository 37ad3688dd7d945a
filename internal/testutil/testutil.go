// Package testutil provides shared test fixtures: a notes root, its tag
// index and a catalog database.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/gnotes/internal/index"
	"github.com/starford/gnotes/internal/storage"
	"github.com/starford/gnotes/internal/tags"
)

// TestDB creates a temporary catalog database that is removed after the test.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	f, err := os.CreateTemp("", "gnotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates an empty notes root.
func TestStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// WriteNote appends content to dir/name and returns its identifier.
func WriteNote(t *testing.T, store *storage.FS, dir, name, content string) string {
	t.Helper()
	id, err := store.Append(dir, name, content)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

// WriteTags replaces the tag index of store.
func WriteTags(t *testing.T, store *storage.FS, idx tags.Tags) {
	t.Helper()
	if err := tags.Save(store.Root(), idx); err != nil {
		t.Fatal(err)
	}
}
