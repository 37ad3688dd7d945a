package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/gnotes/internal/parser"
	"github.com/starford/gnotes/internal/storage"
	"github.com/starford/gnotes/internal/tags"
)

// Sync walks the notes root and brings the catalog up to date:
//   - new/changed notes are parsed and upserted
//   - notes removed from disk are deleted from the catalog
//   - the tag index is mirrored into the catalog
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	entries, err := store.ListAll()
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		disk[e.ID] = struct{}{}

		data, err := store.Read(e.ID)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("id", e.ID), slog.String("error", err.Error()))
			continue
		}
		if checksums[e.ID] == sum(data) {
			continue
		}
		if err := indexNote(db, e.ID, data, e.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("id", e.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", e.ID))
		}
	}

	for id := range checksums {
		if _, ok := disk[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("id", id))
		}
	}

	return SyncTags(db, store.Root())
}

// SyncTags mirrors the tag index of root into the catalog.
func SyncTags(db *DB, root string) error {
	t, err := tags.Load(root)
	if err != nil {
		return err
	}
	return db.ReplaceTags(t)
}

// indexFile reads the note id from store and upserts it.
func indexFile(db *DB, store storage.Provider, id string) error {
	data, err := store.Read(id)
	if err != nil {
		return err
	}
	updated := time.Now()
	if info, err := os.Stat(filepath.Join(store.Root(), id)); err == nil {
		updated = info.ModTime()
	}
	return indexNote(db, id, data, updated)
}

func indexNote(db *DB, id string, data []byte, updated time.Time) error {
	res := parser.Parse(data)
	row := NoteRow{
		ID:        id,
		Title:     res.Title,
		Checksum:  sum(data),
		Size:      int64(len(data)),
		UpdatedAt: updated,
	}
	if err := db.UpsertNote(row, res.Body); err != nil {
		return fmt.Errorf("index %s: %w", id, err)
	}
	return nil
}

func sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
