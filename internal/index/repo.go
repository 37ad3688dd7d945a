package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/gnotes/internal/models"
	"github.com/starford/gnotes/internal/tags"
)

// DefaultFindLimit caps Find when no positive limit is given.
const DefaultFindLimit = 20

// snippetRadius is the number of runes kept on each side of a match.
const snippetRadius = 40

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID        string
	Title     string
	Checksum  string
	Size      int64
	UpdatedAt time.Time
}

// UpsertNote inserts or replaces a note.
func (db *DB) UpsertNote(n NoteRow, body string) error {
	_, err := db.conn.Exec(`
		INSERT INTO notes (id, title, checksum, body, size, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			size       = excluded.size,
			updated_at = excluded.updated_at
	`, n.ID, n.Title, n.Checksum, body, n.Size, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}
	return nil
}

// DeleteNote removes a note. Its tag rows stay: they mirror the tag index,
// which may still reference the note.
func (db *DB) DeleteNote(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}
	return nil
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE id = ?`, id).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed note keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// ReplaceTags mirrors the whole tag index into the catalog.
func (db *DB) ReplaceTags(t tags.Tags) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM note_tags`); err != nil {
		return fmt.Errorf("index: clear tags: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO note_tags (tag, note_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare tag insert: %w", err)
	}
	defer stmt.Close()
	for tag, ids := range t {
		for id := range ids {
			if _, err := stmt.Exec(tag, id); err != nil {
				return fmt.Errorf("index: insert tag: %w", err)
			}
		}
	}
	return tx.Commit()
}

// NoteTags returns the tags of a note, sorted.
func (db *DB) NoteTags(id string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("index: note tags: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		out = append(out, tag)
	}
	return out, rows.Err()
}

// Find returns notes whose identifier, title or body contains query,
// ignoring case. Title and identifier matches rank first.
func (db *DB) Find(query string, limit int) ([]models.FindResult, error) {
	if limit <= 0 {
		limit = DefaultFindLimit
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := db.conn.Query(`
		SELECT id, title, body FROM notes
		WHERE lower(id) LIKE ?1 ESCAPE '\'
		   OR lower(title) LIKE ?1 ESCAPE '\'
		   OR lower(body) LIKE ?1 ESCAPE '\'
		ORDER BY (lower(title) LIKE ?1 ESCAPE '\' OR lower(id) LIKE ?1 ESCAPE '\') DESC,
		         updated_at DESC, id
		LIMIT ?2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: find: %w", err)
	}

	var out []models.FindResult
	for rows.Next() {
		var r models.FindResult
		var body string
		if err := rows.Scan(&r.ID, &r.Title, &body); err != nil {
			rows.Close()
			return nil, err
		}
		r.Snippet = snippet(body, query)
		out = append(out, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Tags, err = db.NoteTags(out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// snippet returns the text around the first case-insensitive match of
// query in body, on a single line.
func snippet(body, query string) string {
	runes := []rune(body)
	lower := []rune(strings.ToLower(body))
	q := []rune(strings.ToLower(query))

	at := -1
	if len(lower) == len(runes) {
		at = indexRunes(lower, q)
	}
	start, end := 0, len(runes)
	if at >= 0 {
		start = max(0, at-snippetRadius)
		end = min(len(runes), at+len(q)+snippetRadius)
	} else if end > 2*snippetRadius {
		end = 2 * snippetRadius
	}

	s := strings.Join(strings.Fields(string(runes[start:end])), " ")
	if start > 0 {
		s = "…" + s
	}
	if end < len(runes) {
		s += "…"
	}
	return s
}

func indexRunes(s, sub []rune) int {
	if len(sub) == 0 {
		return -1
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := range sub {
			if s[i+j] != sub[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
