// Package models defines the domain types for gnotes.
package models

import "time"

// NoteEntry is the file metadata shown by list operations.
type NoteEntry struct {
	ID        string    `json:"id"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Note is a note together with the tags that reference it.
type Note struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// FindResult is one catalog hit.
type FindResult struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
}
