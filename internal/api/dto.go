package api

import "github.com/starford/gnotes/internal/models"

// AddNoteRequest is the request body for appending to a note.
type AddNoteRequest struct {
	Message string `json:"message"`
}

// NoteResponse identifies the note touched by a mutation.
type NoteResponse struct {
	ID string `json:"id"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.NoteEntry `json:"notes"`
	Total int                `json:"total"`
}

// SearchTagResponse lists the notes carrying one tag.
type SearchTagResponse struct {
	Tag   string   `json:"tag"`
	Notes []string `json:"notes"`
	Total int      `json:"total"`
}

// TagsResponse is the whole tag index, tag to sorted identifiers.
type TagsResponse struct {
	Tags map[string][]string `json:"tags"`
}

// FindResponse wraps catalog hits.
type FindResponse struct {
	Results []models.FindResult `json:"results"`
}
