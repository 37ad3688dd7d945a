package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gnotes/internal/models"
	"github.com/starford/gnotes/internal/noteservice"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// noteID extracts the note identifier from the URL wildcard.
// Encoded slashes (notes%2Fchores) are accepted.
func noteID(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	return filepath.Clean(filepath.FromSlash(decoded))
}

func tagParam(r *http.Request) string {
	raw := chi.URLParam(r, "tag")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// splitID turns an identifier into the (name, dir) pair the service takes.
func splitID(id string) (name, dir string) {
	return filepath.Base(id), filepath.Dir(id)
}

func scope(r *http.Request) (dir string, all bool) {
	q := r.URL.Query()
	all, _ = strconv.ParseBool(q.Get("all"))
	return q.Get("dir"), all
}

// ListNotes handles GET /api/notes?dir=&all=.
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	dir, all := scope(r)
	entries, err := h.svc.List(r.Context(), dir, all)
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if entries == nil {
		entries = []models.NoteEntry{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: entries, Total: len(entries)})
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	note, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// AddNote handles POST /api/notes/* with {"message": "..."}.
func (h *Handler) AddNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	var req AddNoteRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("message is required"))
		return
	}
	name, dir := splitID(id)
	id, err := h.svc.Add(r.Context(), name, dir, req.Message)
	if err != nil {
		writeError(w, "add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, NoteResponse{ID: id})
}

// DeleteNote handles DELETE /api/notes/*. The note is pruned from the tag
// index; deleting a missing note succeeds.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	if err := h.svc.RemoveID(r.Context(), id); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	idx, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	out := make(map[string][]string, len(idx))
	for tag, ids := range idx {
		out[tag] = ids.Sorted()
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: out})
}

// SearchTag handles GET /api/tags/{tag}?dir=&all=.
func (h *Handler) SearchTag(w http.ResponseWriter, r *http.Request) {
	tag := tagParam(r)
	dir, all := scope(r)
	ids, err := h.svc.Search(r.Context(), tag, dir, all)
	if err != nil {
		writeError(w, "search tag", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, SearchTagResponse{Tag: tag, Notes: ids, Total: len(ids)})
}

// TagNote handles PUT /api/tags/{tag}/*.
func (h *Handler) TagNote(w http.ResponseWriter, r *http.Request) {
	h.updateTag(w, r, "tag note", h.svc.Tag)
}

// UntagNote handles DELETE /api/tags/{tag}/*.
func (h *Handler) UntagNote(w http.ResponseWriter, r *http.Request) {
	h.updateTag(w, r, "untag note", h.svc.Untag)
}

type tagFunc func(ctx context.Context, name, dir string, names ...string) (string, error)

func (h *Handler) updateTag(w http.ResponseWriter, r *http.Request, op string, fn tagFunc) {
	id := noteID(r)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("note id is required"))
		return
	}
	name, dir := splitID(id)
	id, err := fn(r.Context(), name, dir, tagParam(r))
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteResponse{ID: id})
}

// Find handles GET /api/find?q=&limit=.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Find(r.Context(), q, limit)
	if err != nil {
		writeError(w, "find", err)
		return
	}
	if results == nil {
		results = []models.FindResult{}
	}
	writeJSON(w, http.StatusOK, FindResponse{Results: results})
}
