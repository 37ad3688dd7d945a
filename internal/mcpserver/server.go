// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the gnotes tag operations over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/gnotes/internal/apperr"
	"github.com/starford/gnotes/internal/noteservice"
)

// Server wraps the MCP server with gnotes tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all gnotes tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer("gnotes", version, server.WithToolCapabilities(false))

	s.mcp.AddTool(mcp.NewTool("search_tag",
		mcp.WithDescription("List the notes carrying a tag, one identifier per line."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to look up")),
		mcp.WithString("dir", mcp.Description("Directory to search in (default: notes)")),
		mcp.WithBoolean("all", mcp.Description("Search every directory")),
	), s.searchTag)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note identifier, e.g. notes/chores")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("add_note",
		mcp.WithDescription("Append a line to a note, creating it if needed."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
		mcp.WithString("message", mcp.Required(), mcp.Description("Text to append")),
		mcp.WithString("dir", mcp.Description("Directory of the note (default: notes)")),
	), s.addNote)

	s.mcp.AddTool(mcp.NewTool("tag_note",
		mcp.WithDescription("Add tags to an existing note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated tags")),
		mcp.WithString("dir", mcp.Description("Directory of the note (default: notes)")),
	), s.tagNote)

	s.mcp.AddTool(mcp.NewTool("untag_note",
		mcp.WithDescription("Remove tags from an existing note."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name")),
		mcp.WithString("tags", mcp.Required(), mcp.Description("Comma-separated tags")),
		mcp.WithString("dir", mcp.Description("Directory of the note (default: notes)")),
	), s.untagNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List note identifiers in a directory, or everywhere."),
		mcp.WithString("dir", mcp.Description("Directory to list (default: notes)")),
		mcp.WithBoolean("all", mcp.Description("List every directory")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("find_notes",
		mcp.WithDescription("Case-insensitive text lookup over note identifiers, titles and contents."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
	), s.findNotes)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// optional returns the string argument key, or "" when it is absent.
func optional(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func splitTags(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) searchTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := s.svc.Search(ctx, tag, optional(req, "dir"), req.GetBool("all", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(ids) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no notes tagged %q", tag)), nil
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.svc.Read(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) addNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	message, err := req.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := s.svc.Add(ctx, name, optional(req, "dir"), message)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("written: " + id), nil
}

func (s *Server) tagNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.updateTags(ctx, req, "tagged", s.svc.Tag)
}

func (s *Server) untagNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.updateTags(ctx, req, "untagged", s.svc.Untag)
}

func (s *Server) updateTags(
	ctx context.Context,
	req mcp.CallToolRequest,
	verb string,
	fn func(ctx context.Context, name, dir string, names ...string) (string, error),
) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("tags")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	names := splitTags(raw)
	id, err := fn(ctx, name, optional(req, "dir"), names...)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %s: %s", verb, id, strings.Join(names, ", "))), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.svc.List(ctx, optional(req, "dir"), req.GetBool("all", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return mcp.NewToolResultText(strings.Join(ids, "\n")), nil
}

func (s *Server) findNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Find(ctx, query, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
