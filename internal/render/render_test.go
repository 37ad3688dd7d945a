package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/muesli/termenv"

	"github.com/starford/gnotes/internal/models"
)

func plainRenderer(buf *bytes.Buffer) *Renderer {
	return NewWithProfile(buf, termenv.Ascii)
}

func TestNote(t *testing.T) {
	var buf bytes.Buffer
	if err := plainRenderer(&buf).Note("notes/chores", []byte("hello\n")); err != nil {
		t.Fatalf("Note: %v", err)
	}
	if got := buf.String(); got != "notes/chores:\nhello\n" {
		t.Errorf("output = %q", got)
	}
}

func TestNoteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := plainRenderer(&buf).Note("notes/empty", nil); err != nil {
		t.Fatalf("Note: %v", err)
	}
	if got := buf.String(); got != "notes/empty:\n" {
		t.Errorf("output = %q", got)
	}
}

func TestMarkdownPlain(t *testing.T) {
	var buf bytes.Buffer
	r := plainRenderer(&buf)
	src := "# Title\n\nsome *soft* and **strong** `code` here\nnext line\n\n- one\n- two\n\n1. first\n2. second\n\n> quoted\n\n[site](https://example.com)\n\n---\n"
	got := r.Markdown([]byte(src))

	for _, want := range []string{
		"Title",
		"some soft and strong code here\nnext line",
		"• one\n• two",
		"1. first\n2. second",
		"│ quoted",
		"site (https://example.com)",
		"────",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Errorf("plain output contains escape codes: %q", got)
	}
}

func TestMarkdownCodeBlock(t *testing.T) {
	var buf bytes.Buffer
	got := plainRenderer(&buf).Markdown([]byte("```go\nfmt.Println(1)\n```\n"))
	if got != "    fmt.Println(1)" {
		t.Errorf("output = %q", got)
	}
}

func TestMarkdownColored(t *testing.T) {
	var buf bytes.Buffer
	r := NewWithProfile(&buf, termenv.ANSI256)
	got := r.Markdown([]byte("# Title\n\n```go\npackage main\n```\n"))
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected escape codes in colored output: %q", got)
	}
	if !strings.Contains(got, "Title") || !strings.Contains(got, "main") {
		t.Errorf("text lost: %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)
	if got := FormatTime(time.Date(2024, 5, 10, 9, 7, 0, 0, time.UTC), now); got != "09:07" {
		t.Errorf("same day = %q", got)
	}
	if got := FormatTime(time.Unix(0, 0).UTC(), now); got != "Jan  1 00:00" {
		t.Errorf("other day = %q", got)
	}
}

func TestEntries(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)
	entries := []models.NoteEntry{
		{ID: "notes/chores", Size: 6, UpdatedAt: now},
		{ID: "notes/reminders", Size: 120, UpdatedAt: now},
	}
	if err := plainRenderer(&buf).Entries(entries, true, now); err != nil {
		t.Fatalf("Entries: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "total 2" {
		t.Errorf("first line = %q", lines[0])
	}
	if f := strings.Fields(lines[1]); strings.Join(f, " ") != "Length Updated Path" {
		t.Errorf("header = %q", lines[1])
	}
	if f := strings.Fields(lines[2]); strings.Join(f, " ") != "6 18:30 notes/chores" {
		t.Errorf("row = %q", lines[2])
	}
	if strings.Index(lines[2], "notes/") != strings.Index(lines[3], "notes/") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestEntriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := plainRenderer(&buf).Entries(nil, true, time.Now()); err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if buf.String() != "total 0\n" {
		t.Errorf("output = %q", buf.String())
	}
}

func TestResults(t *testing.T) {
	var buf bytes.Buffer
	results := []models.FindResult{
		{ID: "notes/shopping", Title: "Shopping", Snippet: "buy milk", Tags: []string{"food", "home"}},
		{ID: "notes/empty"},
	}
	if err := plainRenderer(&buf).Results(results); err != nil {
		t.Fatalf("Results: %v", err)
	}
	want := "notes/shopping  Shopping  [food, home]\n    buy milk\nnotes/empty\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
