package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/starford/gnotes/internal/models"
)

// FormatTime formats t as "15:04" when it falls on the same day as now and
// as "Jan _2 15:04" otherwise.
func FormatTime(t, now time.Time) string {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("15:04")
	}
	return t.Format("Jan _2 15:04")
}

// Entries prints "total N" followed by one aligned row per note.
func (r *Renderer) Entries(entries []models.NoteEntry, headers bool, now time.Time) error {
	if _, err := fmt.Fprintf(r.w, "total %d\n", len(entries)); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		StyleFunc(func(_, col int) lipgloss.Style {
			if col < 2 {
				return r.lg.NewStyle().PaddingRight(1)
			}
			return r.lg.NewStyle()
		})
	if headers {
		t.Headers("Length", "Updated", "Path")
	}
	for _, e := range entries {
		t.Row(strconv.FormatInt(e.Size, 10), FormatTime(e.UpdatedAt, now), e.ID)
	}
	_, err := fmt.Fprintln(r.w, t.String())
	return err
}

// Results prints catalog hits: the identifier and title of each note, its
// tags in brackets, then the matching snippet indented below.
func (r *Renderer) Results(results []models.FindResult) error {
	for _, res := range results {
		line := r.styles.header.Render(res.ID)
		if res.Title != "" {
			line += "  " + r.styles.strong.Render(res.Title)
		}
		if len(res.Tags) > 0 {
			line += "  [" + strings.Join(res.Tags, ", ") + "]"
		}
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
		if res.Snippet != "" {
			if _, err := fmt.Fprintln(r.w, "    "+res.Snippet); err != nil {
				return err
			}
		}
	}
	return nil
}
