// Package render prints notes and note listings to the terminal.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type styles struct {
	header   lipgloss.Style
	heading  lipgloss.Style
	emphasis lipgloss.Style
	strong   lipgloss.Style
	code     lipgloss.Style
	link     lipgloss.Style
	quote    lipgloss.Style
	rule     lipgloss.Style
}

// Renderer renders Markdown for the terminal behind w. Colors and text
// attributes are only emitted when w is a terminal that supports them.
type Renderer struct {
	w        io.Writer
	lg       *lipgloss.Renderer
	md       goldmark.Markdown
	styles   styles
	chroma   string
	ruleSize int
}

// New creates a Renderer writing to w.
func New(w io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(w)
	return newRenderer(w, lg)
}

// NewWithProfile creates a Renderer with a fixed color profile.
func NewWithProfile(w io.Writer, p termenv.Profile) *Renderer {
	lg := lipgloss.NewRenderer(w)
	lg.SetColorProfile(p)
	return newRenderer(w, lg)
}

func newRenderer(w io.Writer, lg *lipgloss.Renderer) *Renderer {
	return &Renderer{
		w:  w,
		lg: lg,
		md: goldmark.New(),
		styles: styles{
			header:   lg.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
			heading:  lg.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
			emphasis: lg.NewStyle().Italic(true),
			strong:   lg.NewStyle().Bold(true),
			code:     lg.NewStyle().Foreground(lipgloss.Color("203")),
			link:     lg.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
			quote:    lg.NewStyle().Foreground(lipgloss.Color("241")),
			rule:     lg.NewStyle().Foreground(lipgloss.Color("241")),
		},
		chroma:   chromaFormatter(lg.ColorProfile()),
		ruleSize: 40,
	}
}

// chromaFormatter maps a terminal profile to a chroma formatter name.
// No highlighting is done for plain output.
func chromaFormatter(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal"
	default:
		return ""
	}
}

// Note prints the "<id>:" header line followed by the rendered content.
func (r *Renderer) Note(id string, content []byte) error {
	if _, err := fmt.Fprintln(r.w, r.styles.header.Render(id+":")); err != nil {
		return err
	}
	out := r.Markdown(content)
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(r.w, out)
	return err
}

// Markdown renders src to terminal text without a trailing newline.
func (r *Renderer) Markdown(src []byte) string {
	doc := r.md.Parser().Parse(text.NewReader(src))
	return strings.Join(r.blocks(doc, src), "\n\n")
}

func (r *Renderer) blocks(parent ast.Node, src []byte) []string {
	var out []string
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if s := r.block(n, src); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *Renderer) block(n ast.Node, src []byte) string {
	switch n := n.(type) {
	case *ast.Heading:
		return r.styles.heading.Render(r.inline(n, src))
	case *ast.Paragraph, *ast.TextBlock:
		return r.inline(n, src)
	case *ast.ThematicBreak:
		return r.styles.rule.Render(strings.Repeat("─", r.ruleSize))
	case *ast.FencedCodeBlock:
		return r.code(string(n.Language(src)), lines(n, src))
	case *ast.CodeBlock:
		return r.code("", lines(n, src))
	case *ast.HTMLBlock:
		return strings.TrimRight(lines(n, src), "\n")
	case *ast.Blockquote:
		body := strings.Join(r.blocks(n, src), "\n\n")
		return prefixLines(body, r.styles.quote.Render("│ "), r.styles.quote.Render("│ "))
	case *ast.List:
		return r.list(n, src)
	default:
		return strings.Join(r.blocks(n, src), "\n\n")
	}
}

func (r *Renderer) list(l *ast.List, src []byte) string {
	var items []string
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		sep := "\n"
		if !l.IsTight {
			sep = "\n\n"
		}
		body := strings.Join(r.blocks(item, src), sep)
		items = append(items, prefixLines(body, marker, strings.Repeat(" ", len([]rune(marker)))))
	}
	if l.IsTight {
		return strings.Join(items, "\n")
	}
	return strings.Join(items, "\n\n")
}

func (r *Renderer) code(lang, body string) string {
	body = strings.TrimRight(body, "\n")
	if r.chroma != "" {
		var b strings.Builder
		if err := quick.Highlight(&b, body, lang, r.chroma, "monokai"); err == nil {
			body = strings.TrimRight(b.String(), "\n")
		}
	}
	return prefixLines(body, "    ", "    ")
}

func (r *Renderer) inline(parent ast.Node, src []byte) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.HardLineBreak() || n.SoftLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.CodeSpan:
			b.WriteString(r.styles.code.Render(r.plain(n, src)))
		case *ast.Emphasis:
			style := r.styles.emphasis
			if n.Level >= 2 {
				style = r.styles.strong
			}
			b.WriteString(style.Render(r.inline(n, src)))
		case *ast.Link:
			label := r.inline(n, src)
			dest := string(n.Destination)
			b.WriteString(r.styles.link.Render(label))
			if dest != "" && dest != label {
				b.WriteString(" (" + dest + ")")
			}
		case *ast.AutoLink:
			b.WriteString(r.styles.link.Render(string(n.URL(src))))
		case *ast.Image:
			alt := r.plain(n, src)
			b.WriteString("[" + alt + "](" + string(n.Destination) + ")")
		case *ast.RawHTML:
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.Write(seg.Value(src))
			}
		default:
			b.WriteString(r.inline(n, src))
		}
	}
	return b.String()
}

// plain returns the unstyled text of an inline subtree.
func (r *Renderer) plain(parent ast.Node, src []byte) string {
	var b strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(src))
		case *ast.String:
			b.Write(n.Value)
		default:
			b.WriteString(r.plain(n, src))
		}
	}
	return b.String()
}

func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

func prefixLines(s, first, rest string) string {
	parts := strings.Split(s, "\n")
	for i, p := range parts {
		if i == 0 {
			parts[i] = first + p
			continue
		}
		if p == "" {
			parts[i] = strings.TrimRight(rest, " ")
			continue
		}
		parts[i] = rest + p
	}
	return strings.Join(parts, "\n")
}
