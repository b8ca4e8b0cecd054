package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/newsiq/newsiq/internal/cite"
	"github.com/newsiq/newsiq/internal/news"
)

// RenderAnswer resolves citation markers in content and renders it as
// markdown at width.
func RenderAnswer(content string, mapping map[int]int, articles []news.Article, width int) string {
	return RenderMarkdown(cite.Resolve(content, mapping, articles), width)
}

// SourcesBlock lists the cited articles under an answer, one per line,
// truncated to width. It returns "" when nothing is cited.
func SourcesBlock(s *Styles, mapping map[int]int, articles []news.Article, width int) string {
	sources := cite.Sources(mapping, articles)
	if len(sources) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(s.Muted.Render("Sources"))
	for _, src := range sources {
		a := src.Article
		line := fmt.Sprintf("[%d] %s", src.Number, a.Title)
		if a.Source != "" {
			line += " · " + a.Source
		}
		b.WriteString("\n  ")
		b.WriteString(Truncate(line, width-2))
		if a.URL != "" {
			b.WriteString("\n      ")
			b.WriteString(s.Link.Render(Truncate(a.URL, width-6)))
		}
	}
	return b.String()
}

// Truncate shortens s to at most width terminal cells, ending in "…" when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// PadRight pads s with spaces to width terminal cells.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}
