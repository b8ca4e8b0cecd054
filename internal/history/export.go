package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/newsiq/newsiq/internal/cite"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
)

// Format selects an export encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
)

// ParseFormat accepts a format name or common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want markdown, json or html)", s)
	}
}

var exportMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// Export writes msgs to w. Markdown and HTML exports resolve citations and
// list each answer's sources; JSON is the stored form.
func Export(w io.Writer, msgs []Message, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	case FormatHTML:
		var body bytes.Buffer
		if err := exportMarkdown.Convert([]byte(renderMarkdown(msgs)), &body); err != nil {
			return fmt.Errorf("convert markdown: %w", err)
		}
		_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s</body>\n</html>\n",
			html.EscapeString(exportTitle(msgs)), body.String())
		return err
	default:
		_, err := io.WriteString(w, renderMarkdown(msgs))
		return err
	}
}

// exportTitle names the export after the first question asked.
func exportTitle(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser && strings.TrimSpace(m.Content) != "" {
			q := strings.Join(strings.Fields(m.Content), " ")
			if r := []rune(q); len(r) > 80 {
				q = string(r[:79]) + "…"
			}
			return "NewsIQ: " + q
		}
	}
	return "NewsIQ conversation"
}

func renderMarkdown(msgs []Message) string {
	var b strings.Builder
	b.WriteString("# NewsIQ conversation\n\n")
	fmt.Fprintf(&b, "**Exported:** %s  \n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Messages:** %d\n", len(msgs))
	b.WriteString("\n---\n\n")

	for _, m := range msgs {
		heading := "You"
		if m.Role == RoleAssistant {
			heading = "NewsIQ"
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		if !m.Timestamp.IsZero() {
			fmt.Fprintf(&b, "*%s*\n\n", m.Timestamp.Local().Format("2006-01-02 15:04"))
		}

		if m.Role == RoleAssistant {
			b.WriteString(cite.Resolve(m.Content, m.ArticleMapping, m.Articles))
			if sources := cite.Sources(m.ArticleMapping, m.Articles); len(sources) > 0 {
				b.WriteString("\n\n**Sources**\n\n")
				for _, s := range sources {
					writeSource(&b, s)
				}
			}
		} else {
			b.WriteString(m.Content)
		}
		b.WriteString("\n\n---\n\n")
	}
	return b.String()
}

func writeSource(b *strings.Builder, s cite.Source) {
	a := s.Article
	if a.URL != "" {
		fmt.Fprintf(b, "%d. [%s](%s)", s.Number, a.Title, a.URL)
	} else {
		fmt.Fprintf(b, "%d. %s", s.Number, a.Title)
	}
	if a.Source != "" {
		fmt.Fprintf(b, " (%s)", a.Source)
	}
	b.WriteString("\n")
}
