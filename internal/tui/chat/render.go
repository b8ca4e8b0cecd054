package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/query"
	"github.com/newsiq/newsiq/internal/ui"
)

const (
	inputHeight  = 3
	headerHeight = 1
	statusHeight = 1
)

func viewportHeight(total int) int {
	h := total - inputHeight - headerHeight - statusHeight - 2 // two separators
	if h < 3 {
		h = 3
	}
	return h
}

// renderedMessage caches the glamour output for one message.
type renderedMessage struct {
	content string
	refs    string
	width   int
	out     string
}

// View renders the model
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderHR())
	b.WriteString("\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.renderHR())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Highlighted.Render("NewsIQ")
	sub := m.styles.Muted.Render(fmt.Sprintf(" · %d messages", m.orch.Store().Len()))
	return title + sub
}

func (m *Model) renderHR() string {
	return m.styles.Muted.Render(strings.Repeat("─", m.width))
}

func (m *Model) renderBody() string {
	if m.search != nil {
		return m.renderSearch()
	}

	msgs := m.orch.Store().Messages()
	if len(msgs) == 0 {
		return m.styles.Muted.Render("Ask a question about recent news. Answers cite their sources as \"Article N\".")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if msg.Role == history.RoleUser {
			b.WriteString(m.renderUser(msg))
			continue
		}
		b.WriteString(m.renderAssistant(msg, i == len(msgs)-1))
	}
	return b.String()
}

func (m *Model) renderUser(msg history.Message) string {
	text := lipgloss.NewStyle().Width(m.width - 2).Render("❯ " + msg.Content)
	return m.styles.UserMsg.Render(text)
}

func (m *Model) renderAssistant(msg history.Message, last bool) string {
	switch {
	case msg.Content == "" && last && m.orch.Busy():
		phase := "Searching the news"
		if m.orch.State() == query.StateStreaming {
			phase = "Writing"
		}
		return m.spinner.View() + " " + m.styles.Muted.Render(phase+"...")
	case strings.HasPrefix(msg.Content, query.ErrorPrefix):
		return m.styles.Error.Render(lipgloss.NewStyle().Width(m.width).Render(msg.Content))
	}

	out := m.renderAnswer(msg)
	if sources := ui.SourcesBlock(m.styles, msg.ArticleMapping, msg.Articles, m.width); sources != "" {
		out += "\n\n" + sources
	}
	if !msg.Timestamp.IsZero() {
		out += "\n" + m.styles.Muted.Render(msg.Timestamp.Local().Format("Jan 2 15:04"))
	}
	return out
}

// renderAnswer renders through the cache; citations resolve against the
// message's current mapping on every render.
func (m *Model) renderAnswer(msg history.Message) string {
	width := m.width - 2
	refs := fmt.Sprint(len(msg.Articles), msg.ArticleMapping) // fmt sorts map keys
	if cached, ok := m.rendered[msg.ID]; ok && cached.content == msg.Content && cached.refs == refs && cached.width == width {
		return cached.out
	}
	out := ui.RenderAnswer(msg.Content, msg.ArticleMapping, msg.Articles, width)
	m.rendered[msg.ID] = renderedMessage{content: msg.Content, refs: refs, width: width, out: out}
	return out
}

func (m *Model) renderSearch() string {
	s := m.search
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Search %q: %d matches", s.pattern, len(s.results))))
	b.WriteString(m.styles.Muted.Render("  (esc to return)"))
	for _, r := range s.results {
		who := "You"
		if r.Message.Role == history.RoleAssistant {
			who = "NewsIQ"
		}
		line := strings.ReplaceAll(r.Message.Content, "\n", " ")
		b.WriteString("\n\n")
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("#%d %s · %s", r.Index+1, who, r.Message.Timestamp.Local().Format("Jan 2 15:04"))))
		b.WriteString("\n")
		b.WriteString(ui.Truncate(line, m.width))
	}
	return b.String()
}

// dateRange describes the date filter for the status bar.
func (m *Model) dateRange() string {
	if m.dateFrom == nil && m.dateTo == nil {
		return ""
	}
	from, to := "", ""
	if m.dateFrom != nil {
		from = m.dateFrom.Format("2006-01-02")
	}
	if m.dateTo != nil {
		to = m.dateTo.Format("2006-01-02")
	}
	return " " + from + ".." + to
}

func (m *Model) renderStatusBar() string {
	if m.notice != "" {
		style := m.styles.Footer
		if m.noticeIsErr {
			style = m.styles.Error
		}
		return style.Render(ui.Truncate(m.notice, m.width))
	}

	state := m.orch.State().String()
	if t := m.orch.Active(); t != nil {
		state += " " + time.Since(t.StartedAt).Round(time.Second).String()
	}
	left := fmt.Sprintf("[%s%s] %s", m.category, m.dateRange(), state)

	var help []string
	for _, k := range m.keyMap.ShortHelp() {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	right := strings.Join(help, " · ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return m.styles.Footer.Render(ui.Truncate(left+"  "+right, m.width))
	}
	return m.styles.Footer.Render(ui.PadRight(left, lipgloss.Width(left)+gap) + right)
}
