package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/newsiq/newsiq/internal/cite"
	"github.com/newsiq/newsiq/internal/clipboard"
	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/news"
	"github.com/newsiq/newsiq/internal/query"
	"github.com/newsiq/newsiq/internal/sse"
	"github.com/newsiq/newsiq/internal/transport"
	"github.com/newsiq/newsiq/internal/ui"
	"github.com/rs/zerolog"
)

// Options configures a chat session.
type Options struct {
	Category    string // initial category filter
	DateFrom    *time.Time
	DateTo      *time.Time
	InitialText string // prefilled question
	Width       int
	Height      int
	Logger      zerolog.Logger
	// CopyText writes to the clipboard; defaults to clipboard.CopyText.
	CopyText func(string) error
}

// Model is the bubbletea model for the chat TUI. All conversation state
// lives in the orchestrator; the model only renders it and feeds it stream
// events on the Update goroutine.
type Model struct {
	ctx    context.Context
	orch   *query.Orchestrator
	log    zerolog.Logger
	styles *ui.Styles
	keyMap KeyMap

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int

	category     string
	dateFrom     *time.Time
	dateTo       *time.Time
	follow       bool // keep the viewport pinned to the newest output
	dirty        bool
	confirmClear bool
	notice       string
	noticeIsErr  bool
	search       *searchView
	rendered     map[string]renderedMessage
	quitting     bool
	copyText     func(string) error
}

type searchView struct {
	pattern string
	results []history.SearchResult
}

// turnOpenedMsg reports the result of opening a turn's request.
type turnOpenedMsg struct {
	turn *query.Turn
	err  error
}

// streamEventMsg carries one event (or the terminal error) read from a turn.
type streamEventMsg struct {
	turn *query.Turn
	ev   sse.Event
	err  error
}

// New creates the chat model. ctx bounds every request and storage call
// made on behalf of the session.
func New(ctx context.Context, orch *query.Orchestrator, opts Options) *Model {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	styles := ui.DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	ta := textarea.New()
	ta.Placeholder = "Ask about the news..."
	ta.Prompt = "❯ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(width)
	ta.SetHeight(inputHeight)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(styles.Theme().Muted)
	ta.FocusedStyle.EndOfBuffer = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(styles.Theme().Primary).Bold(true)
	ta.BlurredStyle = ta.FocusedStyle
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetValue(opts.InitialText)
	ta.Focus()

	category := opts.Category
	if category == "" || !news.ValidCategory(category) {
		category = "all"
	}

	m := &Model{
		ctx:      ctx,
		orch:     orch,
		log:      opts.Logger,
		styles:   styles,
		keyMap:   DefaultKeyMap(),
		textarea: ta,
		viewport: viewport.New(width, viewportHeight(height)),
		spinner:  s,
		width:    width,
		height:   height,
		category: category,
		dateFrom: opts.DateFrom,
		dateTo:   opts.DateTo,
		follow:   true,
		dirty:    true,
		rendered: make(map[string]renderedMessage),
		copyText: opts.CopyText,
	}
	if m.copyText == nil {
		m.copyText = clipboard.CopyText
	}
	orch.OnChange = func(string) { m.dirty = true }
	m.refresh()
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textarea.SetWidth(m.width)
		m.viewport.Width = m.width
		m.viewport.Height = viewportHeight(m.height)
		m.dirty = true

	case tea.KeyMsg:
		model, cmd := m.handleKeyMsg(msg)
		m.refresh()
		return model, cmd

	case turnOpenedMsg:
		if msg.err != nil {
			m.orch.Finish(m.ctx, msg.turn, msg.err)
			break
		}
		m.orch.Opened(msg.turn)
		cmds = append(cmds, listen(msg.turn))

	case streamEventMsg:
		if msg.err != nil {
			m.orch.Finish(m.ctx, msg.turn, msg.err)
			break
		}
		if m.orch.Apply(m.ctx, msg.turn, msg.ev) {
			cmds = append(cmds, listen(msg.turn))
		}

	case spinner.TickMsg:
		if m.orch.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.dirty = true
		}

	default:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		return m.handleConfirmClear(msg)
	}
	// Notices last until the next key press.
	m.setNotice("", false)

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.orch.Cancel()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Cancel):
		if m.search != nil {
			m.search = nil
			m.dirty = true
			return m, nil
		}
		if m.orch.Busy() {
			m.orch.Cancel()
			m.setNotice("Stopped.", false)
			m.dirty = true
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Send):
		return m.submit(false)

	case key.Matches(msg, m.keyMap.Replace):
		return m.submit(true)

	case key.Matches(msg, m.keyMap.Newline):
		m.textarea.InsertString("\n")
		return m, nil

	case key.Matches(msg, m.keyMap.Category):
		m.category = nextCategory(m.category)
		m.setNotice("Category: "+m.category, false)
		return m, nil

	case key.Matches(msg, m.keyMap.Clear):
		m.askClear()
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmClear(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirmClear = false
	switch strings.ToLower(msg.String()) {
	case "y", "yes":
		err := m.orch.Clear(m.ctx, func() bool { return true })
		if err != nil {
			m.setNotice("Clear failed: "+err.Error(), true)
		} else {
			m.rendered = make(map[string]renderedMessage)
			m.setNotice("History cleared.", false)
		}
	default:
		m.setNotice("Kept history.", false)
	}
	return m, nil
}

func (m *Model) askClear() {
	m.confirmClear = true
	m.setNotice("Clear the whole conversation history? (y/n)", false)
}

// submit sends the input as a new question. With replace set, a running
// answer is abandoned first instead of refusing the question.
func (m *Model) submit(replace bool) (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}
	if strings.HasPrefix(input, "/") {
		m.textarea.Reset()
		return m.handleSlashCommand(input)
	}

	filters := transport.Filters{DateFrom: m.dateFrom, DateTo: m.dateTo}
	if m.category != "all" {
		filters.Category = m.category
	}

	var turn *query.Turn
	var err error
	if replace {
		turn, err = m.orch.Supersede(m.ctx, input, filters)
	} else {
		turn, err = m.orch.Submit(m.ctx, input, filters)
	}
	if errors.Is(err, query.ErrBusy) {
		m.setNotice("Still answering. esc to stop, ctrl+r to replace it.", true)
		return m, nil
	}
	if err != nil {
		m.setNotice(err.Error(), true)
		return m, nil
	}

	m.textarea.Reset()
	m.search = nil
	m.follow = true
	m.notice = ""
	return m, tea.Batch(open(turn), m.spinner.Tick)
}

func (m *Model) handleSlashCommand(input string) (tea.Model, tea.Cmd) {
	cmd, args, ok := parseCommand(input)
	if !ok {
		name, _, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
		if suggestion, found := suggestCommand(name); found {
			m.setNotice(fmt.Sprintf("Unknown command /%s. Did you mean /%s?", name, suggestion), true)
		} else {
			m.setNotice(fmt.Sprintf("Unknown command /%s. Try /help.", name), true)
		}
		return m, nil
	}

	switch cmd.Name {
	case "help":
		var parts []string
		for _, c := range AllCommands() {
			parts = append(parts, "/"+c.Name)
		}
		m.setNotice("Commands: "+strings.Join(parts, " "), false)
	case "clear":
		m.askClear()
	case "category":
		if args == "" {
			m.setNotice("Category: "+m.category+" (one of "+strings.Join(news.Categories, ", ")+")", false)
			break
		}
		if !news.ValidCategory(args) {
			m.setNotice("Unknown category "+args, true)
			break
		}
		m.category = args
		m.setNotice("Category: "+m.category, false)
	case "search":
		if args == "" {
			m.setNotice("Usage: "+cmd.Usage, true)
			break
		}
		m.search = &searchView{
			pattern: args,
			results: history.Search(m.orch.Store().Messages(), args, 20),
		}
		m.dirty = true
	case "copy":
		m.copyLastAnswer()
	case "export":
		m.export(args)
	case "stop":
		m.orch.Cancel()
		m.dirty = true
	case "quit":
		m.orch.Cancel()
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) export(path string) {
	if path == "" {
		path = "newsiq-conversation.md"
	}
	format, err := history.ParseFormat(filepath.Ext(path))
	if err != nil {
		m.setNotice(err.Error(), true)
		return
	}
	f, err := os.Create(path)
	if err != nil {
		m.setNotice("Export failed: "+err.Error(), true)
		return
	}
	defer f.Close()

	msgs := m.orch.Store().Messages()
	if err := history.Export(f, msgs, format); err != nil {
		m.setNotice("Export failed: "+err.Error(), true)
		return
	}
	m.setNotice(fmt.Sprintf("Exported %d messages to %s", len(msgs), path), false)
}

// copyLastAnswer puts the latest answer on the clipboard with its
// citations resolved to links.
func (m *Model) copyLastAnswer() {
	msgs := m.orch.Store().Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != history.RoleAssistant || msg.Content == "" {
			continue
		}
		text := cite.Resolve(msg.Content, msg.ArticleMapping, msg.Articles)
		if err := m.copyText(text); err != nil {
			m.setNotice("Copy failed: "+err.Error(), true)
			return
		}
		m.setNotice("Copied answer to clipboard", false)
		return
	}
	m.setNotice("Nothing to copy yet", true)
}

func (m *Model) setNotice(s string, isErr bool) {
	m.notice = s
	m.noticeIsErr = isErr
}

// refresh re-renders the conversation into the viewport when it changed,
// scrolling to the bottom while following.
func (m *Model) refresh() {
	if !m.dirty {
		return
	}
	m.dirty = false
	m.viewport.SetContent(m.renderBody())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// Quitting reports whether the user asked to leave.
func (m *Model) Quitting() bool {
	return m.quitting
}

func open(t *query.Turn) tea.Cmd {
	return func() tea.Msg {
		return turnOpenedMsg{turn: t, err: t.Open()}
	}
}

func listen(t *query.Turn) tea.Cmd {
	return func() tea.Msg {
		ev, err := t.Recv()
		return streamEventMsg{turn: t, ev: ev, err: err}
	}
}

func nextCategory(current string) string {
	for i, c := range news.Categories {
		if c == current {
			return news.Categories[(i+1)%len(news.Categories)]
		}
	}
	return news.Categories[0]
}
