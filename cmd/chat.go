package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/newsiq/newsiq/internal/news"
	"github.com/newsiq/newsiq/internal/signal"
	"github.com/newsiq/newsiq/internal/transport"
	"github.com/newsiq/newsiq/internal/tui/chat"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatCategory string
	chatFrom     string
	chatTo       string
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Start an interactive news chat",
	Long: `Open a full-screen chat. Answers stream in as they are generated and cite
the articles they draw on; the conversation is saved between runs.

Keys:
  enter      send          ctrl+r   replace the running answer
  esc        stop          tab      cycle category
  ctrl+l     clear history ctrl+c   quit

Slash commands: /help /clear /category /search /export /stop /quit

Examples:
  newsiq chat
  newsiq chat -c technology
  newsiq chat --from 2024-05-01          # only articles from May 1st on
  newsiq chat "what's new with the EU AI act?"`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatCategory, "category", "c", "", "Initial category filter ("+strings.Join(news.Categories, ", ")+")")
	chatCmd.Flags().StringVar(&chatFrom, "from", "", "Only use articles published on or after (YYYY-MM-DD)")
	chatCmd.Flags().StringVar(&chatTo, "to", "", "Only use articles published on or before (YYYY-MM-DD)")
	if err := chatCmd.RegisterFlagCompletionFunc("category", categoryCompletion); err != nil {
		panic("failed to register category completion: " + err.Error())
	}
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdout) {
		return errors.New("chat needs a terminal; use 'newsiq ask' for scripted queries")
	}

	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	category := chatCategory
	if category == "" {
		category = a.cfg.Defaults.Category
	}
	if _, err := categoryFilters(category); err != nil {
		return err
	}
	var dates transport.Filters
	if err := dateFilters(&dates, chatFrom, chatTo); err != nil {
		return err
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width, height = 80, 24
	}

	orch := a.orchestrator()
	model := chat.New(ctx, orch, chat.Options{
		Category:    category,
		DateFrom:    dates.DateFrom,
		DateTo:      dates.DateTo,
		InitialText: strings.Join(args, " "),
		Width:       width,
		Height:      height,
		Logger:      a.log,
	})

	a.log.Info().Str("base_url", a.cfg.API.BaseURL).Str("category", category).Msg("chat started")
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	orch.Cancel()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

func categoryCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, c := range news.Categories {
		if strings.HasPrefix(c, toComplete) {
			out = append(out, c)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
