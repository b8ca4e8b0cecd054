package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/newsiq/newsiq/internal/cite"
	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/signal"
	"github.com/newsiq/newsiq/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	askCategory string
	askFrom     string
	askTo       string
	askPlain    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask one question and print the cited answer",
	Long: `Send a single question, wait for the streamed answer and print it with its
sources. The exchange is added to the saved conversation like a chat turn.

Output is rendered as markdown on a terminal and printed as plain text with
inline links otherwise.

Examples:
  newsiq ask "what are markets doing today?"
  newsiq ask -c sports "who won the derby?"
  newsiq ask --from 2024-05-01 --to 2024-05-07 "what did the Fed say?"
  newsiq ask --plain "summarize tech news" > summary.md`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCategory, "category", "c", "", "Category filter")
	askCmd.Flags().StringVar(&askFrom, "from", "", "Only use articles published on or after (YYYY-MM-DD)")
	askCmd.Flags().StringVar(&askTo, "to", "", "Only use articles published on or before (YYYY-MM-DD)")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "Print plain text even on a terminal")
	if err := askCmd.RegisterFlagCompletionFunc("category", categoryCompletion); err != nil {
		panic("failed to register category completion: " + err.Error())
	}
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))

	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	category := askCategory
	if category == "" {
		category = a.cfg.Defaults.Category
	}
	filters, err := categoryFilters(category)
	if err != nil {
		return err
	}
	if err := dateFilters(&filters, askFrom, askTo); err != nil {
		return err
	}

	orch := a.orchestrator()
	turn, err := orch.Submit(ctx, question, filters)
	if err != nil {
		return err
	}

	isTTY := isTerminal(os.Stdout) && !askPlain
	styles := ui.NewStyles(os.Stderr)
	if isTTY {
		fmt.Fprint(os.Stderr, styles.Muted.Render("Searching the news..."))
	}
	runErr := orch.Run(ctx, turn)
	a.log.Debug().Dur("elapsed", time.Since(turn.StartedAt)).Msg("query finished")
	if isTTY {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, styles.Muted.Render("Interrupted."))
		return ctx.Err()
	}
	if runErr != nil {
		return runErr
	}

	answer, _ := a.store.Get(turn.AssistantID)
	if isTTY {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		fmt.Println(ui.RenderAnswer(answer.Content, answer.ArticleMapping, answer.Articles, width))
		if sources := ui.SourcesBlock(ui.DefaultStyles(), answer.ArticleMapping, answer.Articles, width); sources != "" {
			fmt.Println()
			fmt.Println(sources)
		}
		return nil
	}
	writePlainAnswer(os.Stdout, answer)
	return nil
}

// writePlainAnswer prints the answer with citations turned into links,
// followed by a numbered source list.
func writePlainAnswer(w io.Writer, m history.Message) {
	fmt.Fprintln(w, cite.Resolve(m.Content, m.ArticleMapping, m.Articles))
	sources := cite.Sources(m.ArticleMapping, m.Articles)
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, s := range sources {
		line := fmt.Sprintf("  [%d] %s", s.Number, s.Article.Title)
		if s.Article.Source != "" {
			line += " - " + s.Article.Source
		}
		fmt.Fprintln(w, line)
		if s.Article.URL != "" {
			fmt.Fprintf(w, "      %s\n", s.Article.URL)
		}
	}
}
