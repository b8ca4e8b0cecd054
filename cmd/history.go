package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/ui"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the saved conversation",
	Long: `Show, search, export or clear the conversation saved by chat and ask.

Examples:
  newsiq history                          # show the conversation
  newsiq history show -n 10
  newsiq history search "central bank"
  newsiq history export chat.html
  newsiq history clear`,
	RunE: runHistoryShow, // Default to show
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the conversation",
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search messages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

var historyExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Export the conversation as markdown, json or html",
	Long: `Export the conversation. The format follows --format, else the file
extension, else markdown. Without a path the export goes to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryExport,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the conversation (requires confirmation)",
	RunE:  runHistoryClear,
}

var (
	historyLimit        int
	historySearchLimit  int
	historyExportFormat string
	historyClearYes     bool
)

func init() {
	historyShowCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show only the last N messages")
	historySearchCmd.Flags().IntVarP(&historySearchLimit, "limit", "n", 20, "Maximum results")
	historyExportCmd.Flags().StringVarP(&historyExportFormat, "format", "f", "", "markdown, json or html")
	historyClearCmd.Flags().BoolVarP(&historyClearYes, "yes", "y", false, "Skip the confirmation prompt")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	msgs := a.store.Messages()
	if len(msgs) == 0 {
		fmt.Println("No saved conversation.")
		return nil
	}
	if historyLimit > 0 && historyLimit < len(msgs) {
		msgs = msgs[len(msgs)-historyLimit:]
	}

	styles := ui.DefaultStyles()
	for i, m := range msgs {
		if i > 0 {
			fmt.Println()
		}
		who := "You"
		if m.Role == history.RoleAssistant {
			who = "NewsIQ"
		}
		fmt.Printf("%s  %s\n", styles.Bold.Render(who), styles.Muted.Render(formatTimestamp(m)))
		if m.Role == history.RoleAssistant {
			writePlainAnswer(os.Stdout, m)
		} else {
			fmt.Println(m.Content)
		}
	}
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	pattern := strings.Join(args, " ")
	results := history.Search(a.store.Messages(), pattern, historySearchLimit)
	if len(results) == 0 {
		fmt.Printf("No messages match %q.\n", pattern)
		return nil
	}

	styles := ui.DefaultStyles()
	fmt.Println(styles.TableHeader.Render(fmt.Sprintf("%-5s %-10s %-17s %s", "#", "ROLE", "TIME", "MESSAGE")))
	for _, r := range results {
		snippet := strings.Join(strings.Fields(r.Message.Content), " ")
		fmt.Printf("%-5d %-10s %-17s %s\n",
			r.Index+1,
			r.Message.Role,
			formatTimestamp(r.Message),
			ui.Truncate(snippet, 70),
		)
	}
	return nil
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format := historyExportFormat
	if format == "" && len(args) == 1 {
		format = filepath.Ext(args[0])
	}
	f, err := history.ParseFormat(format)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 0 {
		return history.Export(os.Stdout, a.store.Messages(), f)
	}

	out, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", args[0], err)
	}
	if err := history.Export(out, a.store.Messages(), f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d messages to %s\n", a.store.Len(), args[0])
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.store.Len() == 0 {
		fmt.Println("No saved conversation.")
		return nil
	}

	confirm := func() bool {
		if historyClearYes {
			return true
		}
		return confirmClear(a.store.Len())
	}
	if !historyClearYes && !isTerminal(os.Stdin) {
		return errors.New("refusing to clear history without a terminal; pass --yes")
	}

	err = a.orchestrator().Clear(cmd.Context(), confirm)
	if errors.Is(err, history.ErrNotConfirmed) {
		fmt.Println("Aborted.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println(ui.DefaultStyles().FormatResult(true, "Conversation cleared."))
	return nil
}

func confirmClear(n int) bool {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete all %d saved messages?", n)).
				Description("This cannot be undone.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	).Run()
	return err == nil && ok
}

func formatTimestamp(m history.Message) string {
	if m.Timestamp.IsZero() {
		return "-"
	}
	return m.Timestamp.Local().Format("2006-01-02 15:04")
}
