package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newsiq/newsiq/internal/news"
	"github.com/newsiq/newsiq/internal/signal"
	"github.com/newsiq/newsiq/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Browse the articles the backend has indexed",
	Long: `List and read the articles answers are drawn from.

Examples:
  newsiq news                             # latest articles
  newsiq news list -c technology -q chips
  newsiq news list --from 2024-05-01 --to 2024-05-07
  newsiq news show 42`,
	RunE: runNewsList, // Default to list
}

var newsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List articles",
	RunE:  runNewsList,
}

var newsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one article",
	Args:  cobra.ExactArgs(1),
	RunE:  runNewsShow,
}

var (
	newsCategory string
	newsText     string
	newsSource   string
	newsFrom     string
	newsTo       string
	newsPage     int
	newsPageSize int
)

func init() {
	for _, c := range []*cobra.Command{newsCmd, newsListCmd} {
		c.Flags().StringVarP(&newsCategory, "category", "c", "", "Category filter")
		c.Flags().StringVarP(&newsText, "query", "q", "", "Text search")
		c.Flags().StringVar(&newsSource, "source", "", "Only articles from this source")
		c.Flags().StringVar(&newsFrom, "from", "", "Published on or after (YYYY-MM-DD)")
		c.Flags().StringVar(&newsTo, "to", "", "Published on or before (YYYY-MM-DD)")
		c.Flags().IntVar(&newsPage, "page", 1, "Page number")
		c.Flags().IntVar(&newsPageSize, "page-size", 20, "Articles per page (max 100)")
		if err := c.RegisterFlagCompletionFunc("category", categoryCompletion); err != nil {
			panic("failed to register category completion: " + err.Error())
		}
	}

	newsCmd.AddCommand(newsListCmd)
	newsCmd.AddCommand(newsShowCmd)
	rootCmd.AddCommand(newsCmd)
}

func newsClient() (*news.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := initThemeFromConfig(cfg); err != nil {
		return nil, err
	}
	return news.NewClient(cfg.API.BaseURL, httpClient(cfg)), nil
}

func runNewsList(cmd *cobra.Command, args []string) error {
	if newsCategory != "" && !news.ValidCategory(newsCategory) {
		return fmt.Errorf("unknown category %q (valid: %v)", newsCategory, news.Categories)
	}
	q := news.Query{
		Text:     newsText,
		Category: newsCategory,
		Source:   newsSource,
		Page:     newsPage,
		PageSize: newsPageSize,
	}
	var err error
	if q.From, err = parseDay(newsFrom, false); err != nil {
		return err
	}
	if q.To, err = parseDay(newsTo, true); err != nil {
		return err
	}

	client, err := newsClient()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	page, err := client.List(ctx, q)
	if err != nil {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Println("No articles found.")
		return nil
	}

	width := 100
	if isTerminal(os.Stdout) {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
	}
	fmt.Print(formatArticleTable(ui.DefaultStyles(), page.Items, width))

	pages := 1
	if page.PageSize > 0 {
		pages = (page.Total + page.PageSize - 1) / page.PageSize
	}
	fmt.Printf("\npage %d of %d (%d articles)\n", page.Page, max(pages, 1), page.Total)
	return nil
}

const (
	colID        = 6
	colPublished = 12
	colSource    = 18
	colCategory  = 11
)

// formatArticleTable lays articles out in fixed columns with the title
// taking the remaining width.
func formatArticleTable(styles *ui.Styles, items []news.Article, width int) string {
	titleWidth := max(width-colID-colPublished-colSource-colCategory-4, 20)

	var b strings.Builder
	header := ui.PadRight("ID", colID) + " " +
		ui.PadRight("PUBLISHED", colPublished) + " " +
		ui.PadRight("SOURCE", colSource) + " " +
		ui.PadRight("CATEGORY", colCategory) + " " +
		"TITLE"
	b.WriteString(styles.TableHeader.Render(header))
	b.WriteString("\n")

	for _, a := range items {
		published := "-"
		if t, ok := a.Published(); ok {
			published = t.Format("2006-01-02")
		}
		b.WriteString(ui.PadRight(strconv.Itoa(a.ID), colID) + " ")
		b.WriteString(ui.PadRight(published, colPublished) + " ")
		b.WriteString(ui.PadRight(ui.Truncate(a.Source, colSource), colSource) + " ")
		b.WriteString(ui.PadRight(ui.Truncate(a.Category, colCategory), colCategory) + " ")
		b.WriteString(ui.Truncate(a.Title, titleWidth))
		b.WriteString("\n")
	}
	return b.String()
}

func runNewsShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid article id %q", args[0])
	}

	client, err := newsClient()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context())
	defer stop()

	a, err := client.Get(ctx, id)
	if errors.Is(err, news.ErrNotFound) {
		return fmt.Errorf("no article with id %d", id)
	}
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	meta := []string{a.Source}
	if t, ok := a.Published(); ok {
		meta = append(meta, t.Format("Mon, 02 Jan 2006 15:04"))
	}
	if a.Category != "" {
		meta = append(meta, a.Category)
	}

	fmt.Println(styles.Title.Render(a.Title))
	fmt.Println(styles.Muted.Render(strings.Join(meta, " · ")))
	if a.URL != "" {
		fmt.Println(styles.Link.Render(a.URL))
	}
	if a.Content == "" {
		return nil
	}
	fmt.Println()
	if isTerminal(os.Stdout) {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		fmt.Println(ui.RenderMarkdown(a.Content, width))
		return nil
	}
	fmt.Println(a.Content)
	return nil
}

// parseDay parses a YYYY-MM-DD flag as a UTC day. With endOfDay set the
// result is the last instant of that day.
func parseDay(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
