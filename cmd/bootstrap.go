package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/newsiq/newsiq/internal/config"
	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/logging"
	"github.com/newsiq/newsiq/internal/news"
	"github.com/newsiq/newsiq/internal/query"
	"github.com/newsiq/newsiq/internal/transport"
	"github.com/newsiq/newsiq/internal/ui"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func initThemeFromConfig(cfg *config.Config) error {
	theme, err := ui.ResolvePreset(cfg.Theme.Preset, ui.ThemeConfig{
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Success:   cfg.Theme.Success,
		Error:     cfg.Theme.Error,
		Warning:   cfg.Theme.Warning,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
		Spinner:   cfg.Theme.Spinner,
		UserMsgBg: cfg.Theme.UserMsgBg,
	})
	if err != nil {
		return err
	}
	ui.InitTheme(theme)
	return nil
}

// app bundles what every command that talks to the backend needs.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	kv    history.KV
	store *history.Store

	closeLog func() error
}

// newApp loads config, builds the logger and opens the conversation log.
// With toFile set, logs go to a file so they do not corrupt the TUI.
func newApp(ctx context.Context, toFile bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := initThemeFromConfig(cfg); err != nil {
		return nil, err
	}

	log, closeLog, err := newLogger(cfg, toFile)
	if err != nil {
		return nil, err
	}

	kv, err := history.OpenKV(cfg.History)
	if err != nil {
		// History is best-effort; keep working in memory for this run.
		log.Warn().Err(err).Str("backend", cfg.History.Backend).Msg("history unavailable, using memory")
		kv = history.NewMemoryKV()
	}

	store := history.NewStore(kv, log)
	store.Hydrate(ctx)
	log.Debug().Int("messages", store.Len()).Msg("history loaded")

	return &app{cfg: cfg, log: log, kv: kv, store: store, closeLog: closeLog}, nil
}

func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close history")
	}
	_ = a.closeLog()
}

func (a *app) orchestrator() *query.Orchestrator {
	client := transport.NewClient(a.cfg.API.BaseURL, httpClient(a.cfg), a.log)
	return query.New(a.store, query.FromClient(client), a.log)
}

// httpClient returns nil when no timeout is configured so each client
// applies its own default.
func httpClient(cfg *config.Config) *http.Client {
	if cfg.API.Timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: cfg.API.Timeout}
}

func newLogger(cfg *config.Config, toFile bool) (zerolog.Logger, func() error, error) {
	level := cfg.LogLevel
	if debugLog {
		level = "debug"
	}
	opts := logging.Options{Level: level, NoColor: noColor}
	if toFile {
		path, err := logFilePath(cfg)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		opts.File = path
	}
	log, closeLog, err := logging.New(opts)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return log, closeLog, nil
}

func logFilePath(cfg *config.Config) (string, error) {
	if cfg.LogFile != "" {
		return cfg.LogFile, nil
	}
	dir, err := config.GetStateDir()
	if err != nil {
		return "", fmt.Errorf("failed to get state dir: %w", err)
	}
	return filepath.Join(dir, "newsiq.log"), nil
}

// categoryFilters maps a category flag to request filters. "all" means no
// filter.
func categoryFilters(category string) (transport.Filters, error) {
	if category == "" || category == "all" {
		return transport.Filters{}, nil
	}
	if !news.ValidCategory(category) {
		return transport.Filters{}, fmt.Errorf("unknown category %q (valid: %v)", category, news.Categories)
	}
	return transport.Filters{Category: category}, nil
}

// dateFilters narrows f to articles published between the from and to days
// (YYYY-MM-DD, inclusive). Empty bounds are left open.
func dateFilters(f *transport.Filters, from, to string) error {
	start, err := parseDay(from, false)
	if err != nil {
		return err
	}
	end, err := parseDay(to, true)
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("--to %s is before --from %s", to, from)
	}
	if !start.IsZero() {
		f.DateFrom = &start
	}
	if !end.IsZero() {
		f.DateTo = &end
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
