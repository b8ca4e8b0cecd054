package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/news"
	"github.com/newsiq/newsiq/internal/transport"
	"github.com/newsiq/newsiq/internal/ui"
)

func TestCategoryFilters(t *testing.T) {
	for _, c := range []string{"", "all"} {
		f, err := categoryFilters(c)
		if err != nil || f.Category != "" {
			t.Errorf("categoryFilters(%q) = %+v, %v; want no filter", c, f, err)
		}
	}

	f, err := categoryFilters("sports")
	if err != nil || f.Category != "sports" {
		t.Errorf("expected sports filter, got %+v, %v", f, err)
	}

	if _, err := categoryFilters("weather"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestWritePlainAnswer(t *testing.T) {
	m := history.Message{
		Role:    history.RoleAssistant,
		Content: "Prices rose (Article 1).",
		Articles: []news.Article{
			{ID: 7, Title: "Oil climbs", Source: "Wire", URL: "https://example.com/oil"},
		},
		ArticleMapping: map[int]int{1: 7},
	}

	var buf bytes.Buffer
	writePlainAnswer(&buf, m)
	out := buf.String()

	if !strings.Contains(out, `[Article 1](https://example.com/oil "Oil climbs")`) {
		t.Errorf("expected resolved citation, got:\n%s", out)
	}
	if !strings.Contains(out, "[1] Oil climbs - Wire") {
		t.Errorf("expected source line, got:\n%s", out)
	}
}

func TestWritePlainAnswerWithoutSources(t *testing.T) {
	var buf bytes.Buffer
	writePlainAnswer(&buf, history.Message{Content: "Nothing cited."})
	if buf.String() != "Nothing cited.\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestFormatArticleTable(t *testing.T) {
	items := []news.Article{
		{ID: 1, Title: strings.Repeat("Long headline ", 20), Source: "Reuters", PublishedAt: "2024-05-01T08:30:00", Category: "business"},
		{ID: 22, Title: "Short", Source: "AP"},
	}
	out := formatArticleTable(ui.DefaultStyles(), items, 80)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "2024-05-01") || !strings.Contains(lines[1], "…") {
		t.Errorf("expected date and truncated title in %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "22 ") || !strings.HasSuffix(lines[2], "Short") {
		t.Errorf("unexpected row %q", lines[2])
	}
}

func TestParseDay(t *testing.T) {
	start, err := parseDay("2024-05-01", false)
	if err != nil || !start.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v, %v", start, err)
	}
	end, err := parseDay("2024-05-01", true)
	if err != nil || end.Day() != 1 || end.Hour() != 23 {
		t.Errorf("unexpected end %v, %v", end, err)
	}
	if zero, err := parseDay("", false); err != nil || !zero.IsZero() {
		t.Errorf("expected zero time for empty flag")
	}
	if _, err := parseDay("05/01/2024", false); err == nil {
		t.Error("expected error for bad date")
	}
}

func TestDateFilters(t *testing.T) {
	var f transport.Filters
	if err := dateFilters(&f, "2024-05-01", "2024-05-07"); err != nil {
		t.Fatalf("dateFilters failed: %v", err)
	}
	if f.DateFrom == nil || !f.DateFrom.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected DateFrom %v", f.DateFrom)
	}
	if f.DateTo == nil || f.DateTo.Day() != 7 || f.DateTo.Hour() != 23 {
		t.Errorf("expected DateTo at end of May 7, got %v", f.DateTo)
	}

	var open transport.Filters
	if err := dateFilters(&open, "", ""); err != nil {
		t.Fatalf("dateFilters with no bounds failed: %v", err)
	}
	if open.DateFrom != nil || open.DateTo != nil {
		t.Errorf("expected no date bounds, got %+v", open)
	}

	if err := dateFilters(&transport.Filters{}, "2024-05-07", "2024-05-01"); err == nil {
		t.Error("expected error for reversed range")
	}
	if err := dateFilters(&transport.Filters{}, "May 1", ""); err == nil {
		t.Error("expected error for malformed date")
	}
}
