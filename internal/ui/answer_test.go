package ui

import (
	"os"
	"strings"
	"testing"

	"github.com/newsiq/newsiq/internal/news"
)

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 8); got != "hello w…" {
		t.Errorf("expected %q, got %q", "hello w…", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := Truncate("日本語のニュース", 7); got != "日本語…" {
		t.Errorf("expected wide runes to count double, got %q", got)
	}
	if got := Truncate("x", 0); got != "" {
		t.Errorf("expected empty for zero width, got %q", got)
	}
}

func TestSourcesBlock(t *testing.T) {
	s := NewStylesWithTheme(os.Stdout, DefaultTheme())
	articles := []news.Article{
		{ID: 1, Title: "Rates hold", Source: "Wire", URL: "https://w/1"},
		{ID: 2, Title: "Cup final"},
	}

	got := SourcesBlock(s, map[int]int{2: 1, 1: 2}, articles, 80)
	first := strings.Index(got, "[1] Cup final")
	second := strings.Index(got, "[2] Rates hold · Wire")
	if first < 0 || second < 0 || first > second {
		t.Errorf("expected sources in citation order, got %q", got)
	}
	if !strings.Contains(got, "https://w/1") {
		t.Errorf("expected url line, got %q", got)
	}

	if got := SourcesBlock(s, nil, articles, 80); got != "" {
		t.Errorf("expected empty block without mapping, got %q", got)
	}
}

func TestRenderMarkdownFallsBackOnEmpty(t *testing.T) {
	if got := RenderMarkdown("", 80); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
	out := RenderAnswer("See Article 1", map[int]int{1: 5}, []news.Article{{ID: 5, Title: "T", URL: "https://t"}}, 80)
	if !strings.Contains(out, "Article 1") {
		t.Errorf("expected label in rendered answer, got %q", out)
	}
}
