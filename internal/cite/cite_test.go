package cite

import (
	"testing"

	"github.com/newsiq/newsiq/internal/news"
)

var sample = []news.Article{
	{ID: 42, Title: "T", URL: "https://x"},
	{ID: 43, Title: `Say "hi"`, URL: "https://y/a b"},
	{ID: 44, Title: "No link"},
}

func TestResolveLinksKnownMarker(t *testing.T) {
	got := Resolve("See Article 2 for details", map[int]int{2: 42}, sample)
	want := `See [Article 2](https://x "T") for details`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestResolveLeavesUnknownMarker(t *testing.T) {
	in := "See Article 9 for details"
	if got := Resolve(in, map[int]int{2: 42}, sample); got != in {
		t.Errorf("expected unchanged text, got %q", got)
	}
}

func TestResolveKeepsOriginalLabel(t *testing.T) {
	got := Resolve("per ARTICLE   2.", map[int]int{2: 42}, sample)
	want := `per [ARTICLE   2](https://x "T").`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestResolveFallsBackToPlainText(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		mapping map[int]int
	}{
		{"article missing", "Article 1", map[int]int{1: 99}},
		{"no url", "Article 1", map[int]int{1: 44}},
		{"not a whole word", "Articles 1 and xArticle 1 and Article 1x", map[int]int{1: 42}},
		{"no digits", "Article one", map[int]int{1: 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Resolve(tc.text, tc.mapping, sample); got != tc.text {
				t.Errorf("expected unchanged %q, got %q", tc.text, got)
			}
		})
	}
}

func TestResolveEscapesTitleAndURL(t *testing.T) {
	got := Resolve("Article 3", map[int]int{3: 43}, sample)
	want := `[Article 3](https://y/a%20b "Say \"hi\"")`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestResolveIdentityWithoutMapping(t *testing.T) {
	inputs := []string{"", "plain text", "Article 1 and article 2", "[link](http://z)"}
	for _, in := range inputs {
		if got := Resolve(in, nil, sample); got != in {
			t.Errorf("nil mapping changed %q to %q", in, got)
		}
		if got := Resolve(in, map[int]int{}, sample); got != in {
			t.Errorf("empty mapping changed %q to %q", in, got)
		}
	}
}

func TestSourcesOrdered(t *testing.T) {
	got := Sources(map[int]int{3: 43, 1: 42, 2: 99}, sample)
	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got))
	}
	if got[0].Number != 1 || got[0].Article.ID != 42 || got[1].Number != 3 {
		t.Errorf("unexpected order: %+v", got)
	}
}
