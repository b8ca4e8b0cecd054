// Package cite turns "Article N" citation markers in answer text into
// markdown links to the cited source articles.
package cite

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/newsiq/newsiq/internal/news"
)

var (
	markerPattern = regexp.MustCompile(`(?i)\bArticle\s+(\d+)\b`)

	titleEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	urlEscaper   = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29")
)

// Resolve rewrites every resolvable citation marker in text as
// [marker](url "title"). Markers whose number is not in mapping, whose
// article is missing, or whose article has no URL are left as they are.
func Resolve(text string, mapping map[int]int, articles []news.Article) string {
	if len(mapping) == 0 || text == "" {
		return text
	}
	byID := indexArticles(articles)

	return markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		a, ok := lookup(marker, mapping, byID)
		if !ok || a.URL == "" {
			return marker
		}
		var b strings.Builder
		b.WriteString("[")
		b.WriteString(marker)
		b.WriteString("](")
		b.WriteString(urlEscaper.Replace(a.URL))
		if a.Title != "" {
			b.WriteString(` "`)
			b.WriteString(titleEscaper.Replace(a.Title))
			b.WriteString(`"`)
		}
		b.WriteString(")")
		return b.String()
	})
}

// Source is a cited article with the number it is cited by.
type Source struct {
	Number  int
	Article news.Article
}

// Sources lists the articles mapping resolves to, ordered by citation number.
func Sources(mapping map[int]int, articles []news.Article) []Source {
	if len(mapping) == 0 {
		return nil
	}
	byID := indexArticles(articles)

	var out []Source
	for n, id := range mapping {
		if a, ok := byID[id]; ok {
			out = append(out, Source{Number: n, Article: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func indexArticles(articles []news.Article) map[int]news.Article {
	byID := make(map[int]news.Article, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
	}
	return byID
}

func lookup(marker string, mapping map[int]int, byID map[int]news.Article) (news.Article, bool) {
	m := markerPattern.FindStringSubmatch(marker)
	if m == nil {
		return news.Article{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return news.Article{}, false
	}
	id, ok := mapping[n]
	if !ok {
		return news.Article{}, false
	}
	a, ok := byID[id]
	return a, ok
}
