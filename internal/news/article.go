package news

import (
	"strings"
	"time"
)

// Categories the backend classifies articles into. "all" means no filter.
var Categories = []string{"all", "technology", "sports", "business", "general"}

// Article is a news article as returned by the backend, both in listings and
// as a cited source in a streamed answer.
type Article struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at"`
	Category    string `json:"category"`
	Content     string `json:"content,omitempty"`
}

// publishedLayouts covers RFC 3339 and the naive ISO form the backend emits
// for timestamps stored without a zone.
var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Published parses PublishedAt. Naive timestamps are read as UTC.
func (a Article) Published() (time.Time, bool) {
	s := strings.TrimSpace(a.PublishedAt)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
