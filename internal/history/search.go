package history

import "github.com/sahilm/fuzzy"

// SearchResult is a message matching a search pattern.
type SearchResult struct {
	Message        Message
	Index          int   // position in the log
	Score          int   // higher is better
	MatchedIndexes []int // byte offsets of matched characters in Content
}

// messageSource adapts a message slice for fuzzy matching on content.
type messageSource []Message

func (s messageSource) String(i int) string { return s[i].Content }
func (s messageSource) Len() int            { return len(s) }

// Search fuzzy-matches pattern against message contents, best first.
// A limit of 0 returns every match.
func Search(msgs []Message, pattern string, limit int) []SearchResult {
	if pattern == "" {
		return nil
	}
	matches := fuzzy.FindFrom(pattern, messageSource(msgs))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		results[i] = SearchResult{
			Message:        msgs[m.Index],
			Index:          m.Index,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return results
}
