package sse

import "github.com/newsiq/newsiq/internal/news"

// Event types sent by the query backend.
const (
	TypeChunk = "chunk"
	TypeError = "error"
	TypeDone  = "done"
)

// Event is one decoded frame payload. Chunk events carry the full answer so
// far in Content, not a delta.
type Event struct {
	Type           string         `json:"type"`
	Content        string         `json:"content,omitempty"`
	Articles       []news.Article `json:"articles,omitempty"`
	ArticleMapping map[int]int    `json:"article_mapping,omitempty"`
	Message        string         `json:"message,omitempty"`
	Done           bool           `json:"done,omitempty"`
}
