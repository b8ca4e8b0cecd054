package history

import (
	"encoding/json"
	"maps"
	"slices"
	"time"

	"github.com/newsiq/newsiq/internal/news"
	"github.com/oklog/ulid/v2"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TimestampLayout is the stored form of message timestamps: ISO-8601 in UTC
// with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Message is one turn in the conversation log.
type Message struct {
	ID             string
	Role           Role
	Content        string
	Articles       []news.Article
	ArticleMapping map[int]int
	Timestamp      time.Time
}

// NewID returns a new lexicographically sortable message id.
func NewID() string {
	return ulid.Make().String()
}

// NewUserMessage creates a user message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{
		ID:        NewID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantPlaceholder creates the empty assistant message a streamed
// answer is folded into.
func NewAssistantPlaceholder() Message {
	return Message{
		ID:        NewID(),
		Role:      RoleAssistant,
		Timestamp: time.Now(),
	}
}

func (m Message) clone() Message {
	m.Articles = slices.Clone(m.Articles)
	m.ArticleMapping = maps.Clone(m.ArticleMapping)
	return m
}

type storedMessage struct {
	ID             string         `json:"id"`
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	Articles       []news.Article `json:"articles,omitempty"`
	ArticleMapping map[int]int    `json:"articleMapping,omitempty"`
	Timestamp      string         `json:"timestamp"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(storedMessage{
		ID:             m.ID,
		Role:           m.Role,
		Content:        m.Content,
		Articles:       m.Articles,
		ArticleMapping: m.ArticleMapping,
		Timestamp:      m.Timestamp.UTC().Format(TimestampLayout),
	})
}

// UnmarshalJSON accepts any RFC 3339 timestamp. An unparsable timestamp is
// left zero rather than failing the whole log.
func (m *Message) UnmarshalJSON(data []byte) error {
	var s storedMessage
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ts, _ := time.Parse(time.RFC3339Nano, s.Timestamp)
	*m = Message{
		ID:             s.ID,
		Role:           s.Role,
		Content:        s.Content,
		Articles:       s.Articles,
		ArticleMapping: s.ArticleMapping,
		Timestamp:      ts,
	}
	return nil
}
