package history

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"

	"github.com/newsiq/newsiq/internal/news"
	"github.com/rs/zerolog"
)

// StorageKey is the key the conversation log is stored under.
const StorageKey = "news_iq_chat_history"

// ErrNotConfirmed is returned by Clear when the caller has not confirmed.
var ErrNotConfirmed = errors.New("clearing history requires confirmation")

// Patch is a partial update to a message. Nil fields keep their current value.
type Patch struct {
	Content        *string
	Articles       []news.Article
	ArticleMapping map[int]int
}

// Store is the ordered conversation log, mirrored to a KV after every
// mutation. Writes are best-effort: failures are logged, never returned.
// Store is not safe for concurrent use; it belongs to one event loop.
type Store struct {
	kv       KV
	key      string
	log      zerolog.Logger
	messages []Message
	warned   map[string]bool
}

// NewStore creates an empty store backed by kv. Call Hydrate to load
// previously persisted messages.
func NewStore(kv KV, log zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		key:    StorageKey,
		log:    log,
		warned: make(map[string]bool),
	}
}

// Hydrate replaces the in-memory log with the persisted one. Missing or
// unreadable data yields an empty log.
func (s *Store) Hydrate(ctx context.Context) {
	s.messages = nil

	data, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.warnOnce("hydrate", err)
		return
	}
	if !ok || len(data) == 0 {
		return
	}

	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		s.log.Warn().Err(err).Msg("stored conversation is corrupt, starting empty")
		return
	}
	s.messages = msgs
	s.log.Debug().Int("messages", len(msgs)).Msg("conversation hydrated")
}

// Append adds m to the end of the log.
func (s *Store) Append(ctx context.Context, m Message) {
	s.messages = append(s.messages, m.clone())
	s.persist(ctx)
}

// UpdateLast applies p to the most recent message with the given id and
// reports whether one was found.
func (s *Store) UpdateLast(ctx context.Context, id string, p Patch) bool {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID != id {
			continue
		}
		m := &s.messages[i]
		if p.Content != nil {
			m.Content = *p.Content
		}
		if p.Articles != nil {
			m.Articles = slices.Clone(p.Articles)
		}
		if p.ArticleMapping != nil {
			m.ArticleMapping = maps.Clone(p.ArticleMapping)
		}
		s.persist(ctx)
		return true
	}
	return false
}

// Clear empties the log and deletes the persisted copy. It refuses to do
// anything unless confirmed is true.
func (s *Store) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	s.messages = nil
	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.warnOnce("clear", err)
	}
	return nil
}

// Messages returns a copy of the log. Citations are copied too, so callers
// cannot change stored messages except through UpdateLast.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// Get returns the message with the given id.
func (s *Store) Get(id string) (Message, bool) {
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == id {
			return s.messages[i].clone(), true
		}
	}
	return Message{}, false
}

func (s *Store) persist(ctx context.Context) {
	data, err := json.Marshal(s.messages)
	if err != nil {
		s.warnOnce("encode", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.warnOnce("persist", err)
	}
}

// warnOnce logs the first failure of each operation kind; later ones are
// logged at debug level.
func (s *Store) warnOnce(op string, err error) {
	if s.warned[op] {
		s.log.Debug().Err(err).Str("op", op).Msg("history storage failed")
		return
	}
	s.warned[op] = true
	s.log.Warn().Err(err).Str("op", op).Msg("history storage failed, continuing in memory")
}
