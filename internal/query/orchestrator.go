// Package query drives a conversation: it turns submitted questions into
// streamed answers folded into the history store, one query at a time.
package query

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/newsiq/newsiq/internal/history"
	"github.com/newsiq/newsiq/internal/sse"
	"github.com/newsiq/newsiq/internal/transport"
	"github.com/rs/zerolog"
)

// State is the orchestrator's position in the query lifecycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateError
)

func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

var (
	ErrEmptyQuestion = errors.New("question is empty")
	ErrBusy          = errors.New("a query is already in progress")
)

// ErrorPrefix marks assistant messages that carry a failure instead of an answer.
const ErrorPrefix = "Error: "

// Orchestrator owns the query state machine for one conversation. Its
// methods must all be called from the same goroutine; only Turn methods run
// elsewhere. Every turn carries the generation it was started in, and events
// from a turn whose generation is no longer current are dropped.
type Orchestrator struct {
	store   *history.Store
	starter Starter
	log     zerolog.Logger

	state  State
	gen    uint64
	active *Turn
	err    error

	// OnChange, if set, is called with the id of a message after it changes.
	// Clear reports an empty id.
	OnChange func(id string)
}

// New creates an orchestrator over store.
func New(store *history.Store, starter Starter, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		starter: starter,
		log:     log,
	}
}

// State returns the current state.
func (o *Orchestrator) State() State { return o.state }

// Busy reports whether a query is in flight.
func (o *Orchestrator) Busy() bool {
	return o.state == StateSending || o.state == StateStreaming
}

// Err returns the failure of the last query, if it failed.
func (o *Orchestrator) Err() error {
	if o.state != StateError {
		return nil
	}
	return o.err
}

// Active returns the in-flight turn, or nil when idle.
func (o *Orchestrator) Active() *Turn {
	if !o.Busy() {
		return nil
	}
	return o.active
}

// Store returns the conversation store.
func (o *Orchestrator) Store() *history.Store { return o.store }

// Submit records question and an empty answer placeholder and returns the
// turn that will fill it. The caller opens and reads the turn.
func (o *Orchestrator) Submit(ctx context.Context, question string, filters transport.Filters) (*Turn, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if o.Busy() {
		return nil, ErrBusy
	}

	o.cancelActive()

	user := history.NewUserMessage(question)
	placeholder := history.NewAssistantPlaceholder()
	o.store.Append(ctx, user)
	o.store.Append(ctx, placeholder)

	turnCtx, cancel := context.WithCancel(ctx)
	t := &Turn{
		gen:         o.gen,
		Question:    question,
		Filters:     filters,
		AssistantID: placeholder.ID,
		StartedAt:   time.Now(),
		starter:     o.starter,
		ctx:         turnCtx,
		cancel:      cancel,
	}
	o.active = t
	o.state = StateSending
	o.err = nil

	o.log.Debug().Uint64("gen", t.gen).Str("category", filters.Category).Msg("query submitted")
	o.changed(placeholder.ID)
	return t, nil
}

// Supersede cancels any in-flight query, leaving its partial answer as it
// is, and submits question in its place.
func (o *Orchestrator) Supersede(ctx context.Context, question string, filters transport.Filters) (*Turn, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	o.Cancel()
	return o.Submit(ctx, question, filters)
}

// Cancel abandons the in-flight query. Its placeholder keeps whatever
// content it had.
func (o *Orchestrator) Cancel() {
	if o.active == nil {
		return
	}
	o.log.Debug().Uint64("gen", o.active.gen).Msg("query cancelled")
	o.cancelActive()
	if o.Busy() {
		o.state = StateIdle
	}
}

func (o *Orchestrator) cancelActive() {
	if o.active != nil {
		o.active.Close()
		o.active = nil
	}
	o.gen++
}

func (o *Orchestrator) current(t *Turn) bool {
	return t != nil && o.active == t && t.gen == o.gen
}

// Opened records that t's stream is open.
func (o *Orchestrator) Opened(t *Turn) {
	if !o.current(t) {
		return
	}
	o.state = StateStreaming
}

// Apply folds one event from t into the conversation. It returns false when
// the caller should stop reading t.
func (o *Orchestrator) Apply(ctx context.Context, t *Turn, ev sse.Event) bool {
	if !o.current(t) {
		return false
	}

	switch ev.Type {
	case sse.TypeChunk:
		o.state = StateStreaming
		content := ev.Content
		o.store.UpdateLast(ctx, t.AssistantID, history.Patch{
			Content:        &content,
			Articles:       ev.Articles,
			ArticleMapping: ev.ArticleMapping,
		})
		o.changed(t.AssistantID)
		return true
	case sse.TypeError:
		msg := ev.Message
		if msg == "" {
			msg = "the server reported an error"
		}
		o.fail(ctx, t, errors.New(msg))
		return false
	default:
		o.log.Debug().Str("type", ev.Type).Msg("ignoring stream event")
		return true
	}
}

// Finish ends t. A nil or io.EOF error is a normal end of stream; a
// cancellation is ignored; anything else is written into the answer.
func (o *Orchestrator) Finish(ctx context.Context, t *Turn, err error) {
	if !o.current(t) {
		return
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		o.active = nil
		t.Close()
		o.state = StateIdle
		return
	}
	o.fail(ctx, t, err)
}

func (o *Orchestrator) fail(ctx context.Context, t *Turn, err error) {
	o.active = nil
	t.Close()
	o.state = StateError
	o.err = err

	content := ErrorPrefix + err.Error()
	o.store.UpdateLast(ctx, t.AssistantID, history.Patch{Content: &content})
	o.log.Warn().Err(err).Uint64("gen", t.gen).Msg("query failed")
	o.changed(t.AssistantID)
}

// Clear erases the conversation after confirm returns true.
func (o *Orchestrator) Clear(ctx context.Context, confirm func() bool) error {
	if confirm == nil || !confirm() {
		return history.ErrNotConfirmed
	}
	o.Cancel()
	if err := o.store.Clear(ctx, true); err != nil {
		return err
	}
	o.state = StateIdle
	o.err = nil
	o.changed("")
	return nil
}

// Run drives t to completion on the calling goroutine and returns the
// query's failure, if any.
func (o *Orchestrator) Run(ctx context.Context, t *Turn) error {
	if err := t.Open(); err != nil {
		o.Finish(ctx, t, err)
		return o.Err()
	}
	o.Opened(t)

	for {
		ev, err := t.Recv()
		if err != nil {
			o.Finish(ctx, t, err)
			break
		}
		if !o.Apply(ctx, t, ev) {
			break
		}
	}
	return o.Err()
}

func (o *Orchestrator) changed(id string) {
	if o.OnChange != nil {
		o.OnChange(id)
	}
}
