package query

import (
	"context"
	"sync"
	"time"

	"github.com/newsiq/newsiq/internal/sse"
	"github.com/newsiq/newsiq/internal/transport"
)

// Stream is an open query response.
type Stream interface {
	Recv() (sse.Event, error)
	Close() error
}

// Starter opens query streams.
type Starter interface {
	Start(ctx context.Context, req transport.Request) (Stream, error)
}

// StarterFunc adapts a function to Starter.
type StarterFunc func(ctx context.Context, req transport.Request) (Stream, error)

func (f StarterFunc) Start(ctx context.Context, req transport.Request) (Stream, error) {
	return f(ctx, req)
}

// FromClient returns a Starter backed by a transport client.
func FromClient(c *transport.Client) Starter {
	return StarterFunc(func(ctx context.Context, req transport.Request) (Stream, error) {
		s, err := c.Start(ctx, req)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// Turn is one submitted question and the stream answering it. Open, Recv
// and Close may be called off the event loop; everything that touches the
// conversation goes through the Orchestrator.
type Turn struct {
	gen         uint64
	Question    string
	Filters     transport.Filters
	AssistantID string
	StartedAt   time.Time

	starter Starter
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	stream Stream
	closed bool
}

// Open starts the request. It blocks until the response headers arrive.
func (t *Turn) Open() error {
	stream, err := t.starter.Start(t.ctx, transport.Request{
		Question: t.Question,
		Filters:  t.Filters,
	})
	if err != nil {
		if t.ctx.Err() != nil {
			return context.Canceled
		}
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		stream.Close()
		return context.Canceled
	}
	t.stream = stream
	return nil
}

// Recv returns the next event from the open stream.
func (t *Turn) Recv() (sse.Event, error) {
	t.mu.Lock()
	stream, closed := t.stream, t.closed
	t.mu.Unlock()
	if closed || stream == nil {
		return sse.Event{}, context.Canceled
	}
	return stream.Recv()
}

// Close aborts the turn's request. Safe to call more than once.
func (t *Turn) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	t.cancel()
	if t.stream != nil {
		t.stream.Close()
	}
}
