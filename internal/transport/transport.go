package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/newsiq/newsiq/internal/sse"
	"github.com/rs/zerolog"
)

const streamPath = "/api/query/stream"

// defaultHTTPClient bounds a whole streamed answer, not a single read.
var defaultHTTPClient = &http.Client{
	Timeout: 10 * time.Minute,
}

// Filters narrows the articles the backend retrieves from. Zero fields are
// omitted, so an empty Filters is sent as {}.
type Filters struct {
	Category string     `json:"category,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// Request is the body of a streamed query.
type Request struct {
	Question string  `json:"question"`
	Filters  Filters `json:"filters"`
}

// Kind classifies transport failures.
type Kind int

const (
	KindNetwork Kind = iota
	KindStatus
	KindNoBody
)

// Error is a failure of the request itself, as opposed to an error event
// sent inside the stream.
type Error struct {
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Body == "" {
			return fmt.Sprintf("query API error (status %d)", e.StatusCode)
		}
		return fmt.Sprintf("query API error (status %d): %s", e.StatusCode, e.Body)
	case KindNoBody:
		return "query API returned no response body"
	default:
		return fmt.Sprintf("query request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client issues streamed queries against one backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Client. A nil httpClient uses a shared client with a
// ten minute overall timeout.
func NewClient(baseURL string, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// Start sends req and returns the open event stream. The stream owns the
// connection until Close.
func (c *Client) Start(ctx context.Context, req Request) (*Stream, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	c.log.Debug().Str("url", httpReq.URL.String()).Int("question_len", len(req.Question)).Msg("starting query stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, &Error{Kind: KindNetwork, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		cancel()
		return nil, &Error{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		cancel()
		return nil, &Error{Kind: KindNoBody, StatusCode: resp.StatusCode}
	}

	return &Stream{
		ctx:    ctx,
		cancel: cancel,
		body:   resp.Body,
		reader: sse.NewReader(resp.Body, c.log),
	}, nil
}

// Stream yields the events of one query until io.EOF.
type Stream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	body      io.ReadCloser
	reader    *sse.Reader
	closeOnce sync.Once
}

// Recv returns the next event. After Close it returns context.Canceled.
func (s *Stream) Recv() (sse.Event, error) {
	if s.ctx.Err() != nil {
		return sse.Event{}, context.Canceled
	}
	ev, err := s.reader.Next()
	if err == nil {
		return ev, nil
	}
	if s.ctx.Err() != nil {
		return sse.Event{}, context.Canceled
	}
	if errors.Is(err, io.EOF) {
		return sse.Event{}, io.EOF
	}
	return sse.Event{}, &Error{Kind: KindNetwork, Err: err}
}

// Close aborts the request and releases the connection. It is safe to call
// concurrently with Recv and more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.cancel()
		err = s.body.Close()
	})
	return err
}
