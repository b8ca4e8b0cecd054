package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(url string) *Client {
	return NewClient(url, nil, zerolog.Nop())
}

func TestStartStreamsEvents(t *testing.T) {
	var got Request
	var rawFilters json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/query/stream" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Question string          `json:"question"`
			Filters  json.RawMessage `json:"filters"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		got.Question = body.Question
		rawFilters = body.Filters

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, content := range []string{"A", "AB", "ABC"} {
			fmt.Fprintf(w, "data: {\"type\":\"chunk\",\"content\":%q}\n\n", content)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Start(context.Background(), Request{Question: "what happened?"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer stream.Close()

	var contents []string
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Recv failed: %v", err)
		}
		contents = append(contents, ev.Content)
	}

	if got.Question != "what happened?" {
		t.Errorf("expected question to be sent, got %q", got.Question)
	}
	if string(rawFilters) != "{}" {
		t.Errorf("expected empty filters object, got %s", rawFilters)
	}
	if len(contents) != 3 || contents[2] != "ABC" {
		t.Errorf("expected three chunks ending in ABC, got %v", contents)
	}
}

func TestStartSendsCategory(t *testing.T) {
	var rawFilters json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Filters json.RawMessage `json:"filters"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		rawFilters = body.Filters
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Start(context.Background(), Request{
		Question: "q",
		Filters:  Filters{Category: "sports"},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	stream.Close()

	if string(rawFilters) != `{"category":"sports"}` {
		t.Errorf("unexpected filters %s", rawFilters)
	}
}

func TestStartStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Start(context.Background(), Request{Question: "q"})
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if terr.Kind != KindStatus || terr.StatusCode != http.StatusBadGateway {
		t.Errorf("unexpected error %+v", terr)
	}
	if terr.Error() != "query API error (status 502): backend down" {
		t.Errorf("unexpected message %q", terr.Error())
	}
}

func TestStartNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Start(context.Background(), Request{Question: "q"})
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != KindNoBody {
		t.Fatalf("expected no-body error, got %v", err)
	}
}

func TestStartNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Start(context.Background(), Request{Question: "q"})
	var terr *Error
	if !errors.As(err, &terr) || terr.Kind != KindNetwork {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCloseCancelsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"chunk\",\"content\":\"partial\"}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	stream, err := newTestClient(srv.URL).Start(context.Background(), Request{Question: "q"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	ev, err := stream.Recv()
	if err != nil || ev.Content != "partial" {
		t.Fatalf("expected partial chunk, got %+v, %v", ev, err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		done <- err
	}()

	if err := stream.Close(); err != nil {
		t.Logf("close: %v", err)
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled after Close, got %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestStartSendsDateRange(t *testing.T) {
	var body struct {
		Filters struct {
			DateFrom string `json:"date_from"`
			DateTo   string `json:"date_to"`
		} `json:"filters"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, "data: {\"type\":\"done\"}\n\n")
	}))
	defer srv.Close()

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 7, 23, 59, 59, 0, time.UTC)
	stream, err := newTestClient(srv.URL).Start(context.Background(), Request{
		Question: "q",
		Filters:  Filters{DateFrom: &from, DateTo: &to},
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	stream.Close()

	if body.Filters.DateFrom != "2024-05-01T00:00:00Z" || body.Filters.DateTo != "2024-05-07T23:59:59Z" {
		t.Errorf("unexpected date filters %+v", body.Filters)
	}
}
