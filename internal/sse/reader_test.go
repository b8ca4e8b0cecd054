package sse

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const sampleStream = `data: {"type":"chunk","content":"Chips"}

data: {"type":"chunk","content":"Chips are scarce","articles":[{"id":42,"title":"Fab delays","source":"Wire","url":"https://x","published_at":"2024-05-01T00:00:00","category":"technology"}],"article_mapping":{"1":42}}

data: {"type":"chunk","content":"Chips are scarce (Article 1).","done":true}

data: {"type":"done"}

`

// pieceReader returns each piece from a separate Read call.
type pieceReader struct {
	pieces []string
}

func (p *pieceReader) Read(b []byte) (int, error) {
	if len(p.pieces) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.pieces[0])
	p.pieces[0] = p.pieces[0][n:]
	if p.pieces[0] == "" {
		p.pieces = p.pieces[1:]
	}
	return n, nil
}

func readAll(t *testing.T, r io.Reader) []Event {
	t.Helper()
	rd := NewReader(r, zerolog.Nop())
	var events []Event
	for {
		ev, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		events = append(events, ev)
	}
}

func TestReaderDecodesEvents(t *testing.T) {
	events := readAll(t, strings.NewReader(sampleStream))
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Type != TypeChunk || events[0].Content != "Chips" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	second := events[1]
	if len(second.Articles) != 1 || second.Articles[0].ID != 42 {
		t.Errorf("expected one article with id 42, got %+v", second.Articles)
	}
	if second.ArticleMapping[1] != 42 {
		t.Errorf("expected mapping 1->42, got %v", second.ArticleMapping)
	}
	if !events[2].Done {
		t.Errorf("expected done flag on third chunk")
	}
	if events[3].Type != TypeDone {
		t.Errorf("expected trailing done event, got %q", events[3].Type)
	}
}

func TestReaderSplitInvariance(t *testing.T) {
	whole := readAll(t, strings.NewReader(sampleStream))

	for i := 1; i < len(sampleStream); i++ {
		got := readAll(t, &pieceReader{pieces: []string{sampleStream[:i], sampleStream[i:]}})
		if !reflect.DeepEqual(got, whole) {
			t.Fatalf("split at %d: events differ\nwant %+v\ngot  %+v", i, whole, got)
		}
	}

	var bytewise []string
	for i := 0; i < len(sampleStream); i++ {
		bytewise = append(bytewise, sampleStream[i:i+1])
	}
	if got := readAll(t, &pieceReader{pieces: bytewise}); !reflect.DeepEqual(got, whole) {
		t.Fatalf("byte-at-a-time delivery produced different events")
	}
}

func TestReaderSkipsMalformedFrame(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"a\"}\n\n" +
		"data: {not json\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"ab\"}\n\n"

	rd := NewReader(strings.NewReader(stream), zerolog.Nop())
	var contents []string
	for {
		ev, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		contents = append(contents, ev.Content)
	}
	if !reflect.DeepEqual(contents, []string{"a", "ab"}) {
		t.Errorf("expected [a ab], got %v", contents)
	}
	if rd.Dropped() != 1 {
		t.Errorf("expected 1 dropped frame, got %d", rd.Dropped())
	}
}

func TestReaderDiscardsTrailingPartialFrame(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"a\"}\n\ndata: {\"type\":\"chunk\",\"content\":\"ab\"}"
	events := readAll(t, strings.NewReader(stream))
	if len(events) != 1 || events[0].Content != "a" {
		t.Errorf("expected only the complete frame, got %+v", events)
	}
}

func TestReaderPropagatesReadError(t *testing.T) {
	boom := errors.New("connection reset")
	rd := NewReader(io.MultiReader(
		strings.NewReader("data: {\"type\":\"error\",\"message\":\"x\"}\n\n"),
		&failingReader{err: boom},
	), zerolog.Nop())

	ev, err := rd.Next()
	if err != nil || ev.Type != TypeError || ev.Message != "x" {
		t.Fatalf("expected error event first, got %+v, %v", ev, err)
	}
	if _, err := rd.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestSplitterFraming(t *testing.T) {
	var s Splitter
	if got := s.Feed([]byte("data: one\r\ndata: two\r\n")); len(got) != 0 {
		t.Fatalf("expected no frames yet, got %v", got)
	}
	got := s.Feed([]byte("\n: comment only\n\nevent: x\ndata: three\n\n"))
	want := []string{"one\ntwo", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if s.Pending() != 0 {
		t.Errorf("expected empty buffer, got %d bytes", s.Pending())
	}
}

func TestReaderCRLFFraming(t *testing.T) {
	stream := "data: {\"type\":\"chunk\",\"content\":\"A\"}\r\n\r\n" +
		"data: {\"type\":\"chunk\",\"content\":\"AB\"}\r\n\r\n"

	whole := readAll(t, strings.NewReader(stream))
	if len(whole) != 2 || whole[1].Content != "AB" {
		t.Fatalf("expected two CRLF frames, got %+v", whole)
	}

	var pieces []string
	for i := 0; i < len(stream); i++ {
		pieces = append(pieces, stream[i:i+1])
	}
	if bytewise := readAll(t, &pieceReader{pieces: pieces}); !reflect.DeepEqual(whole, bytewise) {
		t.Errorf("byte-at-a-time delivery differs: %+v vs %+v", bytewise, whole)
	}
}
