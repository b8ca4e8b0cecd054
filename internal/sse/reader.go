package sse

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
)

const readSize = 32 * 1024

// Reader decodes events lazily from an SSE response body. It is not
// restartable; each response gets its own Reader.
type Reader struct {
	r       io.Reader
	log     zerolog.Logger
	split   Splitter
	pending []string
	buf     []byte
	err     error
	dropped int
}

// NewReader returns a Reader over r. Malformed frames are reported to log.
func NewReader(r io.Reader, log zerolog.Logger) *Reader {
	return &Reader{
		r:   r,
		log: log,
		buf: make([]byte, readSize),
	}
}

// Next returns the next decoded event. It returns io.EOF once the underlying
// reader is exhausted; a partial frame left at that point is discarded.
// Frames whose payload is not valid JSON are skipped.
func (r *Reader) Next() (Event, error) {
	for {
		for len(r.pending) > 0 {
			payload := r.pending[0]
			r.pending = r.pending[1:]

			var ev Event
			if err := json.Unmarshal([]byte(payload), &ev); err != nil {
				r.dropped++
				r.log.Warn().Err(err).Int("bytes", len(payload)).Msg("dropping malformed sse frame")
				continue
			}
			return ev, nil
		}

		if r.err != nil {
			return Event{}, r.err
		}

		n, err := r.r.Read(r.buf)
		if n > 0 {
			r.pending = r.split.Feed(r.buf[:n])
		}
		if err != nil {
			if err == io.EOF && r.split.Pending() > 0 {
				r.log.Debug().Int("bytes", r.split.Pending()).Msg("discarding incomplete trailing frame")
			}
			r.err = err
		}
	}
}

// Dropped reports how many frames failed to decode so far.
func (r *Reader) Dropped() int {
	return r.dropped
}
