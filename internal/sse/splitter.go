package sse

import (
	"bytes"
	"strings"
)

const dataPrefix = "data: "

// Splitter accumulates raw stream bytes and cuts them into frames at blank
// lines ("\n\n" or "\r\n\r\n"). Bytes after the last delimiter are kept
// until a later Feed completes the frame.
type Splitter struct {
	buf []byte
}

// Feed appends p and returns the data payload of every frame completed by it.
// Frames without any data line are skipped.
func (s *Splitter) Feed(p []byte) []string {
	s.buf = append(s.buf, p...)

	var payloads []string
	consumed := 0
	for {
		i, n := blankLine(s.buf[consumed:])
		if i < 0 {
			break
		}
		if data, ok := frameData(s.buf[consumed : consumed+i]); ok {
			payloads = append(payloads, data)
		}
		consumed += i + n
	}
	if consumed > 0 {
		s.buf = append([]byte(nil), s.buf[consumed:]...)
	}
	return payloads
}

// blankLine finds the first line break followed by an empty line, with or
// without carriage returns. It returns the index of the break and the length
// of the delimiter, or -1 when b holds no complete delimiter yet.
func blankLine(b []byte) (int, int) {
	for off := 0; ; {
		j := bytes.IndexByte(b[off:], '\n')
		if j < 0 {
			return -1, 0
		}
		i := off + j
		rest := b[i+1:]
		switch {
		case len(rest) >= 1 && rest[0] == '\n':
			return i, 2
		case len(rest) >= 2 && rest[0] == '\r' && rest[1] == '\n':
			return i, 3
		}
		off = i + 1
	}
}

// Pending returns the number of buffered bytes not yet part of a complete frame.
func (s *Splitter) Pending() int {
	return len(s.buf)
}

// frameData joins the data lines of a frame with newlines.
func frameData(frame []byte) (string, bool) {
	var lines []string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if rest, ok := strings.CutPrefix(line, dataPrefix); ok {
			lines = append(lines, rest)
		}
	}
	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}
