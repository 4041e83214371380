package proto

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Line is one client line with its terminator stripped.
type Line struct {
	Text    string
	TooLong bool
}

// LineReader splits a byte stream into newline-terminated lines and flags
// lines longer than the configured limit instead of failing on them.
type LineReader struct {
	r     *bufio.Reader
	limit int
}

// NewLineReader wraps r. Lines longer than limit bytes are reported with TooLong set.
func NewLineReader(r io.Reader, limit int) *LineReader {
	return &LineReader{r: bufio.NewReader(r), limit: limit}
}

// Next returns the next line. A final unterminated line is returned before io.EOF.
func (lr *LineReader) Next() (Line, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := lr.r.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(strings.TrimRight(string(buf), "\r\n")) > lr.limit {
				tooLong = true
				buf = nil
			}
		}
		switch {
		case err == nil:
			return lr.finish(buf, tooLong), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && (len(buf) > 0 || tooLong):
			return lr.finish(buf, tooLong), nil
		default:
			return Line{}, err
		}
	}
}

func (lr *LineReader) finish(buf []byte, tooLong bool) Line {
	if tooLong {
		return Line{TooLong: true}
	}
	return Line{Text: strings.TrimRight(string(buf), "\r\n")}
}
