package core

// streaming.go provides the io.Reader wrappers an upload passes through
// before the CSV reader sees it:
//
//   - newBOMSkippingReader: drops the UTF-8 BOM (0xEF 0xBB 0xBF) spreadsheet
//     exports on Windows like to prepend
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - sizeLimitReader: fails with ErrFileTooLarge once a byte budget is spent
//
// Use wrapForDecode to apply them in the correct order.

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newBOMSkippingReader returns r with a leading UTF-8 BOM removed.
func newBOMSkippingReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly. Incomplete
// multi-byte sequences at a read boundary are held back until the next read.
type utf8Sanitizer struct {
	r       io.Reader
	chunk   []byte
	buf     []byte
	out     []byte // sanitized bytes not yet handed out
	pending []byte
	err     error
}

const sanitizerChunk = 4096

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		r:       r,
		chunk:   make([]byte, sanitizerChunk),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.chunk)
		s.err = err

		s.buf = append(s.buf[:0], s.pending...)
		s.buf = append(s.buf, s.chunk[:n]...)
		s.pending = s.pending[:0]
		s.out = s.buf[:s.sanitize(s.buf, err != nil)]
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// sanitize rewrites data in place and returns the number of bytes to hand out.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if data[read] < utf8.RuneSelf {
			data[write] = data[read]
			write++
			read++
			continue
		}

		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// sizeLimitReader counts bytes and fails once more than limit have been read.
type sizeLimitReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.read += int64(n)
	if l.limit > 0 && l.read > l.limit {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, l.limit)
	}
	return n, err
}

// wrapForDecode applies size limiting, BOM skipping and UTF-8 sanitization.
// A limit of zero or less disables the size check.
func wrapForDecode(r io.Reader, limit int64) io.Reader {
	limited := &sizeLimitReader{r: r, limit: limit}
	return newUTF8Sanitizer(newBOMSkippingReader(limited))
}
