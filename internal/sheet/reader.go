package sheet

// reader.go cleans up text input before it reaches the CSV parser:
//
//   - bomReader drops the UTF-8 byte order mark Windows tools prepend
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//
// Both work on the fly so the parser never sees the raw bytes.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sanitizeChunkSize is how many bytes utf8Sanitizer pulls per read.
const sanitizeChunkSize = 32 * 1024

// newTextReader wraps r with BOM removal and UTF-8 sanitization, in that order.
func newTextReader(r io.Reader) io.Reader {
	return newUTF8Sanitizer(newBOMReader(r))
}

// bomReader drops a leading UTF-8 BOM.
type bomReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: bufio.NewReader(r)}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if lead, err := b.r.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?'. A multi-byte sequence
// split across two underlying reads is held back until it is complete.
type utf8Sanitizer struct {
	r       io.Reader
	buf     []byte
	pending []byte // incomplete trailing sequence from the previous chunk
	out     []byte // sanitized bytes not yet returned
	err     error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, buf: make([]byte, sanitizeChunkSize)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		n, err := s.r.Read(s.buf)
		if err != nil {
			s.err = err
		}

		data := make([]byte, 0, len(s.pending)+n)
		data = append(data, s.pending...)
		data = append(data, s.buf[:n]...)

		keep := 0
		if s.err == nil {
			keep = incompleteTrailingBytes(data)
		}
		s.pending = append(s.pending[:0], data[len(data)-keep:]...)
		s.out = sanitizeUTF8(data[:len(data)-keep])
	}

	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// sanitizeUTF8 returns data with every invalid byte replaced by '?'.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[:size]...)
		}
		data = data[size:]
	}
	return out
}

// incompleteTrailingBytes returns how many bytes at the end of data start a
// multi-byte sequence that has not been completed yet.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the length of the UTF-8 sequence started by lead byte b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
