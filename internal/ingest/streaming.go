package ingest

// streaming.go wraps the raw upload byte stream before CSV decoding so the
// pipeline can survive real-world files without buffering them:
//
//   - skipBOM strips the UTF-8 byte order mark Windows tools prepend
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?' on the fly
//   - countingReader tracks bytes consumed for logging
//
// All three operate in O(buffer) memory regardless of file size.

import (
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkipper removes a leading UTF-8 BOM if present.
type bomSkipper struct {
	r       io.Reader
	checked bool
	held    []byte
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		buf := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, buf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n > 0 {
			held := buf[:n]
			if n == len(utf8BOM) && held[0] == utf8BOM[0] && held[1] == utf8BOM[1] && held[2] == utf8BOM[2] {
				held = nil
			}
			b.held = held
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
	}
	if len(b.held) > 0 {
		n := copy(p, b.held)
		b.held = b.held[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' as data streams
// through. Incomplete multi-byte sequences at a read boundary are carried
// over to the next read instead of being mangled.
type utf8Sanitizer struct {
	r       io.Reader
	carry   []byte
	done    bool
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.carry)
	s.carry = s.carry[:0]

	read, err := s.r.Read(p[n:])
	n += read
	if err == io.EOF {
		s.done = true
	}
	if n == 0 {
		return 0, err
	}

	out := s.sanitize(p[:n])
	if out == 0 && err == nil {
		// Everything read so far is a held-back partial sequence; recurse
		// so callers never observe a zero-byte non-EOF read.
		return s.Read(p)
	}
	return out, err
}

// sanitize rewrites data in place and returns the usable length. When not
// at EOF, a trailing partial rune is moved to carry for the next read.
func (s *utf8Sanitizer) sanitize(data []byte) int {
	write := 0
	for read := 0; read < len(data); {
		b := data[read]
		if b < utf8.RuneSelf {
			data[write] = b
			write++
			read++
			continue
		}
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !s.done && read+utf8.UTFMax > len(data) && utf8.RuneStart(b) {
				// Might be a rune split across reads.
				s.carry = append(s.carry, data[read:]...)
				return write
			}
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

// countingReader tracks how many bytes have been consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead reports the total consumed so far.
func (c *countingReader) BytesRead() int64 { return c.n }

// wrapStream layers BOM skipping, UTF-8 sanitization, and byte counting
// over an upload stream, in that order.
func wrapStream(r io.Reader) *countingReader {
	return &countingReader{r: &utf8Sanitizer{r: &bomSkipper{r: r}}}
}
