package core

// streaming.go provides the reader chain the importer puts in front of
// encoding/csv. Nothing here buffers more than one read's worth of data:
//
//   - countingReader: counts bytes and hashes them for the run checksum
//   - bomSkippingReader: drops a leading UTF-8 BOM written by Excel
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with U+FFFD
//
// Use wrapForStreaming to apply them in the right order.

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const sanitizerBufSize = 32 * 1024

// utf8Sanitizer replaces each invalid byte with the replacement character.
// A multi-byte rune split across two reads is carried over, not replaced.
type utf8Sanitizer struct {
	r     io.Reader
	buf   []byte
	carry []byte // incomplete trailing rune from the previous read
	out   []byte // sanitized bytes not yet handed to the caller
	err   error
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, buf: make([]byte, sanitizerBufSize)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 && s.err == nil {
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	if len(s.out) == 0 && s.err != nil {
		return n, s.err
	}
	return n, nil
}

func (s *utf8Sanitizer) fill() {
	n, err := s.r.Read(s.buf)
	data := append(s.carry, s.buf[:n]...)
	s.carry = nil
	s.err = err

	end := len(data)
	if err == nil {
		end -= incompleteTail(data)
		if end < len(data) {
			s.carry = append([]byte(nil), data[end:]...)
		}
	}
	s.out = appendSanitized(s.out[:0], data[:end])
}

// incompleteTail returns how many trailing bytes of data start a rune whose
// remaining bytes have not arrived yet.
func incompleteTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		start := len(data) - i
		if utf8.RuneStart(data[start]) {
			if !utf8.FullRune(data[start:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

func appendSanitized(dst, data []byte) []byte {
	if utf8.Valid(data) {
		return append(dst, data...)
	}
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			dst = utf8.AppendRune(dst, utf8.RuneError)
		} else {
			dst = append(dst, data[:size]...)
		}
		data = data[size:]
	}
	return dst
}

// bomSkippingReader drops a UTF-8 BOM at the very start of the stream.
type bomSkippingReader struct {
	r       io.Reader
	checked bool
	head    []byte // bytes read while checking that were not a BOM
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: r}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var first [3]byte
		n, err := io.ReadFull(b.r, first[:])
		if n == 3 && bytes.Equal(first[:], utf8BOM) {
			n = 0
		}
		b.head = append(b.head, first[:n]...)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && len(b.head) == 0 {
			return 0, err
		}
	}
	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// countingReader tracks bytes read and their sha256.
type countingReader struct {
	r         io.Reader
	h         hash.Hash
	BytesRead int64
}

func newCountingReader(r io.Reader) *countingReader {
	return &countingReader{r: r, h: sha256.New()}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	c.h.Write(p[:n])
	return n, err
}

// Checksum returns the hex sha256 of everything read so far.
func (c *countingReader) Checksum() string {
	return hex.EncodeToString(c.h.Sum(nil))
}

// wrapForStreaming builds the reader chain. Counting sees the raw bytes so
// the checksum matches the file on disk; BOM removal has to happen before
// sanitizing.
func wrapForStreaming(r io.Reader) (io.Reader, *countingReader) {
	counter := newCountingReader(r)
	return newUTF8Sanitizer(newBOMSkippingReader(counter)), counter
}
