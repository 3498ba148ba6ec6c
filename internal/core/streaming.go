package core

// streaming.go prepares raw registry bytes for line splitting.
//
// Registry exports arrive from spreadsheet tools, so the reader has to cope
// with a leading UTF-8 byte order mark and the occasional invalid byte
// sequence. Invalid sequences are replaced rather than rejected so a single
// bad cell never aborts a national import.

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is the byte order mark some Windows tools prepend to UTF-8 files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxLineBytes bounds a single source line.
const maxLineBytes = 1 << 20

// countingReader tracks bytes consumed from the underlying source.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// lineScanner yields BOM-free, UTF-8 sanitized lines without their
// terminators.
type lineScanner struct {
	counter *countingReader
	scanner *bufio.Scanner
	first   bool
}

func newLineScanner(r io.Reader) *lineScanner {
	counter := &countingReader{r: r}
	sc := bufio.NewScanner(counter)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &lineScanner{counter: counter, scanner: sc, first: true}
}

// Next returns the next line, or false at end of input or on error.
func (s *lineScanner) Next() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	b := s.scanner.Bytes()
	if s.first {
		b = bytes.TrimPrefix(b, utf8BOM)
		s.first = false
	}
	b = bytes.TrimSuffix(b, []byte{'\r'})
	if utf8.Valid(b) {
		return string(b), true
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError)), true
}

// Err returns the first non-EOF error encountered.
func (s *lineScanner) Err() error {
	return s.scanner.Err()
}

// BytesRead returns the number of bytes consumed from the source so far.
func (s *lineScanner) BytesRead() int64 {
	return s.counter.n
}
