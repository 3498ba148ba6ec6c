package core

import (
	"strings"
	"testing"
)

func collectLines(s *lineScanner) []string {
	var out []string
	for {
		line, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, line)
	}
}

func TestLineScanner(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\nc,d")...),
			expected: []string{"a,b", "c,d"},
		},
		{
			name:     "file without BOM",
			input:    []byte("a,b\nc,d\n"),
			expected: []string{"a,b", "c,d"},
		},
		{
			name:     "CRLF terminators",
			input:    []byte("a,b\r\nc,d\r\n"),
			expected: []string{"a,b", "c,d"},
		},
		{
			name:     "BOM only stripped from first line",
			input:    append([]byte("a\n"), 0xEF, 0xBB, 0xBF, 'b'),
			expected: []string{"a", "\ufeffb"},
		},
		{
			name:     "invalid byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: []string{"he\ufffdlo"},
		},
		{
			name:     "valid multibyte kept",
			input:    []byte("Ìbàdàn"),
			expected: []string{"Ìbàdàn"},
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newLineScanner(strings.NewReader(string(tt.input)))
			got := collectLines(s)
			if err := s.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.expected, "|") || len(got) != len(tt.expected) {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
			if s.BytesRead() != int64(len(tt.input)) {
				t.Errorf("BytesRead = %d, want %d", s.BytesRead(), len(tt.input))
			}
		})
	}
}

func TestLineScanner_LineTooLong(t *testing.T) {
	s := newLineScanner(strings.NewReader(strings.Repeat("x", maxLineBytes+1)))
	if lines := collectLines(s); len(lines) != 0 {
		t.Fatalf("got %d lines, want 0", len(lines))
	}
	if s.Err() == nil {
		t.Fatal("expected an error for an oversized line")
	}
}
