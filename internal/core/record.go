package core

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// fieldSeparator splits registry columns.
const fieldSeparator = ','

// minFields is the number of leading columns every data row must carry:
// unit name, ward name, LGA name, state name.
const minFields = 4

// ErrTooFewFields reports a data line without the four required columns.
var ErrTooFewFields = errors.New("too few fields")

// ParseLine splits one source line into trimmed fields.
//
// A double quote toggles quoted mode and is not copied into the field; a
// separator inside quotes is kept literally. A doubled quote inside a quoted
// field is NOT unescaped: `"a""b"` yields `ab`. The final field is always
// emitted, so an empty line yields one empty field.
func ParseLine(line string) []string {
	fields := make([]string, 0, 6)
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == fieldSeparator && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(fields, strings.TrimSpace(cur.String()))
}

// ParseRow converts split fields into a RawImportRow. The first four fields
// must be present and non-empty. Fields five and six, when non-empty, become
// the raw latitude and longitude.
func ParseRow(position int, fields []string) (RawImportRow, error) {
	if len(fields) < minFields {
		return RawImportRow{}, fmt.Errorf("line %d: %w: got %d, want at least %d",
			position, ErrTooFewFields, len(fields), minFields)
	}
	for i := 0; i < minFields; i++ {
		if fields[i] == "" {
			return RawImportRow{}, fmt.Errorf("line %d: %w: column %d is empty",
				position, ErrTooFewFields, i+1)
		}
	}

	row := RawImportRow{
		Position:  position,
		Name:      fields[0],
		WardName:  fields[1],
		LGAName:   fields[2],
		StateName: fields[3],
	}
	if len(fields) > 4 && fields[4] != "" {
		lat := fields[4]
		row.Lat = &lat
	}
	if len(fields) > 5 && fields[5] != "" {
		lng := fields[5]
		row.Lng = &lng
	}
	return row, nil
}

// RecordSet is a fully parsed registry source held in memory for a run.
type RecordSet struct {
	Rows      []RawImportRow
	Malformed []int // positions of discarded data lines
	BytesRead int64
}

// Total returns the number of non-blank data lines seen.
func (s *RecordSet) Total() int {
	return len(s.Rows) + len(s.Malformed)
}

// ReadRecords reads a whole registry source. The first line is a header and
// is discarded. Blank lines are ignored but still advance the position, so
// positions match data line numbers in the source file.
//
// Only I/O failures are returned as errors; malformed lines are recorded in
// the result.
func ReadRecords(r io.Reader) (*RecordSet, error) {
	lines := newLineScanner(r)
	set := &RecordSet{}

	if _, ok := lines.Next(); !ok {
		if err := lines.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return set, nil
	}

	position := 0
	for {
		line, ok := lines.Next()
		if !ok {
			break
		}
		position++

		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := ParseRow(position, ParseLine(line))
		if err != nil {
			set.Malformed = append(set.Malformed, position)
			continue
		}
		set.Rows = append(set.Rows, row)
	}

	if err := lines.Err(); err != nil {
		return nil, fmt.Errorf("read line %d: %w", position+1, err)
	}

	set.BytesRead = lines.BytesRead()
	return set, nil
}
