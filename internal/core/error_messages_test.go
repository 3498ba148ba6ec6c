package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"wrapped in-progress sentinel", fmt.Errorf("start: %w", ErrImportInProgress), "RUN001"},
		{"run not found", fmt.Errorf("%w: abc", ErrRunNotFound), "RUN002"},
		{"too few fields", fmt.Errorf("line 4: %w", ErrTooFewFields), "SRC002"},
		{"cancelled", context.Canceled, "RUN003"},
		{"deadline", fmt.Errorf("insert: %w", context.DeadlineExceeded), "RUN004"},
		{"postgres foreign key", errors.New(`ERROR: insert or update on table "wards" violates foreign key constraint "wards_lga_id_fkey"`), "DB001"},
		{"sqlite foreign key", errors.New("FOREIGN KEY constraint failed"), "DB001"},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), "DB003"},
		{"missing postgres table", errors.New(`ERROR: relation "lgas" does not exist`), "DB005"},
		{"missing sqlite table", errors.New("no such table: lgas"), "DB005"},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), "DB006"},
		{"scanner overflow", errors.New("read line 12: bufio.Scanner: token too long"), "SRC001"},
		{"unknown", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrImportInProgress)
	want := "Another import is already running (Code: RUN001). Wait for the current import to finish, then try again"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(errors.New("no such table: wards")) {
		t.Error("IsUserFacing(schema error) = false, want true")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(unknown) = true, want false")
	}
}
