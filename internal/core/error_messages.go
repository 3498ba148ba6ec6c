package core

// error_messages.go maps technical failures to stable, user-facing messages.
//
// Codes are grouped by category and quoted by operators in support requests:
//
//	DB001  foreign key violation (hierarchy written out of order)
//	DB002  unique constraint violation not covered by conflict-skip
//	DB003  database unreachable
//	DB004  connection interrupted
//	DB005  schema missing (migrations not applied)
//	DB006  database busy or locked
//	SRC001 registry line too long
//	SRC002 malformed registry row
//	SRC003 no file provided
//	SRC004 file too large
//	RUN001 another import is in progress
//	RUN002 run not found or expired
//	RUN003 run cancelled
//	RUN004 run timed out
//	ERR000 anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Stable reference for support
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgInProgress = UserMessage{
		Message: "Another import is already running",
		Action:  "Wait for the current import to finish, then try again",
		Code:    "RUN001",
	}
	msgRunNotFound = UserMessage{
		Message: "Import run not found",
		Action:  "The run may have expired. Start a new import",
		Code:    "RUN002",
	}
	msgCancelled = UserMessage{
		Message: "The import was cancelled",
		Action:  "Start a new import when ready",
		Code:    "RUN003",
	}
	msgTimedOut = UserMessage{
		Message: "The import timed out",
		Action:  "Check database load and try again",
		Code:    "RUN004",
	}
	msgMalformed = UserMessage{
		Message: "A registry row is missing required columns",
		Action:  "Each row needs unit, ward, LGA and state names",
		Code:    "SRC002",
	}
)

var errorPatterns = []errorPattern{
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "A row references a parent that does not exist",
			Action:  "Check that states are seeded; re-run migrations if needed",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A row conflicts with an existing record",
			Action:  "Check for duplicate codes in the registry",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again; rows already written are kept",
			Code:    "DB004",
		},
	},
	{
		pattern: "no such table",
		msg: UserMessage{
			Message: "The database schema is missing",
			Action:  "Run the migrate command before importing",
			Code:    "DB005",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The database schema is missing",
			Action:  "Run the migrate command before importing",
			Code:    "DB005",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "The database is busy",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "token too long",
		msg: UserMessage{
			Message: "A registry line is too long",
			Action:  "Check that the file uses newline-separated rows",
			Code:    "SRC001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Attach the registry file in the 'file' field",
			Code:    "SRC003",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the registry or raise IMPORT_MAX_FILE_SIZE",
			Code:    "SRC004",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Sentinel
// errors are matched first, then message patterns. Unknown errors map to
// ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	switch {
	case errors.Is(err, ErrImportInProgress):
		return msgInProgress
	case errors.Is(err, ErrRunNotFound):
		return msgRunNotFound
	case errors.Is(err, ErrTooFewFields):
		return msgMalformed
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimedOut
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
