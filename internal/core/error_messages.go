package core

// error_messages.go maps technical errors to messages shown to users.
//
// # Error Codes Reference
//
// Users can quote the code to support staff. Codes by category:
//
//	FMT001 - File is not a readable spreadsheet (FormatError)
//	FMT002 - Unknown document format requested
//
//	ROW001 - A row failed for a reason with no specific code
//	         Rows that fail for a known reason keep that reason's code and
//	         name the row in the message.
//
//	VAL001 - Date column holds something other than a date
//	VAL002 - Number column holds something other than a number
//	VAL003 - Yes/no column holds something other than TRUE or FALSE
//	VAL004 - Cell has the wrong type for its column
//	VAL005 - Number does not fit the column
//	VAL006 - Value is not in the allowed list (UnresolvableValueError)
//
//	REF001 - Referenced record does not exist (UnresolvedReferenceError)
//
//	TYP001 - Record type has a property that cannot be exported
//	TYP002 - Record type is not registered
//	TYP003 - Export filter has a value the record type does not accept
//
//	FILE001 - File exceeds the upload size limit
//	FILE002 - No file was selected
//	FILE003 - The uploaded file is empty
//
//	IMP001 - Too many imports in progress
//	IMP002 - Request was cancelled
//	IMP003 - Request timed out
//
//	DB001 - Duplicate key
//	DB002 - Database unreachable
//
//	ERR000 - Anything else; check the logs for the technical error
//
// # Matching
//
// Typed errors (found with errors.As / errors.Is anywhere in the chain) are
// matched first. Remaining errors are matched by case-insensitive substring;
// the first matching pattern wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/xlport/internal/schema"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgInvalidDocument = UserMessage{
		Message: "The file is not a readable spreadsheet",
		Action:  "Upload an .xlsx or .csv file saved by a spreadsheet application",
		Code:    "FMT001",
	}
	msgRowFailed = UserMessage{
		Message: "A row could not be imported",
		Action:  "Fix the row and import the file again",
		Code:    "ROW001",
	}
	msgInvalidDate = UserMessage{
		Message: "Invalid date",
		Action:  "Enter the value as a spreadsheet date, for example 2024-01-31",
		Code:    "VAL001",
	}
	msgInvalidNumber = UserMessage{
		Message: "Invalid number",
		Action:  "Enter a plain number without text",
		Code:    "VAL002",
	}
	msgInvalidBoolean = UserMessage{
		Message: "Invalid yes/no value",
		Action:  "Enter TRUE or FALSE",
		Code:    "VAL003",
	}
	msgWrongCell = UserMessage{
		Message: "A cell has the wrong type for its column",
		Action:  "Check the value against the column's other rows",
		Code:    "VAL004",
	}
	msgOutOfRange = UserMessage{
		Message: "Number is too large or too small for its column",
		Action:  "Enter a smaller number",
		Code:    "VAL005",
	}
	msgNotAMember = UserMessage{
		Message: "Value is not in the allowed list",
		Action:  "Use one of the allowed values exactly as exported, including case",
		Code:    "VAL006",
	}
	msgUnresolvedReference = UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Keep reference columns as exported; export again if records were deleted",
		Code:    "REF001",
	}
	msgUnsupportedType = UserMessage{
		Message: "This record type cannot be converted to a spreadsheet",
		Action:  "Contact support; a property has an unsupported type",
		Code:    "TYP001",
	}
	msgUnknownType = UserMessage{
		Message: "Unknown record type",
		Action:  "Choose one of the listed record types",
		Code:    "TYP002",
	}
	msgInvalidFilter = UserMessage{
		Message: "The export filter is not valid",
		Action:  "Use the filter values listed for this record type",
		Code:    "TYP003",
	}
	msgTooManyImports = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "IMP002",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "IMP003",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages for errors with no typed match. Order matters: specific patterns
// come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "unknown document format",
		msg: UserMessage{
			Message: "Unknown file format",
			Action:  "Choose xlsx or csv",
			Code:    "FMT002",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a spreadsheet file to import",
			Code:    "FILE002",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row and data rows",
			Code:    "FILE003",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove the duplicate rows and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "invalid number",
		msg:     msgInvalidNumber,
	},
	{
		pattern: "invalid date",
		msg:     msgInvalidDate,
	},
	{
		pattern: "timeout",
		msg:     msgTimeout,
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// errors are matched first, then patterns; ERR000 is the fallback.
//
// A RowError keeps the code of its cause and names the row:
//
//	err := &RowError{Row: 2, Err: &UnresolvableValueError{Property: "category", Value: "Urgent"}}
//	msg := MapError(err)
//	// msg.Code == "VAL006"
//	// msg.Message == `Row 2: "Urgent" is not an allowed value for category`
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var rowErr *RowError
	if errors.As(err, &rowErr) {
		msg, ok := matchError(rowErr.Err)
		if !ok {
			msg = msgRowFailed
		}
		msg.Message = fmt.Sprintf("Row %d: %s", rowErr.Row, msg.Message)
		return msg
	}

	if msg, ok := matchError(err); ok {
		return msg
	}
	return defaultMessage
}

func matchError(err error) (UserMessage, bool) {
	if msg, ok := matchTyped(err); ok {
		return msg, true
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

func matchTyped(err error) (UserMessage, bool) {
	var (
		formatErr      *FormatError
		unsupportedErr *UnsupportedTypeError
		valueErr       *UnresolvableValueError
		refErr         *UnresolvedReferenceError
		cellErr        *CellTypeError
	)

	switch {
	case errors.As(err, &formatErr):
		return msgInvalidDocument, true
	case errors.As(err, &unsupportedErr):
		return msgUnsupportedType, true
	case errors.As(err, &valueErr):
		msg := msgNotAMember
		msg.Message = fmt.Sprintf("%q is not an allowed value for %s", valueErr.Value, valueErr.Property)
		return msg, true
	case errors.As(err, &refErr):
		msg := msgUnresolvedReference
		msg.Message = fmt.Sprintf("%s refers to a record that does not exist", refErr.Property)
		return msg, true
	case errors.As(err, &cellErr):
		switch cellErr.Want {
		case schema.KindDate.String():
			return msgInvalidDate, true
		case schema.KindInteger.String(), schema.KindDecimal.String():
			return msgInvalidNumber, true
		case schema.KindBoolean.String():
			return msgInvalidBoolean, true
		}
		return msgWrongCell, true
	case errors.Is(err, schema.ErrOutOfRange):
		return msgOutOfRange, true
	case errors.Is(err, ErrUnknownType):
		return msgUnknownType, true
	case errors.Is(err, ErrInvalidListParams):
		return msgInvalidFilter, true
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports, true
	case errors.Is(err, context.Canceled):
		return msgCancelled, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout, true
	}
	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
