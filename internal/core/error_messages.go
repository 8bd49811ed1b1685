package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users quote the code; support staff look it up here.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Invalid mapping: The mapping definition is malformed
//	CFG002 - Unknown type: A field names a type with no converter
//	CFG003 - Unknown normalizer: A field names an unregistered normalizer
//	CFG004 - Invalid settings: Parser or field settings are inconsistent
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Unknown schema: No schema is registered under the key
//	SCH002 - Header not found: A column named by the mapping is missing from the header row
//	SCH003 - Import unsupported: The schema has no import table
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - Line too long: A line exceeds the configured maximum
//	SRC002 - Unknown encoding: The requested character set is not supported
//	SRC003 - File too large: The upload exceeds the size limit
//	SRC004 - No file: The request carried no file
//	SRC005 - Empty file: The file contains no lines
//	SRC006 - Read failed: The file could not be read to the end
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Missing column: A row has fewer columns than the mapping needs
//	MAP002 - Invalid value: A value could not be converted
//	MAP003 - Mapping crashed: A converter panicked
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - System busy: Too many jobs in progress
//	JOB002 - Cancelled: The request was cancelled
//	JOB003 - Timeout: The job ran out of time
//	JOB004 - Report not found: The report expired or never existed
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	DB002 - Unique constraint: This value must be unique but already exists
//	DB003 - Foreign key: Referenced record does not exist
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Deadlock: Database was busy with conflicting operations
//	DB007 - Undefined table: The import table does not exist
//	DB008 - Imports disabled: No database is configured
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original error.
//
// # Matching
//
// Sentinel and typed errors are matched first with errors.Is and errors.As,
// so wrapped errors keep their code. Errors from outside the module (driver
// messages, net errors) fall back to case-insensitive substring patterns.
// The first match wins in both lists.

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/csvmap/internal/mapping"
	"github.com/JonMunkholm/csvmap/internal/parser"
	"github.com/JonMunkholm/csvmap/internal/rowsource"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/store"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorMatch pairs a predicate on the error chain with its message.
type errorMatch struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func as[E error]() func(error) bool {
	return func(err error) bool {
		var target E
		return errors.As(err, &target)
	}
}

var errorMatches = []errorMatch{
	// Configuration
	{is(schema.ErrInvalidSpec), UserMessage{
		Message: "The mapping definition is invalid",
		Action:  "Fix the listed problems in the mapping file",
		Code:    "CFG001",
	}},
	{is(schema.ErrUnknownType), UserMessage{
		Message: "A field uses an unknown type",
		Action:  "Use one of the types listed by GET /api/types",
		Code:    "CFG002",
	}},
	{is(schema.ErrUnknownNormalizer), UserMessage{
		Message: "A field uses an unknown normalizer",
		Action:  "Remove the normalizer or use trim, upper, lower, clean or us_state",
		Code:    "CFG003",
	}},
	{is(ErrInvalidSettings), UserMessage{
		Message: "The parser settings are inconsistent",
		Action:  "Check the delimiter and quote settings",
		Code:    "CFG004",
	}},
	{as[*parser.ConfigError](), UserMessage{
		Message: "The parser settings are inconsistent",
		Action:  "Check the parallelism and buffer settings",
		Code:    "CFG004",
	}},
	{as[*mapping.ConfigError](), UserMessage{
		Message: "The mapping definition is invalid",
		Action:  "Check that every field has a unique name and a valid column",
		Code:    "CFG001",
	}},

	// Schema
	{is(ErrUnknownSchema), UserMessage{
		Message: "Unknown schema",
		Action:  "Pick one of the schemas listed by GET /api/schemas",
		Code:    "SCH001",
	}},
	{is(schema.ErrUnknownHeader), UserMessage{
		Message: "Expected column not found in the header row",
		Action:  "Verify the column headers match the template",
		Code:    "SCH002",
	}},
	{is(ErrNoImportTarget), UserMessage{
		Message: "This schema cannot be imported",
		Action:  "Use parse instead, or choose a schema with a table",
		Code:    "SCH003",
	}},

	// Source
	{is(bufio.ErrTooLong), UserMessage{
		Message: "A line in the file is too long",
		Action:  "Check that the file uses normal line endings",
		Code:    "SRC001",
	}},
	{is(rowsource.ErrUnknownEncoding), UserMessage{
		Message: "Unsupported character encoding",
		Action:  "Save the file as UTF-8 or choose a supported encoding",
		Code:    "SRC002",
	}},
	{is(ErrFileTooLarge), UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "SRC003",
	}},
	{is(ErrNoFile), UserMessage{
		Message: "No file was provided",
		Action:  "Please select a CSV file to upload",
		Code:    "SRC004",
	}},
	{is(ErrEmptyFile), UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a CSV file with data rows",
		Code:    "SRC005",
	}},

	// Job state comes before read failures: a cancelled read is a cancellation.
	{is(ErrTooManyJobs), UserMessage{
		Message: "System is busy processing other files",
		Action:  "Please wait a moment and try again",
		Code:    "JOB001",
	}},
	{is(context.Canceled), UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "JOB002",
	}},
	{is(context.DeadlineExceeded), UserMessage{
		Message: "Processing timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "JOB003",
	}},
	{is(ErrReportNotFound), UserMessage{
		Message: "Report not found",
		Action:  "The report may have expired. Please run the job again",
		Code:    "JOB004",
	}},

	{as[*rowsource.SourceError](), UserMessage{
		Message: "The file could not be read completely",
		Action:  "Check the file is not truncated and try again",
		Code:    "SRC006",
	}},

	// Mapping
	{is(mapping.ErrMissingColumn), UserMessage{
		Message: "A row is missing columns",
		Action:  "Ensure every row has all columns of the template",
		Code:    "MAP001",
	}},
	{is(mapping.ErrConversion), UserMessage{
		Message: "A value has the wrong format",
		Action:  "Download the failed rows to see which values were rejected",
		Code:    "MAP002",
	}},
	{is(parser.ErrWorkerPanic), UserMessage{
		Message: "Processing failed unexpectedly",
		Action:  "Please contact support with the error code",
		Code:    "MAP003",
	}},

	// Database
	{store.IsUniqueViolation, UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Remove duplicates from the file or the table and import again",
		Code:    "DB001",
	}},
	{store.IsForeignKeyViolation, UserMessage{
		Message: "Referenced record does not exist",
		Action:  "Ensure parent records are imported first",
		Code:    "DB003",
	}},
	{store.IsUndefinedTable, UserMessage{
		Message: "The import table does not exist",
		Action:  "Create the table or correct the schema's table name",
		Code:    "DB007",
	}},
	{is(ErrImportDisabled), UserMessage{
		Message: "Imports are disabled",
		Action:  "Configure DATABASE_URL to enable imports",
		Code:    "DB008",
	}},
}

// errorPattern defines a substring to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns cover errors that carry no sentinel, mostly driver and
// network messages. Specific patterns come before general ones.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Remove duplicates from the file or the table and import again",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure parent records are imported first",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB006",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "SRC003",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "SRC003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Processing timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "JOB003",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := svc.Parse(ctx, "missing", "a.csv", r)
//	msg := MapError(err)
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, em := range errorMatches {
		if em.match(err) {
			return em.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
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

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
