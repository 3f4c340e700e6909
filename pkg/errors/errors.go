// Package errors defines the error taxonomy for the ledger service.
//
// Errors are grouped into categories that map onto the failure classes of the
// load pipeline: fatal load errors (bad file bytes, missing sheet, missing
// header) abort a load and carry a single human-readable message; storage
// errors are scoped to the attachment service and must never surface through
// the dashboard endpoints. Row-level rejections during extraction are not
// errors at all and never appear here.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Category groups errors by the subsystem that produced them.
type Category string

const (
	CategoryFile      Category = "file"
	CategoryWorkbook  Category = "workbook"
	CategoryExtract   Category = "extract"
	CategoryReference Category = "reference"
	CategoryStorage   Category = "storage"
	CategoryInternal  Category = "internal"
)

// Code identifies a specific error condition within a category.
type Code string

const (
	// File errors
	CodeFileCorrupted Code = "file_corrupted"
	CodeFileTooLarge  Code = "file_too_large"
	CodeFileEmpty     Code = "file_empty"

	// Workbook errors
	CodeSheetNotFound  Code = "sheet_not_found"
	CodeWorkbookFormat Code = "workbook_format"

	// Extract errors
	CodeHeaderNotFound    Code = "header_not_found"
	CodeImplausibleColumn Code = "implausible_column"

	// Reference errors
	CodeReferenceUnavailable Code = "reference_unavailable"

	// Storage errors
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeNotFound           Code = "not_found"

	// Internal errors
	CodeUnexpectedError Code = "unexpected_error"
)

// LedgerError is the error type used across the service.
type LedgerError struct {
	Category   Category          `json:"category"`
	Code       Code              `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    map[string]string `json:"context,omitempty"`
	Cause      error             `json:"-"`
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// Fatal reports whether the error aborts a ledger load. Storage errors are
// scoped to the attachment panel and never fatal for the dashboard.
func (e *LedgerError) Fatal() bool {
	switch e.Category {
	case CategoryFile, CategoryWorkbook, CategoryExtract:
		return true
	}
	return false
}

// ExitCode maps the category to a CLI exit code.
func (e *LedgerError) ExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryWorkbook, CategoryExtract:
		return 3
	case CategoryReference:
		return 4
	case CategoryStorage:
		return 5
	default:
		return 1
	}
}

// WithContext attaches a key/value pair for diagnostics.
func (e *LedgerError) WithContext(key, value string) *LedgerError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches a remediation hint.
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// New creates a LedgerError without a cause.
func New(category Category, code Code, message string) *LedgerError {
	return &LedgerError{Category: category, Code: code, Message: message}
}

// Wrap creates a LedgerError around an existing error. Returns nil when err
// is nil so it can be used in straight-line return statements.
func Wrap(err error, category Category, code Code, message string) *LedgerError {
	if err == nil {
		return nil
	}
	return &LedgerError{Category: category, Code: code, Message: message, Cause: err}
}

// FileError builds a fatal error for unreadable or oversized file bytes.
func FileError(code Code, name string, err error) *LedgerError {
	var message, suggestion string
	switch code {
	case CodeFileCorrupted:
		message = fmt.Sprintf("could not read spreadsheet '%s': file appears corrupted or is not an Excel workbook", name)
		suggestion = "re-export the file from the source system and upload it again"
	case CodeFileTooLarge:
		message = fmt.Sprintf("file '%s' exceeds the upload size limit", name)
		suggestion = "upload a file under the configured size limit"
	case CodeFileEmpty:
		message = fmt.Sprintf("file '%s' contains no data", name)
		suggestion = "check that the export completed before uploading"
	default:
		message = fmt.Sprintf("file error reading '%s'", name)
	}
	e := &LedgerError{Category: CategoryFile, Code: code, Message: message, Cause: err}
	return e.WithSuggestion(suggestion).WithContext("file", name)
}

// SheetNotFound builds the fatal error for a missing required sheet.
func SheetNotFound(sheet string) *LedgerError {
	return New(CategoryWorkbook, CodeSheetNotFound,
		fmt.Sprintf("sheet '%s' not found in workbook", sheet)).
		WithSuggestion("verify the export contains the expected sheet and that its name has not changed").
		WithContext("sheet", sheet)
}

// HeaderNotFound builds the fatal error for a missing header row.
func HeaderNotFound(marker string, scanned int) *LedgerError {
	return New(CategoryExtract, CodeHeaderNotFound,
		fmt.Sprintf("header '%s' not found in column A within the first %d rows", marker, scanned)).
		WithSuggestion("check that the export still carries its header row and the title block has not grown past the scan window").
		WithContext("marker", marker)
}

// ImplausibleColumn builds the fatal error raised when a key column fails the
// load-time plausibility check.
func ImplausibleColumn(column string, index int, reason string) *LedgerError {
	return New(CategoryExtract, CodeImplausibleColumn,
		fmt.Sprintf("column '%s' (index %d) does not look like %s data: %s", column, index, column, reason)).
		WithSuggestion("the spreadsheet layout may have shifted; confirm the column offsets against a sample file").
		WithContext("column", column).
		WithContext("index", fmt.Sprintf("%d", index))
}

// StorageError wraps an attachment-store failure.
func StorageError(operation string, err error) *LedgerError {
	e := Wrap(err, CategoryStorage, CodeStorageUnavailable,
		fmt.Sprintf("attachment storage failed during %s", operation))
	return e.WithSuggestion("retry once the attachment store is reachable").
		WithContext("operation", operation)
}

// AsLedgerError extracts a LedgerError from an error chain.
func AsLedgerError(err error) (*LedgerError, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// UserMessage returns the single human-readable message for a load failure.
// Non-ledger errors collapse into a generic corrupt-file message so internal
// detail never leaks to the dashboard.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if le, ok := AsLedgerError(err); ok {
		return le.Message
	}
	msg := err.Error()
	if strings.TrimSpace(msg) == "" {
		return "the uploaded file could not be processed"
	}
	return msg
}
