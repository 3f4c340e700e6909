package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestLedgerError(t *testing.T) {
	tests := []struct {
		name       string
		category   Category
		code       Code
		message    string
		cause      error
		expectCode int
		fatal      bool
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileCorrupted,
			message:    "file corrupted",
			cause:      errors.New("zip: not a valid zip file"),
			expectCode: 2,
			fatal:      true,
		},
		{
			name:       "workbook error",
			category:   CategoryWorkbook,
			code:       CodeSheetNotFound,
			message:    "sheet missing",
			cause:      nil,
			expectCode: 3,
			fatal:      true,
		},
		{
			name:       "extract error",
			category:   CategoryExtract,
			code:       CodeHeaderNotFound,
			message:    "header missing",
			cause:      nil,
			expectCode: 3,
			fatal:      true,
		},
		{
			name:       "storage error is not fatal",
			category:   CategoryStorage,
			code:       CodeStorageUnavailable,
			message:    "store down",
			cause:      errors.New("connection refused"),
			expectCode: 5,
			fatal:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *LedgerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.ExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.ExitCode())
			}
			if err.Fatal() != tt.fatal {
				t.Errorf("expected fatal %v, got %v", tt.fatal, err.Fatal())
			}
			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
		})
	}
}

func TestErrorIncludesSuggestion(t *testing.T) {
	err := New(CategoryFile, CodeFileEmpty, "file is empty").
		WithSuggestion("re-export the file")
	if !strings.Contains(err.Error(), "re-export the file") {
		t.Errorf("expected suggestion in error string, got %s", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CategoryInternal, CodeUnexpectedError, "whatever") != nil {
		t.Error("expected Wrap(nil) to return nil")
	}
}

func TestAsLedgerError(t *testing.T) {
	le := SheetNotFound("Outstanding Invoices IB")
	wrapped := fmt.Errorf("loading failed: %w", le)

	got, ok := AsLedgerError(wrapped)
	if !ok {
		t.Fatal("expected to find LedgerError in chain")
	}
	if got.Code != CodeSheetNotFound {
		t.Errorf("expected sheet_not_found, got %s", got.Code)
	}

	if _, ok := AsLedgerError(errors.New("plain")); ok {
		t.Error("expected plain error not to match")
	}
}

func TestUserMessage(t *testing.T) {
	le := HeaderNotFound("VENDOR", 100)
	if got := UserMessage(le); got != le.Message {
		t.Errorf("expected the ledger message, got %q", got)
	}
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("expected plain message passthrough, got %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("expected empty message for nil, got %q", got)
	}
}

func TestConstructorContext(t *testing.T) {
	err := ImplausibleColumn("tax id", 1, "empty for all 25 sampled rows")
	if err.Context["column"] != "tax id" || err.Context["index"] != "1" {
		t.Errorf("expected context populated, got %v", err.Context)
	}
	if err.Suggestion == "" {
		t.Error("expected a remediation suggestion")
	}
}
