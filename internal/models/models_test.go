package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Lowercase", "b12345678", "B12345678"},
		{"Padded", "  B12345678  ", "B12345678"},
		{"Mixed case and padding", " esB-123 ", "ESB-123"},
		{"Empty", "", ""},
		{"Whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTaxID(tt.input); got != tt.want {
				t.Errorf("NormalizeTaxID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeFlag(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Yes", "Yes", FlagYes},
		{"Uppercase YES", "YES", FlagYes},
		{"Single Y", "y", FlagYes},
		{"Padded yes", "  yes ", FlagYes},
		{"No", "No", FlagNo},
		{"Empty means no", "", FlagNo},
		{"Anything else means no", "maybe", FlagNo},
		{"Numeric is not yes", "1", FlagNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFlag(tt.input); got != tt.want {
				t.Errorf("NormalizeFlag(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyBlockStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  BlockStatusClass
	}{
		{"Empty is free", "", BlockStatusFree},
		{"OK", "OK", BlockStatusFree},
		{"Free", "free", BlockStatusFree},
		{"Zero", "0", BlockStatusFree},
		{"Zero decimal", "0.0", BlockStatusFree},
		{"Free for payment", "Free for Payment", BlockStatusFree},
		{"One", "1", BlockStatusBlocked},
		{"One decimal", "1.0", BlockStatusBlocked},
		{"BFP code", "BFP", BlockStatusBlocked},
		{"Contains block", "Payment Block", BlockStatusBlocked},
		{"Blocked word", "BLOCKED", BlockStatusBlocked},
		{"Unknown code", "R", BlockStatusOther},
		{"Numeric other", "2", BlockStatusOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyBlockStatus(tt.input); got != tt.want {
				t.Errorf("ClassifyBlockStatus(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestClassifyCountry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CountryClass
	}{
		{"Spain", "Spain", CountryClassDomestic},
		{"Lowercase spain", "spain", CountryClassDomestic},
		{"Espana with tilde", "España", CountryClassDomestic},
		{"Country code", "ES", CountryClassDomestic},
		{"France", "France", CountryClassForeign},
		{"Germany", "germany", CountryClassForeign},
		{"Empty", "", CountryClassUnknown},
		{"Unknown sentinel", CountryUnknown, CountryClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyCountry(tt.input); got != tt.want {
				t.Errorf("ClassifyCountry(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInvoiceMarshalJSON(t *testing.T) {
	inv := &Invoice{
		ID:         "row-7",
		VendorName: "ACME S.L.",
		DueDate:    time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		OpenAmount: decimal.RequireFromString("1200.50"),
		Status:     StatusOverdue,
	}

	data, err := json.Marshal(inv)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)

	if !strings.Contains(got, `"openAmount":"1200.5"`) {
		t.Errorf("Expected amount rendered as string, got %s", got)
	}
	if !strings.Contains(got, `"dueDate":"2026-03-15"`) {
		t.Errorf("Expected plain-day due date, got %s", got)
	}
	if strings.Contains(got, "creditNotes") {
		t.Errorf("Expected creditNotes omitted when nil, got %s", got)
	}
}

func TestCreditNoteAggregateAdd(t *testing.T) {
	agg := &CreditNoteAggregate{TaxIDClean: "B12345678"}
	agg.Add("CN-1", decimal.RequireFromString("-100.50"))
	agg.Add("CN-2", decimal.Zero)

	if agg.Count != 2 {
		t.Errorf("Expected count 2, got %d", agg.Count)
	}
	if len(agg.Numbers) != 2 || agg.Numbers[0] != "CN-1" || agg.Numbers[1] != "CN-2" {
		t.Errorf("Expected note numbers in insertion order, got %v", agg.Numbers)
	}
	if agg.Total.String() != "-100.5" {
		t.Errorf("Expected total -100.5, got %s", agg.Total)
	}
}
