// Package models defines the data model for the accounts-payable ledger:
// normalized invoices and credit-note aggregates, plus the normalization
// helpers (tax ids, gate flags, block status, country class) that every join
// and filter depends on.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel values used when reference data is absent.
const (
	VendorTypeUncategorized = "Uncategorized"
	CountryUnknown          = "Unknown"
)

// FlagYes and FlagNo are the only two values a gate flag normalizes to.
const (
	FlagYes = "Yes"
	FlagNo  = "No"
)

// CountryClass classifies a vendor's resolved country.
type CountryClass string

const (
	CountryClassDomestic CountryClass = "Spain"
	CountryClassForeign  CountryClass = "Foreign"
	CountryClassUnknown  CountryClass = "Unknown"
)

// BlockStatusClass is the display class derived from the raw block code.
type BlockStatusClass string

const (
	BlockStatusFree    BlockStatusClass = "Free for Payment"
	BlockStatusBlocked BlockStatusClass = "Blocked for Payment"
	BlockStatusOther   BlockStatusClass = "Other Block Status"
)

// InvoiceStatus marks an invoice as overdue or not relative to today.
type InvoiceStatus string

const (
	StatusOverdue    InvoiceStatus = "Overdue"
	StatusNotOverdue InvoiceStatus = "Not Overdue"
)

// CreditNoteInfo is the optional aggregate attached to an invoice after the
// credit-note merge. A nil pointer means "no credit note", which is distinct
// from a credit note of zero.
type CreditNoteInfo struct {
	Numbers []string        `json:"numbers"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// Invoice is a normalized, validated invoice record. Instances are immutable
// once built; the credit-note merge produces copies rather than mutating.
type Invoice struct {
	ID            string           `json:"id"`
	VendorName    string           `json:"vendorName"`
	TaxID         string           `json:"taxId"`
	TaxIDClean    string           `json:"taxIdClean"`
	DueDate       time.Time        `json:"dueDate"`
	OpenAmount    decimal.Decimal  `json:"openAmount"`
	InvoiceNumber string           `json:"invoiceNumber"`
	VendorEmail   string           `json:"vendorEmail"`
	AccountEmail  string           `json:"accountEmail"`
	Flags         [4]string        `json:"flags"`
	BlockStatus   BlockStatusClass `json:"blockStatus"`
	BusinessArea  string           `json:"businessArea"`

	VendorType   string       `json:"vendorType"`
	Country      string       `json:"country"`
	CountryClass CountryClass `json:"countryClass"`

	Status      InvoiceStatus `json:"status"`
	DaysOverdue int           `json:"daysOverdue"`

	CreditNotes *CreditNoteInfo `json:"creditNotes,omitempty"`
}

// String returns a short representation for logging.
func (inv *Invoice) String() string {
	return fmt.Sprintf("Invoice{ID: %s, Vendor: %s, TaxID: %s, Amount: %s, Due: %s, Status: %s}",
		inv.ID, inv.VendorName, inv.TaxIDClean, inv.OpenAmount.String(),
		inv.DueDate.Format("2006-01-02"), inv.Status)
}

// MarshalJSON renders amounts as strings and the due date as a plain day.
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	type Alias Invoice
	return json.Marshal(&struct {
		OpenAmount string `json:"openAmount"`
		DueDate    string `json:"dueDate"`
		*Alias
	}{
		OpenAmount: inv.OpenAmount.String(),
		DueDate:    inv.DueDate.Format("2006-01-02"),
		Alias:      (*Alias)(inv),
	})
}

// IsOverdue reports whether the invoice is past due.
func (inv *Invoice) IsOverdue() bool {
	return inv.Status == StatusOverdue
}

// CreditNoteAggregate accumulates credit-note rows for one tax id.
type CreditNoteAggregate struct {
	TaxIDClean string
	Numbers    []string
	Total      decimal.Decimal
	Count      int
}

// Add folds a single credit-note row into the aggregate.
func (a *CreditNoteAggregate) Add(number string, amount decimal.Decimal) {
	a.Numbers = append(a.Numbers, number)
	a.Total = a.Total.Add(amount)
	a.Count++
}

// NormalizeTaxID produces the join key used everywhere a tax id is compared:
// trimmed and upper-cased. Any join that skips this normalization silently
// fails, so nothing else in the codebase touches tax ids directly.
func NormalizeTaxID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeFlag collapses a yes/no indicator to exactly "Yes" or "No".
// "Yes" and "Y" in any casing mean yes; everything else, including empty,
// means no.
func NormalizeFlag(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y":
		return FlagYes
	default:
		return FlagNo
	}
}

// freeBlockCodes are raw block-status spellings that mean free for payment.
var freeBlockCodes = map[string]bool{
	"": true, "OK": true, "FREE": true, "0": true, "0.0": true,
	"FREE FOR PAYMENT": true,
}

// blockedBlockCodes are raw spellings that mean blocked, besides any code
// containing "BLOCK".
var blockedBlockCodes = map[string]bool{
	"1": true, "1.0": true, "BFP": true,
}

// ClassifyBlockStatus maps a raw block-status code onto its display class.
func ClassifyBlockStatus(raw string) BlockStatusClass {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if freeBlockCodes[code] {
		return BlockStatusFree
	}
	if strings.Contains(code, "BLOCK") || blockedBlockCodes[code] {
		return BlockStatusBlocked
	}
	return BlockStatusOther
}

// domesticSpellings are the country values that classify as domestic,
// compared case-insensitively.
var domesticSpellings = map[string]bool{
	"spain": true, "españa": true, "es": true,
}

// ClassifyCountry maps a resolved country name onto Domestic/Foreign/Unknown.
func ClassifyCountry(country string) CountryClass {
	lowered := strings.ToLower(strings.TrimSpace(country))
	if domesticSpellings[lowered] {
		return CountryClassDomestic
	}
	if lowered != "" && lowered != "unknown" {
		return CountryClassForeign
	}
	return CountryClassUnknown
}
