// Package derive computes the dashboard views from the normalized invoice
// set: predicate filtering, vendor-amount aggregate filtering, vendor
// grouping and ranking, KPI aggregation and the email export.
//
// Everything here is a pure function over an immutable snapshot; recomputing
// on every filter change is the intended usage. Invalid filter input (an
// unparseable wildcard, a non-numeric threshold) never produces an error:
// the offending clause is treated as "no constraint".
package derive

import (
	"regexp"
	"strings"
	"time"

	"vendor-ledger-service/internal/cells"
	"vendor-ledger-service/internal/models"

	"github.com/shopspring/decimal"
)

// CountryFilter selects a country-class membership.
type CountryFilter string

const (
	CountryAll     CountryFilter = "All"
	CountrySpain   CountryFilter = "Spain"
	CountryForeign CountryFilter = "Foreign"
)

// StatusScope restricts a view to overdue or not-overdue invoices.
type StatusScope string

const (
	ScopeAll        StatusScope = "All Open"
	ScopeOverdue    StatusScope = "Overdue Only"
	ScopeNotOverdue StatusScope = "Not Overdue Only"
)

// AmountOp is the relation applied by the vendor-amount aggregate filter.
type AmountOp string

const (
	AmountAtLeast AmountOp = ">="
	AmountAtMost  AmountOp = "<="
	AmountEquals  AmountOp = "="
	AmountBetween AmountOp = "between"
)

// amountEpsilon is the tolerance for the equals relation.
var amountEpsilon = decimal.NewFromFloat(0.01)

// AmountFilter keeps only invoices whose vendor's total open amount (over
// the already-filtered set) satisfies the relation. Threshold fields are
// raw user input; unparseable values disable the clause.
type AmountFilter struct {
	Op        AmountOp `json:"op"`
	Threshold string   `json:"threshold,omitempty"`
	Min       string   `json:"min,omitempty"`
	Max       string   `json:"max,omitempty"`
}

// FilterState is the full set of user-chosen filter selections. Zero values
// mean "no constraint" throughout.
type FilterState struct {
	Country       CountryFilter `json:"country,omitempty"`
	DateFrom      *time.Time    `json:"dateFrom,omitempty"`
	DateTo        *time.Time    `json:"dateTo,omitempty"`
	VendorSearch  string        `json:"vendorSearch,omitempty"`
	InvoiceSearch string        `json:"invoiceSearch,omitempty"`
	VendorTypes   []string      `json:"vendorTypes,omitempty"`
	BlockStatuses []string      `json:"blockStatuses,omitempty"`
	Amount        *AmountFilter `json:"amount,omitempty"`
}

// Filter applies the predicate filter followed by the vendor-amount
// aggregate filter and returns the filtered view. The input slice is never
// modified.
func Filter(invoices []*models.Invoice, state *FilterState) []*models.Invoice {
	if state == nil {
		state = &FilterState{}
	}

	vendorMatch := compileWildcard(state.VendorSearch)
	invoiceMatch := compileWildcard(state.InvoiceSearch)
	typeSet := toSet(state.VendorTypes)
	statusSet := toSet(state.BlockStatuses)

	var out []*models.Invoice
	for _, inv := range invoices {
		if state.Country != "" && state.Country != CountryAll &&
			string(inv.CountryClass) != string(state.Country) {
			continue
		}
		if state.DateFrom != nil && !inv.DueDate.IsZero() &&
			cells.DaysBetween(*state.DateFrom, inv.DueDate) < 0 {
			continue
		}
		if state.DateTo != nil && !inv.DueDate.IsZero() &&
			cells.DaysBetween(*state.DateTo, inv.DueDate) > 0 {
			continue
		}
		if vendorMatch != nil && !vendorMatch(inv.VendorName) {
			continue
		}
		if invoiceMatch != nil && !invoiceMatch(inv.InvoiceNumber) {
			continue
		}
		if len(typeSet) > 0 && !typeSet[inv.VendorType] {
			continue
		}
		if len(statusSet) > 0 && !statusSet[string(inv.BlockStatus)] {
			continue
		}
		out = append(out, inv)
	}

	return applyAmountFilter(out, state.Amount)
}

// FilterByScope restricts a filtered set to the chosen status scope.
func FilterByScope(invoices []*models.Invoice, scope StatusScope) []*models.Invoice {
	switch scope {
	case ScopeOverdue:
		return keep(invoices, func(inv *models.Invoice) bool { return inv.IsOverdue() })
	case ScopeNotOverdue:
		return keep(invoices, func(inv *models.Invoice) bool { return !inv.IsOverdue() })
	default:
		return invoices
	}
}

// VisibleRows computes the table view: scope restriction plus the drill-down
// vendor restriction when one is selected.
func VisibleRows(invoices []*models.Invoice, scope StatusScope, selectedVendor string) []*models.Invoice {
	rows := FilterByScope(invoices, scope)
	if selectedVendor == "" {
		return rows
	}
	return keep(rows, func(inv *models.Invoice) bool { return inv.VendorName == selectedVendor })
}

func keep(invoices []*models.Invoice, pred func(*models.Invoice) bool) []*models.Invoice {
	var out []*models.Invoice
	for _, inv := range invoices {
		if pred(inv) {
			out = append(out, inv)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// compileWildcard turns a user search pattern into a matcher. `*` means "any
// substring"; every other regex metacharacter is escaped first so typed
// punctuation (e.g. "T.R.N.") keeps its literal meaning. Patterns without a
// star are literal substring matches. An empty or uncompilable pattern
// yields nil, meaning no constraint.
func compileWildcard(pattern string) func(string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}

	if !strings.Contains(pattern, "*") {
		needle := strings.ToLower(pattern)
		return func(s string) bool {
			return strings.Contains(strings.ToLower(s), needle)
		}
	}

	expr := "(?i)^" + strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*") + "$"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}
	return re.MatchString
}

// applyAmountFilter sums each vendor's open amount across the filtered set
// and keeps only records whose vendor total satisfies the relation. A nil
// filter or unparseable threshold leaves the set unchanged.
func applyAmountFilter(invoices []*models.Invoice, filter *AmountFilter) []*models.Invoice {
	pred := vendorTotalPredicate(filter)
	if pred == nil {
		return invoices
	}

	totals := make(map[string]decimal.Decimal)
	for _, inv := range invoices {
		totals[inv.VendorName] = totals[inv.VendorName].Add(inv.OpenAmount)
	}

	return keep(invoices, func(inv *models.Invoice) bool {
		return pred(totals[inv.VendorName])
	})
}

// vendorTotalPredicate builds the relation check, or nil when the filter is
// absent or its thresholds don't parse.
func vendorTotalPredicate(filter *AmountFilter) func(decimal.Decimal) bool {
	if filter == nil {
		return nil
	}

	parse := func(s string) (decimal.Decimal, bool) {
		d, err := cells.ParseAmount(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}

	switch filter.Op {
	case AmountAtLeast:
		threshold, ok := parse(filter.Threshold)
		if !ok {
			return nil
		}
		return func(total decimal.Decimal) bool { return total.GreaterThanOrEqual(threshold) }
	case AmountAtMost:
		threshold, ok := parse(filter.Threshold)
		if !ok {
			return nil
		}
		return func(total decimal.Decimal) bool { return total.LessThanOrEqual(threshold) }
	case AmountEquals:
		threshold, ok := parse(filter.Threshold)
		if !ok {
			return nil
		}
		return func(total decimal.Decimal) bool {
			return total.Sub(threshold).Abs().LessThanOrEqual(amountEpsilon)
		}
	case AmountBetween:
		min, hasMin := parse(filter.Min)
		max, hasMax := parse(filter.Max)
		if !hasMin && !hasMax {
			return nil
		}
		return func(total decimal.Decimal) bool {
			if hasMin && total.LessThan(min) {
				return false
			}
			if hasMax && total.GreaterThan(max) {
				return false
			}
			return true
		}
	default:
		return nil
	}
}
