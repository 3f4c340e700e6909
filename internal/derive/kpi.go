package derive

import (
	"sort"
	"strings"
	"time"

	"vendor-ledger-service/internal/models"

	"github.com/shopspring/decimal"
)

// KPIs are the headline aggregates computed over the predicate-filtered set.
type KPIs struct {
	OverdueAmount  decimal.Decimal `json:"overdueAmount"`
	OverdueVendors int             `json:"overdueVendors"`
	TotalVendors   int             `json:"totalVendors"`
	AvgDaysOverdue float64         `json:"avgDaysOverdue"`
}

// ComputeKPIs aggregates the filtered set: overdue amount sum, distinct
// overdue vendors, distinct vendors overall, and mean days-overdue across
// overdue records (0 when there are none).
func ComputeKPIs(invoices []*models.Invoice) *KPIs {
	kpis := &KPIs{}
	allVendors := make(map[string]bool)
	overdueVendors := make(map[string]bool)

	overdueCount := 0
	daysSum := 0
	for _, inv := range invoices {
		allVendors[inv.VendorName] = true
		if inv.IsOverdue() {
			overdueVendors[inv.VendorName] = true
			kpis.OverdueAmount = kpis.OverdueAmount.Add(inv.OpenAmount)
			daysSum += inv.DaysOverdue
			overdueCount++
		}
	}

	kpis.OverdueVendors = len(overdueVendors)
	kpis.TotalVendors = len(allVendors)
	if overdueCount > 0 {
		kpis.AvgDaysOverdue = float64(daysSum) / float64(overdueCount)
	}
	return kpis
}

// FilterOptions lists the selectable values derived from the loaded set,
// used to populate the dashboard sidebar.
type FilterOptions struct {
	VendorTypes   []string  `json:"vendorTypes"`
	BlockStatuses []string  `json:"blockStatuses"`
	Vendors       []string  `json:"vendors"`
	MinDueDate    time.Time `json:"minDueDate"`
	MaxDueDate    time.Time `json:"maxDueDate"`
}

// Options derives the distinct vendor types, block-status classes, vendor
// names and due-date bounds of the invoice set, each sorted.
func Options(invoices []*models.Invoice) *FilterOptions {
	opts := &FilterOptions{}
	types := make(map[string]bool)
	statuses := make(map[string]bool)
	vendors := make(map[string]bool)

	for _, inv := range invoices {
		types[inv.VendorType] = true
		statuses[string(inv.BlockStatus)] = true
		vendors[inv.VendorName] = true
		if opts.MinDueDate.IsZero() || inv.DueDate.Before(opts.MinDueDate) {
			opts.MinDueDate = inv.DueDate
		}
		if opts.MaxDueDate.IsZero() || inv.DueDate.After(opts.MaxDueDate) {
			opts.MaxDueDate = inv.DueDate
		}
	}

	opts.VendorTypes = sortedKeys(types)
	opts.BlockStatuses = sortedKeys(statuses)
	opts.Vendors = sortedKeys(vendors)
	return opts
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EmailExport returns all distinct, validated vendor and account email
// addresses in the set: lower-cased, de-duplicated and sorted, ready for the
// clipboard. Anything without an "@" is dropped.
func EmailExport(invoices []*models.Invoice) []string {
	seen := make(map[string]bool)
	for _, inv := range invoices {
		for _, raw := range []string{inv.VendorEmail, inv.AccountEmail} {
			email := strings.ToLower(strings.TrimSpace(raw))
			if email == "" || !strings.Contains(email, "@") {
				continue
			}
			seen[email] = true
		}
	}
	return sortedKeys(seen)
}
