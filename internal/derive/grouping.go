package derive

import (
	"sort"
	"strconv"
	"strings"

	"vendor-ledger-service/internal/models"

	"github.com/shopspring/decimal"
)

// GroupAllVendors is the vendor-group value that ranks every vendor with no
// top-N cut.
const GroupAllVendors = "All Vendors"

// VendorTotal is one vendor's summed open amounts, split by overdue status.
type VendorTotal struct {
	VendorName string          `json:"vendorName"`
	Overdue    decimal.Decimal `json:"overdue"`
	NotOverdue decimal.Decimal `json:"notOverdue"`
	Total      decimal.Decimal `json:"total"`
}

// scopeAmount returns the sum the active scope ranks by.
func (vt *VendorTotal) scopeAmount(scope StatusScope) decimal.Decimal {
	switch scope {
	case ScopeOverdue:
		return vt.Overdue
	case ScopeNotOverdue:
		return vt.NotOverdue
	default:
		return vt.Total
	}
}

// GroupVendors sums open amounts per vendor, preserving first-seen order so
// downstream ranking has a stable tie-break.
func GroupVendors(invoices []*models.Invoice) []*VendorTotal {
	byName := make(map[string]*VendorTotal)
	var order []*VendorTotal

	for _, inv := range invoices {
		vt, ok := byName[inv.VendorName]
		if !ok {
			vt = &VendorTotal{VendorName: inv.VendorName}
			byName[inv.VendorName] = vt
			order = append(order, vt)
		}
		if inv.IsOverdue() {
			vt.Overdue = vt.Overdue.Add(inv.OpenAmount)
		} else {
			vt.NotOverdue = vt.NotOverdue.Add(inv.OpenAmount)
		}
		vt.Total = vt.Total.Add(inv.OpenAmount)
	}
	return order
}

// RankVendors sorts vendor totals descending by the active scope's sum.
// Ties keep first-seen order; callers needing a different determinism should
// sort by vendor name afterwards.
func RankVendors(groups []*VendorTotal, scope StatusScope) []*VendorTotal {
	ranked := make([]*VendorTotal, len(groups))
	copy(ranked, groups)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].scopeAmount(scope).GreaterThan(ranked[j].scopeAmount(scope))
	})
	return ranked
}

// SelectVendors computes the chart rows for a vendor group choice:
// "Top N" buckets, "All Vendors", or a specific vendor name. An explicit
// drill-down selection overrides the group entirely and reduces to that one
// vendor.
func SelectVendors(invoices []*models.Invoice, scope StatusScope, group, selectedVendor string) []*VendorTotal {
	groups := GroupVendors(invoices)

	if selectedVendor != "" {
		return keepVendors(groups, selectedVendor)
	}

	ranked := RankVendors(groups, scope)

	switch {
	case group == "" || group == GroupAllVendors:
		return ranked
	case strings.HasPrefix(group, "Top "):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(group, "Top ")))
		if err != nil || n <= 0 {
			return ranked
		}
		if n > len(ranked) {
			n = len(ranked)
		}
		return ranked[:n]
	default:
		return keepVendors(ranked, group)
	}
}

func keepVendors(groups []*VendorTotal, vendorName string) []*VendorTotal {
	var out []*VendorTotal
	for _, vt := range groups {
		if vt.VendorName == vendorName {
			out = append(out, vt)
		}
	}
	return out
}

// ToggleVendor implements the drill-down toggle: clicking the selected
// vendor again clears the selection.
func ToggleVendor(current, clicked string) string {
	if current == clicked {
		return ""
	}
	return clicked
}
