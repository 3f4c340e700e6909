// Package reconciler joins aggregated credit notes onto normalized invoices
// by normalized tax id.
package reconciler

import (
	"vendor-ledger-service/internal/models"
	"vendor-ledger-service/pkg/logger"
)

// MergeCreditNotes attaches each invoice's credit-note aggregate, matched by
// normalized tax id. Invoices without a match keep a nil aggregate so "no
// credit note" stays distinct from "a credit note of zero".
//
// The merge is pure and idempotent: input invoices are never mutated, and
// re-merging the same aggregates reproduces the same result because each
// output invoice's aggregate is rebuilt from the mapping rather than
// accumulated.
func MergeCreditNotes(invoices []*models.Invoice, aggregates map[string]*models.CreditNoteAggregate) []*models.Invoice {
	log := logger.WithComponent("reconciler")

	merged := make([]*models.Invoice, len(invoices))
	matched := 0
	for i, inv := range invoices {
		out := *inv
		out.CreditNotes = nil
		if agg, ok := aggregates[inv.TaxIDClean]; ok {
			numbers := make([]string, len(agg.Numbers))
			copy(numbers, agg.Numbers)
			out.CreditNotes = &models.CreditNoteInfo{
				Numbers: numbers,
				Total:   agg.Total,
				Count:   agg.Count,
			}
			matched++
		}
		merged[i] = &out
	}

	log.WithFields(logger.Fields{
		"invoices":   len(invoices),
		"matched":    matched,
		"aggregates": len(aggregates),
	}).Info("credit-note merge complete")
	return merged
}
