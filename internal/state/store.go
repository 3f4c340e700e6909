// Package state owns the single mutable piece of the service: the current
// normalized invoice snapshot.
//
// Every upload rebuilds the snapshot from scratch; nothing is persisted. A
// failed load leaves the previous snapshot in place, so a bad file never
// erases good data already loaded. All derived views are pure recomputations
// over an immutable snapshot, so one RWMutex around the snapshot pointer is
// the only synchronization in the service.
package state

import (
	"sync"
	"time"

	"vendor-ledger-service/internal/creditnotes"
	"vendor-ledger-service/internal/extract"
	"vendor-ledger-service/internal/models"
	"vendor-ledger-service/internal/reconciler"
	"vendor-ledger-service/internal/refdata"
	"vendor-ledger-service/internal/workbook"
	lederrors "vendor-ledger-service/pkg/errors"
	"vendor-ledger-service/pkg/logger"
)

// Snapshot is one immutable load result. The credit-note merge produces a
// new snapshot rather than mutating this one, so views computed against a
// pre-merge snapshot stay valid until their next recompute.
type Snapshot struct {
	Invoices    []*models.Invoice
	Stats       *extract.Stats
	Degraded    bool
	SourceName  string
	LoadedAt    time.Time
	CreditNotes *creditnotes.Stats
}

// Store guards the current snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot *Snapshot

	layout    *extract.Layout
	refConfig *refdata.Config
	cnLayout  *creditnotes.Layout
	log       logger.Logger
}

// NewStore creates a Store with the given pipeline configuration; nil
// configs fall back to the last-known-good defaults.
func NewStore(layout *extract.Layout, refConfig *refdata.Config, cnLayout *creditnotes.Layout) *Store {
	if layout == nil {
		layout = extract.DefaultLayout()
	}
	if refConfig == nil {
		refConfig = refdata.DefaultConfig()
	}
	if cnLayout == nil {
		cnLayout = creditnotes.DefaultLayout()
	}
	return &Store{
		layout:    layout,
		refConfig: refConfig,
		cnLayout:  cnLayout,
		log:       logger.WithComponent("state"),
	}
}

// Current returns the current snapshot, or nil before the first successful
// load.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LoadWorkbook runs the full pipeline over uploaded primary-file bytes:
// workbook parse, reference resolution, header location, extraction. On
// success the new snapshot replaces the current one; on any fatal error the
// prior snapshot is retained untouched.
func (s *Store) LoadWorkbook(name string, data []byte, today time.Time) (*Snapshot, error) {
	wb, err := workbook.Load(name, data)
	if err != nil {
		return nil, err
	}

	grid, ok := wb.Sheet(s.layout.MainSheet)
	if !ok {
		return nil, lederrors.SheetNotFound(s.layout.MainSheet)
	}

	resolver := refdata.Build(wb, s.refConfig)
	extractor := extract.NewExtractor(s.layout, resolver, today)

	invoices, stats, err := extractor.Extract(grid)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Invoices:   invoices,
		Stats:      stats,
		Degraded:   resolver.Degraded,
		SourceName: name,
		LoadedAt:   time.Now(),
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	s.log.WithFields(logger.Fields{
		"file":     name,
		"invoices": len(invoices),
		"degraded": snap.Degraded,
	}).Info("snapshot replaced")
	return snap, nil
}

// ApplyCreditNotes parses a credit-note file and merges its aggregates onto
// the current snapshot, producing and installing a new snapshot. Safe to
// call at any time after a load; merging is idempotent, so re-uploading the
// same file reproduces the same snapshot.
func (s *Store) ApplyCreditNotes(name string, data []byte) (*creditnotes.Stats, error) {
	wb, err := workbook.Load(name, data)
	if err != nil {
		return nil, err
	}
	grid, _, err := wb.FirstSheet()
	if err != nil {
		return nil, lederrors.FileError(lederrors.CodeFileEmpty, name, err)
	}

	aggregates, stats := creditnotes.Aggregate(grid, s.cnLayout)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, lederrors.New(lederrors.CategoryInternal, lederrors.CodeUnexpectedError,
			"no ledger loaded; upload the primary file before credit notes")
	}

	merged := reconciler.MergeCreditNotes(s.snapshot.Invoices, aggregates)
	next := *s.snapshot
	next.Invoices = merged
	next.CreditNotes = stats
	s.snapshot = &next

	return stats, nil
}
