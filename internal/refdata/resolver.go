// Package refdata builds the tax-id keyed lookup tables (vendor category and
// country) used to enrich extracted invoice records.
//
// Reference data is rebuilt from scratch on every load; there is no
// incremental update. A missing reference sheet is not an error: the resolver
// simply yields sentinel values for every lookup, and the load proceeds in
// degraded mode.
package refdata

import (
	"vendor-ledger-service/internal/models"
	"vendor-ledger-service/internal/workbook"
	"vendor-ledger-service/pkg/logger"
)

// SourceConfig describes where one lookup table comes from: a sheet, one or
// two candidate key columns and a value column. FallbackKeyColumn covers
// reference sheets that carry two vendor-identifier schemes; set it to -1
// when the sheet has a single key column.
type SourceConfig struct {
	Sheet             string
	KeyColumn         int
	FallbackKeyColumn int
	ValueColumn       int
}

// Config wires the resolver's sources. Country resolution may have a second
// source consulted only when the primary misses.
type Config struct {
	VendorType      SourceConfig
	Country         SourceConfig
	CountryFallback *SourceConfig
}

// DefaultConfig returns the last-known-good source mapping: both vendor type
// (column G) and country (column B) come from the special-vendors sheet keyed
// by column A, with the vendor-list sheet (key column D, country column G) as
// the country fallback.
func DefaultConfig() *Config {
	return &Config{
		VendorType: SourceConfig{
			Sheet:             "VR CHECK_Special vendors list",
			KeyColumn:         0,
			FallbackKeyColumn: -1,
			ValueColumn:       6,
		},
		Country: SourceConfig{
			Sheet:             "VR CHECK_Special vendors list",
			KeyColumn:         0,
			FallbackKeyColumn: -1,
			ValueColumn:       1,
		},
		CountryFallback: &SourceConfig{
			Sheet:             "VENDOR LIST",
			KeyColumn:         3,
			FallbackKeyColumn: -1,
			ValueColumn:       6,
		},
	}
}

// Table is a single tax-id keyed mapping.
type Table struct {
	entries map[string]string
}

// Len returns the number of entries in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Get returns the value for a normalized tax id.
func (t *Table) Get(taxIDClean string) (string, bool) {
	v, ok := t.entries[taxIDClean]
	return v, ok
}

// buildTable scans a grid and inserts one entry per row that has both a key
// and a value. Later rows overwrite earlier ones; duplicate keys are routine
// in these exports, not an error.
func buildTable(grid workbook.Grid, cfg SourceConfig) *Table {
	t := &Table{entries: make(map[string]string)}
	for i := 0; i < grid.Rows(); i++ {
		key := grid.Cell(i, cfg.KeyColumn).String()
		if key == "" && cfg.FallbackKeyColumn >= 0 {
			key = grid.Cell(i, cfg.FallbackKeyColumn).String()
		}
		value := grid.Cell(i, cfg.ValueColumn).String()
		if key == "" || value == "" {
			continue
		}
		t.entries[models.NormalizeTaxID(key)] = value
	}
	return t
}

// Resolver answers vendor-type and country lookups for normalized tax ids.
type Resolver struct {
	vendorTypes     *Table
	countries       *Table
	countryFallback *Table

	// Degraded is true when no reference sheet was present and every lookup
	// will return a sentinel.
	Degraded bool
}

// Build constructs a Resolver from the workbook. Missing sheets yield empty
// tables rather than errors.
func Build(wb *workbook.Workbook, cfg *Config) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := logger.WithComponent("refdata")

	r := &Resolver{
		vendorTypes:     tableFromSheet(wb, cfg.VendorType),
		countries:       tableFromSheet(wb, cfg.Country),
		countryFallback: &Table{entries: map[string]string{}},
	}
	if cfg.CountryFallback != nil {
		r.countryFallback = tableFromSheet(wb, *cfg.CountryFallback)
	}
	r.Degraded = r.vendorTypes.Len() == 0 && r.countries.Len() == 0 && r.countryFallback.Len() == 0

	log.WithFields(logger.Fields{
		"vendor_types":     r.vendorTypes.Len(),
		"countries":        r.countries.Len(),
		"country_fallback": r.countryFallback.Len(),
		"degraded":         r.Degraded,
	}).Info("built reference tables")
	return r
}

func tableFromSheet(wb *workbook.Workbook, cfg SourceConfig) *Table {
	grid, ok := wb.Sheet(cfg.Sheet)
	if !ok {
		logger.WithComponent("refdata").WithField("sheet", cfg.Sheet).
			Warn("reference sheet missing, lookups will fall back to sentinels")
		return &Table{entries: map[string]string{}}
	}
	return buildTable(grid, cfg)
}

// VendorType resolves the vendor category for a normalized tax id, or the
// Uncategorized sentinel.
func (r *Resolver) VendorType(taxIDClean string) string {
	if v, ok := r.vendorTypes.Get(taxIDClean); ok {
		return v
	}
	return models.VendorTypeUncategorized
}

// Country resolves the country for a normalized tax id. The primary source
// takes precedence; the fallback source is consulted only on a primary miss.
// Absent everywhere, the Unknown sentinel is returned.
func (r *Resolver) Country(taxIDClean string) string {
	if v, ok := r.countries.Get(taxIDClean); ok {
		return v
	}
	if v, ok := r.countryFallback.Get(taxIDClean); ok {
		return v
	}
	return models.CountryUnknown
}
