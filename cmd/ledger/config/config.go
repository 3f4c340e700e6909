// Package config assembles the pipeline and server configurations from viper
// settings. Every column offset has a last-known-good default; viper keys
// exist so a shifted export can be absorbed without a rebuild.
package config

import (
	"time"

	"vendor-ledger-service/internal/creditnotes"
	"vendor-ledger-service/internal/extract"
	"vendor-ledger-service/internal/refdata"
	"vendor-ledger-service/internal/server"

	"github.com/spf13/viper"
)

func init() {
	layout := extract.DefaultLayout()
	viper.SetDefault("layout.main_sheet", layout.MainSheet)
	viper.SetDefault("layout.vendor_name", layout.VendorName)
	viper.SetDefault("layout.tax_id", layout.TaxID)
	viper.SetDefault("layout.due_date", layout.DueDate)
	viper.SetDefault("layout.open_amount", layout.OpenAmount)
	viper.SetDefault("layout.invoice_number", layout.InvoiceNumber)
	viper.SetDefault("layout.vendor_email", layout.VendorEmail)
	viper.SetDefault("layout.account_email", layout.AccountEmail)
	viper.SetDefault("layout.gate_flags", []int{
		layout.GateFlags[0], layout.GateFlags[1], layout.GateFlags[2], layout.GateFlags[3],
	})
	viper.SetDefault("layout.gate_numeric", layout.GateNumeric)
	viper.SetDefault("layout.block_status", layout.BlockStatus)
	viper.SetDefault("layout.business_area", layout.BusinessArea)
	viper.SetDefault("layout.sniff_block_columns", layout.SniffBlockColumns)

	ref := refdata.DefaultConfig()
	viper.SetDefault("refdata.sheet", ref.VendorType.Sheet)
	viper.SetDefault("refdata.key_column", ref.VendorType.KeyColumn)
	viper.SetDefault("refdata.vendor_type_column", ref.VendorType.ValueColumn)
	viper.SetDefault("refdata.country_column", ref.Country.ValueColumn)
	viper.SetDefault("refdata.fallback_sheet", ref.CountryFallback.Sheet)
	viper.SetDefault("refdata.fallback_key_column", ref.CountryFallback.KeyColumn)
	viper.SetDefault("refdata.fallback_country_column", ref.CountryFallback.ValueColumn)

	cn := creditnotes.DefaultLayout()
	viper.SetDefault("creditnotes.tax_id", cn.TaxID)
	viper.SetDefault("creditnotes.note_number", cn.NoteNumber)
	viper.SetDefault("creditnotes.amount", cn.Amount)

	srv := server.DefaultConfig()
	viper.SetDefault("server.host", srv.Host)
	viper.SetDefault("server.port", srv.Port)
	viper.SetDefault("server.read_timeout", srv.ReadTimeout)
	viper.SetDefault("server.write_timeout", srv.WriteTimeout)
	viper.SetDefault("server.shutdown_timeout", srv.ShutdownTimeout)
	viper.SetDefault("server.max_upload_bytes", srv.MaxUploadBytes)
}

// BuildLayout creates the primary-sheet layout from settings.
func BuildLayout() (*extract.Layout, error) {
	layout := extract.DefaultLayout()
	layout.MainSheet = viper.GetString("layout.main_sheet")
	layout.VendorName = viper.GetInt("layout.vendor_name")
	layout.TaxID = viper.GetInt("layout.tax_id")
	layout.DueDate = viper.GetInt("layout.due_date")
	layout.OpenAmount = viper.GetInt("layout.open_amount")
	layout.InvoiceNumber = viper.GetInt("layout.invoice_number")
	layout.VendorEmail = viper.GetInt("layout.vendor_email")
	layout.AccountEmail = viper.GetInt("layout.account_email")
	if flags := viper.GetIntSlice("layout.gate_flags"); len(flags) == 4 {
		copy(layout.GateFlags[:], flags)
	}
	layout.GateNumeric = viper.GetInt("layout.gate_numeric")
	layout.BlockStatus = viper.GetInt("layout.block_status")
	layout.BusinessArea = viper.GetInt("layout.business_area")
	layout.SniffBlockColumns = viper.GetBool("layout.sniff_block_columns")

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return layout, nil
}

// BuildReferenceConfig creates the reference-lookup configuration from
// settings. Vendor type and country share the primary sheet and key column;
// the fallback sheet is consulted for country only.
func BuildReferenceConfig() *refdata.Config {
	cfg := refdata.DefaultConfig()
	cfg.VendorType.Sheet = viper.GetString("refdata.sheet")
	cfg.VendorType.KeyColumn = viper.GetInt("refdata.key_column")
	cfg.VendorType.ValueColumn = viper.GetInt("refdata.vendor_type_column")
	cfg.Country.Sheet = cfg.VendorType.Sheet
	cfg.Country.KeyColumn = cfg.VendorType.KeyColumn
	cfg.Country.ValueColumn = viper.GetInt("refdata.country_column")
	cfg.CountryFallback = &refdata.SourceConfig{
		Sheet:             viper.GetString("refdata.fallback_sheet"),
		KeyColumn:         viper.GetInt("refdata.fallback_key_column"),
		FallbackKeyColumn: -1,
		ValueColumn:       viper.GetInt("refdata.fallback_country_column"),
	}
	return cfg
}

// BuildCreditNoteLayout creates the credit-note column mapping from settings.
func BuildCreditNoteLayout() *creditnotes.Layout {
	return &creditnotes.Layout{
		TaxID:      viper.GetInt("creditnotes.tax_id"),
		NoteNumber: viper.GetInt("creditnotes.note_number"),
		Amount:     viper.GetInt("creditnotes.amount"),
	}
}

// BuildServerConfig creates the HTTP server configuration from settings.
func BuildServerConfig() (*server.Config, error) {
	cfg := &server.Config{
		Host:            viper.GetString("server.host"),
		Port:            viper.GetInt("server.port"),
		ReadTimeout:     viper.GetDuration("server.read_timeout"),
		WriteTimeout:    viper.GetDuration("server.write_timeout"),
		ShutdownTimeout: viper.GetDuration("server.shutdown_timeout"),
		MaxUploadBytes:  viper.GetInt64("server.max_upload_bytes"),
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseURL returns the attachment-store connection string, empty when the
// store is not configured.
func DatabaseURL() string {
	return viper.GetString("database_url")
}
