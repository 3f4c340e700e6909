package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"vendor-ledger-service/internal/cells"
	"vendor-ledger-service/internal/derive"
	"vendor-ledger-service/internal/models"
	lederrors "vendor-ledger-service/pkg/errors"
)

// queryRequest is the body shared by the invoice-query and top-vendors
// endpoints: the filter selections plus the view parameters.
type queryRequest struct {
	Filters        *derive.FilterState `json:"filters"`
	Scope          derive.StatusScope  `json:"scope"`
	Group          string              `json:"group"`
	SelectedVendor string              `json:"selectedVendor"`
}

// loadSummary is the response to a successful ledger upload.
type loadSummary struct {
	File        string      `json:"file"`
	HeaderRow   int         `json:"headerRow"`
	RowsScanned int         `json:"rowsScanned"`
	RowsKept    int         `json:"rowsKept"`
	Rejections  interface{} `json:"rejections"`
	Degraded    bool        `json:"degraded"`
	LoadedAt    time.Time   `json:"loadedAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	payload := map[string]interface{}{
		"status": "ok",
		"loaded": snap != nil,
	}
	if snap != nil {
		payload["file"] = snap.SourceName
		payload["loadedAt"] = snap.LoadedAt
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleLoadLedger ingests the primary spreadsheet. A fatal pipeline error
// returns 422 with a single human-readable message and leaves any previously
// loaded snapshot untouched.
func (s *Server) handleLoadLedger(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	snap, err := s.store.LoadWorkbook(name, data, cells.Today())
	if err != nil {
		s.log.WithError(err).Warnf("ledger load failed for %s", name)
		writeError(w, http.StatusUnprocessableEntity, lederrors.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, &loadSummary{
		File:        snap.SourceName,
		HeaderRow:   snap.Stats.HeaderRow,
		RowsScanned: snap.Stats.RowsScanned,
		RowsKept:    snap.Stats.RowsKept,
		Rejections:  snap.Stats.Rejections,
		Degraded:    snap.Degraded,
		LoadedAt:    snap.LoadedAt,
	})
}

// handleLoadCreditNotes ingests a credit-note file and merges it onto the
// current snapshot. Requires a prior ledger load.
func (s *Server) handleLoadCreditNotes(w http.ResponseWriter, r *http.Request) {
	name, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	if s.store.Current() == nil {
		writeError(w, http.StatusConflict, "no ledger loaded; upload the primary file first")
		return
	}

	stats, err := s.store.ApplyCreditNotes(name, data)
	if err != nil {
		s.log.WithError(err).Warnf("credit-note load failed for %s", name)
		writeError(w, http.StatusUnprocessableEntity, lederrors.UserMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleQueryInvoices returns the table rows and KPIs for a filter state.
// Before the first load it answers with empty results rather than an error,
// matching an empty dashboard.
func (s *Server) handleQueryInvoices(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	invoices := s.currentInvoices()
	filtered := derive.Filter(invoices, req.Filters)
	rows := derive.VisibleRows(filtered, req.Scope, req.SelectedVendor)
	if rows == nil {
		rows = []*models.Invoice{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"invoices": rows,
		"kpis":     derive.ComputeKPIs(filtered),
		"total":    len(rows),
	})
}

// handleTopVendors returns the ranked vendor chart rows for a filter state,
// scope and vendor-group selection.
func (s *Server) handleTopVendors(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeQuery(w, r)
	if !ok {
		return
	}

	// The scope picks the sum vendors are ranked by; grouping still runs over
	// the full filtered set so each row keeps its true overdue/not-overdue
	// split.
	invoices := s.currentInvoices()
	filtered := derive.Filter(invoices, req.Filters)
	vendors := derive.SelectVendors(filtered, req.Scope, req.Group, req.SelectedVendor)
	if vendors == nil {
		vendors = []*derive.VendorTotal{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendors": vendors,
	})
}

func (s *Server) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, derive.Options(s.currentInvoices()))
}

func (s *Server) handleEmails(w http.ResponseWriter, r *http.Request) {
	emails := derive.EmailExport(s.currentInvoices())
	if emails == nil {
		emails = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"emails": emails,
		"count":  len(emails),
	})
}

func (s *Server) currentInvoices() []*models.Invoice {
	snap := s.store.Current()
	if snap == nil {
		return nil
	}
	return snap.Invoices
}

// readUpload pulls the spreadsheet bytes from a multipart upload, enforcing
// the size cap.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart form must carry a 'file' part")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file exceeds the upload size limit")
		return "", nil, false
	}
	return header.Filename, data, true
}

func decodeQuery(w http.ResponseWriter, r *http.Request) (*queryRequest, bool) {
	req := &queryRequest{}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && err != io.EOF {
			writeError(w, http.StatusBadRequest, "request body must be valid JSON")
			return nil, false
		}
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
