package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vendor-ledger-service/internal/state"

	"github.com/xuri/excelize/v2"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(DefaultConfig(), state.NewStore(nil, nil, nil), nil)
}

func (s *Server) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// ledgerBytes renders a minimal valid primary workbook: a header row and
// three data rows, one overdue. ACME carries one overdue and one future
// invoice so vendor triples are observable.
func ledgerBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Outstanding Invoices IB"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("Failed to rename sheet: %v", err)
	}

	set := func(row, col int, value string) {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			t.Fatalf("Failed to build cell name: %v", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("Failed to set cell value: %v", err)
		}
	}

	set(0, 0, "Vendor name")
	rows := []struct {
		vendor, taxID, due, amount string
	}{
		{"ACME S.L.", "B111", "2020-01-15", "100"},
		{"ACME S.L.", "B111", "2099-02-15", "200"},
		{"Globex", "B222", "2099-01-15", "400"},
	}
	for i, r := range rows {
		row := i + 1
		set(row, 0, r.vendor)
		set(row, 1, r.taxID)
		set(row, 4, r.due)
		set(row, 6, r.amount)
		set(row, 8, "INV-1")
		for _, c := range []int{31, 33, 35, 39} {
			set(row, c, "Yes")
		}
		set(row, 44, "0")
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, path string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "upload.xlsx")
	if err != nil {
		t.Fatalf("Failed to build form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHealthBeforeLoad(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var payload map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["loaded"] != false {
		t.Errorf("Expected loaded=false, got %v", payload["loaded"])
	}
}

func TestLoadLedgerAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, "/api/ledger", ledgerBytes(t)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var summary map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &summary)
	if summary["rowsKept"].(float64) != 3 {
		t.Errorf("Expected 3 rows kept, got %v", summary["rowsKept"])
	}

	rec = s.do(httptest.NewRequest(http.MethodPost, "/api/invoices/query",
		strings.NewReader(`{"scope":"Overdue Only"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Query status = %d", rec.Code)
	}
	var result struct {
		Total    int                      `json:"total"`
		Invoices []map[string]interface{} `json:"invoices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode query response: %v", err)
	}
	if result.Total != 1 {
		t.Fatalf("Expected 1 overdue row, got %d", result.Total)
	}
	if result.Invoices[0]["vendorName"] != "ACME S.L." {
		t.Errorf("Unexpected row: %v", result.Invoices[0])
	}
}

func TestLoadLedgerRejectsCorruptFile(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, "/api/ledger", []byte("not a spreadsheet")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Status = %d, want 422", rec.Code)
	}
	var payload map[string]string
	json.Unmarshal(rec.Body.Bytes(), &payload)
	if payload["error"] == "" {
		t.Error("Expected a human-readable error message")
	}
}

func TestQueryBeforeLoadReturnsEmpty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/invoices/query", strings.NewReader(`{}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var result struct {
		Total    int           `json:"total"`
		Invoices []interface{} `json:"invoices"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result.Total != 0 || result.Invoices == nil {
		t.Errorf("Expected an empty array response, got %+v", result)
	}
}

func TestCreditNotesBeforeLoad(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(uploadRequest(t, "/api/creditnotes", ledgerBytes(t)))
	if rec.Code != http.StatusConflict {
		t.Errorf("Status = %d, want 409", rec.Code)
	}
}

func TestTopVendors(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(uploadRequest(t, "/api/ledger", ledgerBytes(t))); rec.Code != http.StatusOK {
		t.Fatalf("Upload status = %d", rec.Code)
	}

	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/vendors/top",
		strings.NewReader(`{"scope":"All Open","group":"Top 1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var result struct {
		Vendors []map[string]interface{} `json:"vendors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Vendors) != 1 || result.Vendors[0]["vendorName"] != "Globex" {
		t.Errorf("Expected Globex as top vendor, got %v", result.Vendors)
	}
}

func TestTopVendorsScopedKeepsFullTriple(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(uploadRequest(t, "/api/ledger", ledgerBytes(t))); rec.Code != http.StatusOK {
		t.Fatalf("Upload status = %d", rec.Code)
	}

	// Scoping picks the ranking sum; the rows must keep the vendor's true
	// overdue/not-overdue split, not a split computed from overdue rows only.
	rec := s.do(httptest.NewRequest(http.MethodPost, "/api/vendors/top",
		strings.NewReader(`{"scope":"Overdue Only","group":"Top 1"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Status = %d", rec.Code)
	}
	var result struct {
		Vendors []map[string]interface{} `json:"vendors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(result.Vendors) != 1 || result.Vendors[0]["vendorName"] != "ACME S.L." {
		t.Fatalf("Expected ACME ranked first by overdue sum, got %v", result.Vendors)
	}
	vt := result.Vendors[0]
	if vt["overdue"] != "100" || vt["notOverdue"] != "200" || vt["total"] != "300" {
		t.Errorf("Expected the full triple 100/200/300, got %v", vt)
	}
}

func TestFilterOptionsAndEmails(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/filters/options", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Options status = %d", rec.Code)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/emails", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Emails status = %d", rec.Code)
	}
	var payload struct {
		Emails []string `json:"emails"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if payload.Emails == nil || payload.Count != 0 {
		t.Errorf("Expected empty email list, got %+v", payload)
	}
}

func TestUploadLimitConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxUploadBytes = 1024
	s := New(cfg, state.NewStore(nil, nil, nil), nil)

	rec := s.do(uploadRequest(t, "/api/ledger", make([]byte, 4096)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Status = %d, want 413", rec.Code)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}

	cfg.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected invalid port rejected")
	}

	cfg = DefaultConfig()
	cfg.MaxUploadBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected zero upload limit rejected")
	}
}
