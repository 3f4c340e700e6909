package workbook

import (
	"testing"

	"vendor-ledger-service/internal/cells"
	lederrors "vendor-ledger-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// testSheet pairs a sheet name with its rows for workbook construction.
type testSheet struct {
	name string
	rows [][]string
}

// buildXLSX renders sheets into in-memory .xlsx bytes.
func buildXLSX(t *testing.T, sheets []testSheet) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				t.Fatalf("Failed to rename sheet: %v", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.name); err != nil {
				t.Fatalf("Failed to add sheet: %v", err)
			}
		}
		for r, row := range sheet.rows {
			for c, value := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatalf("Failed to build cell name: %v", err)
				}
				if err := f.SetCellValue(sheet.name, cell, value); err != nil {
					t.Fatalf("Failed to set cell value: %v", err)
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func TestLoadXLSX(t *testing.T) {
	data := buildXLSX(t, []testSheet{
		{name: "Invoices", rows: [][]string{
			{"ACME S.L.", "B12345678", "1200.50"},
			{"Globex", "B87654321"},
		}},
		{name: "Lookup", rows: [][]string{
			{"B12345678", "Spain"},
		}},
	})

	wb, err := Load("invoices.xlsx", data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !wb.HasSheet("Invoices") || !wb.HasSheet("Lookup") {
		t.Fatalf("Expected both sheets present, got %v", wb.SheetNames())
	}

	grid, _ := wb.Sheet("Invoices")
	if grid.Rows() != 2 {
		t.Fatalf("Expected 2 rows, got %d", grid.Rows())
	}
	if got := grid.Cell(0, 0).String(); got != "ACME S.L." {
		t.Errorf("Cell(0,0) = %q, want %q", got, "ACME S.L.")
	}
	if grid.Cell(0, 2).Kind != cells.KindNumber {
		t.Errorf("Expected amount cell coerced to number, got %v", grid.Cell(0, 2).Kind)
	}
}

func TestLoadFirstSheetOrder(t *testing.T) {
	data := buildXLSX(t, []testSheet{
		{name: "Notes", rows: [][]string{{"header"}}},
		{name: "Other", rows: [][]string{{"x"}}},
	})

	wb, err := Load("notes.xlsx", data)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	_, name, err := wb.FirstSheet()
	if err != nil {
		t.Fatalf("FirstSheet() error = %v", err)
	}
	if name != "Notes" {
		t.Errorf("FirstSheet() = %q, want %q", name, "Notes")
	}
}

func TestLoadCorruptedBytes(t *testing.T) {
	_, err := Load("bad.xlsx", []byte("this is not a spreadsheet"))
	if err == nil {
		t.Fatal("Expected error for corrupted bytes")
	}
	le, ok := lederrors.AsLedgerError(err)
	if !ok {
		t.Fatalf("Expected a LedgerError, got %T", err)
	}
	if le.Code != lederrors.CodeFileCorrupted {
		t.Errorf("Expected code %s, got %s", lederrors.CodeFileCorrupted, le.Code)
	}
	if !le.Fatal() {
		t.Error("Expected a corrupted file to be fatal")
	}
}

func TestLoadEmptyBytes(t *testing.T) {
	_, err := Load("empty.xlsx", nil)
	if err == nil {
		t.Fatal("Expected error for empty bytes")
	}
	le, ok := lederrors.AsLedgerError(err)
	if !ok || le.Code != lederrors.CodeFileEmpty {
		t.Errorf("Expected file_empty error, got %v", err)
	}
}

func TestGridCellOutOfRange(t *testing.T) {
	grid := Grid{
		{cells.Coerce("a"), cells.Coerce("b")},
		{cells.Coerce("c")},
	}

	tests := []struct {
		name     string
		row, col int
	}{
		{"Row past end", 5, 0},
		{"Negative row", -1, 0},
		{"Column past ragged row", 1, 1},
		{"Negative column", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.Cell(tt.row, tt.col); !got.IsEmpty() {
				t.Errorf("Cell(%d,%d) = %v, want empty", tt.row, tt.col, got)
			}
		})
	}
}
