// Package workbook turns uploaded spreadsheet bytes into named raw grids.
//
// Grids are rows of coerced cells (see the cells package); downstream
// components never touch the spreadsheet libraries directly. Modern .xlsx
// files are read with excelize; when the bytes are not a valid OOXML package
// the loader falls back to the legacy .xls reader, since the export source
// still occasionally ships 97-2003 files.
package workbook

import (
	"bytes"
	"fmt"

	"vendor-ledger-service/internal/cells"
	lederrors "vendor-ledger-service/pkg/errors"
	"vendor-ledger-service/pkg/logger"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
)

// Grid is the raw cell grid of one sheet, top-to-bottom, left-to-right.
type Grid [][]cells.Cell

// Cell returns the cell at (row, col), or an empty cell when the row is
// shorter than col. Spreadsheet rows are ragged; this keeps fixed-offset
// reads safe.
func (g Grid) Cell(row, col int) cells.Cell {
	if row < 0 || row >= len(g) {
		return cells.Cell{}
	}
	r := g[row]
	if col < 0 || col >= len(r) {
		return cells.Cell{}
	}
	return r[col]
}

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int {
	return len(g)
}

// Workbook holds the grids of all sheets in a loaded file.
type Workbook struct {
	sheets map[string]Grid
	order  []string
}

// Sheet returns the grid for a sheet name.
func (w *Workbook) Sheet(name string) (Grid, bool) {
	g, ok := w.sheets[name]
	return g, ok
}

// HasSheet reports whether the workbook contains the named sheet.
func (w *Workbook) HasSheet(name string) bool {
	_, ok := w.sheets[name]
	return ok
}

// FirstSheet returns the grid of the first sheet in workbook order. The
// credit-note contract reads the first sheet regardless of its name.
func (w *Workbook) FirstSheet() (Grid, string, error) {
	if len(w.order) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}
	name := w.order[0]
	return w.sheets[name], name, nil
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Load parses spreadsheet bytes into a Workbook. It returns a fatal file
// error when the bytes are neither a readable .xlsx nor a readable .xls.
func Load(name string, data []byte) (*Workbook, error) {
	log := logger.WithComponent("workbook")

	if len(data) == 0 {
		return nil, lederrors.FileError(lederrors.CodeFileEmpty, name, nil)
	}

	wb, xlsxErr := loadXLSX(data)
	if xlsxErr == nil {
		log.WithFields(logger.Fields{"file": name, "sheets": len(wb.order), "format": "xlsx"}).
			Debug("loaded workbook")
		return wb, nil
	}

	wb, xlsErr := loadXLS(data)
	if xlsErr == nil {
		log.WithFields(logger.Fields{"file": name, "sheets": len(wb.order), "format": "xls"}).
			Debug("loaded legacy workbook")
		return wb, nil
	}

	log.WithError(xlsxErr).WithField("file", name).Error("failed to load workbook")
	return nil, lederrors.FileError(lederrors.CodeFileCorrupted, name, xlsxErr).
		WithContext("xls_error", xlsErr.Error())
}

func loadXLSX(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wb := &Workbook{sheets: make(map[string]Grid)}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		grid := make(Grid, len(rows))
		for i, row := range rows {
			cellsRow := make([]cells.Cell, len(row))
			for j, raw := range row {
				cellsRow[j] = cells.Coerce(raw)
			}
			grid[i] = cellsRow
		}
		wb.sheets[name] = grid
		wb.order = append(wb.order, name)
	}
	return wb, nil
}

func loadXLS(data []byte) (*Workbook, error) {
	book, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	wb := &Workbook{sheets: make(map[string]Grid)}
	for i := 0; i < book.GetNumberSheets(); i++ {
		sheet, err := book.GetSheet(i)
		if err != nil || sheet == nil {
			return nil, fmt.Errorf("failed to read xls sheet %d: %w", i, err)
		}
		var grid Grid
		for _, row := range sheet.GetRows() {
			var cellsRow []cells.Cell
			for _, col := range row.GetCols() {
				cellsRow = append(cellsRow, cells.Coerce(col.GetString()))
			}
			grid = append(grid, cellsRow)
		}
		name := sheet.GetName()
		wb.sheets[name] = grid
		wb.order = append(wb.order, name)
	}
	return wb, nil
}
