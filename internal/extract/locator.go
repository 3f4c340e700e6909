package extract

import (
	"strings"

	"vendor-ledger-service/internal/workbook"
	lederrors "vendor-ledger-service/pkg/errors"
)

// headerMarker is the substring that identifies the record header row in
// column A, matched case-insensitively.
const headerMarker = "VENDOR"

// headerScanLimit bounds the header scan. The export has a variable-height
// title block before the real header; bounding the scan avoids false
// positives deep in the data.
const headerScanLimit = 100

// LocateHeader scans the primary grid for the record header row and returns
// its index. It fails with a header-not-found error when no row within the
// scan window has a first-column cell containing the marker.
func LocateHeader(grid workbook.Grid) (int, error) {
	limit := headerScanLimit
	if grid.Rows() < limit {
		limit = grid.Rows()
	}
	for i := 0; i < limit; i++ {
		val := strings.ToUpper(grid.Cell(i, 0).String())
		if strings.Contains(val, headerMarker) {
			return i, nil
		}
	}
	return -1, lederrors.HeaderNotFound(headerMarker, limit)
}
