package ledger

import (
	"strconv"

	ferrors "flickrgrid/pkg/errors"
)

// Photo status labels written to the photo ledger.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ResultRow is one photo returned by a paginated search.
type ResultRow struct {
	CellID  string
	Page    int
	PhotoID string
	Owner   string
	Secret  string
	Title   string
}

// PhotoIDColumn is the position of the photo id in a results row.
const PhotoIDColumn = 2

// Record renders the row in results-file column order.
func (r ResultRow) Record() []string {
	return []string{r.CellID, strconv.Itoa(r.Page), r.PhotoID, r.Owner, r.Secret, r.Title}
}

// ParseResultRow converts a results-file record back into a ResultRow.
func ParseResultRow(rec []string) (ResultRow, error) {
	if len(rec) < 6 {
		return ResultRow{}, ferrors.Protocol("ledger.ParseResultRow", "expected 6 columns, got %d", len(rec))
	}
	page, err := strconv.Atoi(rec[1])
	if err != nil {
		return ResultRow{}, ferrors.Protocol("ledger.ParseResultRow", "invalid page %q", rec[1])
	}
	return ResultRow{
		CellID:  rec[0],
		Page:    page,
		PhotoID: rec[2],
		Owner:   rec[3],
		Secret:  rec[4],
		Title:   rec[5],
	}, nil
}

// CellEntry records that a grid cell has been crawled.
type CellEntry struct {
	CellID   string
	Total    int
	HadError bool
}

// Record renders the entry as a cell-ledger row.
func (e CellEntry) Record() []string {
	return []string{e.CellID, strconv.Itoa(e.Total), FormatBool(e.HadError)}
}

// PhotoEntry records that a photo has been processed.
type PhotoEntry struct {
	PhotoID string
	Status  string
	OK      bool
}

// Record renders the entry as a photo-ledger row.
func (e PhotoEntry) Record() []string {
	return []string{e.PhotoID, e.Status, FormatBool(e.OK)}
}

// Results is the append-only log of search result rows.
type Results struct{ *Log }

// OpenResults opens the results log at path.
func OpenResults(path string) Results {
	return Results{Open(path)}
}

// Append writes one result row.
func (r Results) Append(row ResultRow) error {
	return r.Log.Append(row.Record())
}

// Cells is the grid crawler's completion ledger.
type Cells struct{ *Log }

// OpenCells opens the cell ledger at path.
func OpenCells(path string) Cells {
	return Cells{Open(path)}
}

// Mark records a finished cell.
func (c Cells) Mark(e CellEntry) error {
	return c.Log.Append(e.Record())
}

// Entries returns every recorded cell in file order.
func (c Cells) Entries() ([]CellEntry, error) {
	var out []CellEntry
	err := c.Each(func(row []string) error {
		if len(row) < 3 {
			return nil
		}
		total, _ := strconv.Atoi(row[1])
		out = append(out, CellEntry{CellID: row[0], Total: total, HadError: ParseBool(row[2])})
		return nil
	})
	return out, err
}

// Photos is the fetcher's completion ledger.
type Photos struct{ *Log }

// OpenPhotos opens the photo ledger at path.
func OpenPhotos(path string) Photos {
	return Photos{Open(path)}
}

// Mark records a processed photo.
func (p Photos) Mark(e PhotoEntry) error {
	return p.Log.Append(e.Record())
}
