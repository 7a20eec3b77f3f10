// Package grid reads the cells of a zone from its coordinate file.
//
// A coordinate file is delimited text whose first row is a header. Every
// following row holds a cell id in column 0 and the two corner points of the
// cell's bounding box at configurable columns.
package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/job"
)

// Cell is one bounding-box unit of a zone. Coordinates are kept exactly as
// they appear in the coordinate file.
type Cell struct {
	ID string
	X1 string
	Y1 string
	X2 string
	Y2 string
}

// BBox returns the search bounding box "x1,y1,x2,y2".
func (c Cell) BBox() string {
	return strings.Join([]string{c.X1, c.Y1, c.X2, c.Y2}, ",")
}

// Bound parses the corners into an orb.Bound. Decimal commas are accepted.
// The bound is informational; coordinates are never validated geographically.
func (c Cell) Bound() (orb.Bound, error) {
	vals := make([]float64, 4)
	for i, raw := range []string{c.X1, c.Y1, c.X2, c.Y2} {
		v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(raw), ",", ".", 1), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("cell %s: coordinate %q: %w", c.ID, raw, err)
		}
		vals[i] = v
	}

	return orb.Bound{
		Min: orb.Point{math.Min(vals[0], vals[2]), math.Min(vals[1], vals[3])},
		Max: orb.Point{math.Max(vals[0], vals[2]), math.Max(vals[1], vals[3])},
	}, nil
}

// Source iterates the cells of a coordinate file.
type Source struct {
	path    string
	delim   rune
	columns job.Columns
}

// NewSource returns a Source for the job's coordinate file.
func NewSource(j *job.Job) *Source {
	return &Source{
		path:    j.CoordinatesFile,
		delim:   j.Delimiter,
		columns: j.Columns,
	}
}

// Each calls fn for every cell in file order with its 1-based position.
// Iteration stops at the first error returned by fn. A row with too few
// columns for the configured mapping is a configuration error.
func (s *Source) Each(fn func(idx int, c Cell) error) error {
	const op = "grid.Each"

	f, err := os.Open(s.path)
	if err != nil {
		return ferrors.Configuration(op, "cannot open coordinates file %q: %v", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = s.delim
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil
		}
		return ferrors.Configuration(op, "cannot read header of %q: %v", s.path, err)
	}

	need := s.columns.Max()
	for idx := 1; ; idx++ {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ferrors.Configuration(op, "coordinates file %q: %v", s.path, err)
		}
		if len(rec) <= need {
			line, _ := r.FieldPos(0)
			return ferrors.Configuration(op, "coordinates file %q line %d: %d columns, need at least %d",
				s.path, line, len(rec), need+1)
		}

		cell := Cell{
			ID: rec[0],
			X1: rec[s.columns.X1],
			Y1: rec[s.columns.Y1],
			X2: rec[s.columns.X2],
			Y2: rec[s.columns.Y2],
		}
		if err := fn(idx, cell); err != nil {
			return err
		}
	}
}

// Cells reads every cell into memory.
func (s *Source) Cells() ([]Cell, error) {
	var cells []Cell
	err := s.Each(func(_ int, c Cell) error {
		cells = append(cells, c)
		return nil
	})
	return cells, err
}
