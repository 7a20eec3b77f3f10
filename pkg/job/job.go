// Package job describes a single zone crawl and the on-disk layout it owns.
//
// Constructing a Job has no side effects. The command layer calls Provision
// once before starting a stage to create the directory tree.
package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"flickrgrid/pkg/config"
	ferrors "flickrgrid/pkg/errors"
)

// Columns holds the 0-based positions of the bounding-box coordinates in a
// coordinate file row. Column 0 always holds the cell id.
type Columns struct {
	X1, Y1, X2, Y2 int
}

// DefaultColumns matches the vertex export layout
// "id","X.x","Y.x","vertex_index.x","vertex_part.x","X.y","Y.y",...
var DefaultColumns = Columns{X1: 1, Y1: 2, X2: 5, Y2: 6}

// Max returns the highest column index that must be present in a row.
func (c Columns) Max() int {
	m := c.X1
	for _, v := range []int{c.Y1, c.X2, c.Y2} {
		if v > m {
			m = v
		}
	}
	return m
}

// Job is the immutable description of one run over a zone.
type Job struct {
	Zone            string
	StartYear       int
	EndYear         int
	CoordinatesFile string
	Delimiter       rune
	Columns         Columns
	RawMetadata     bool
	Layout          Layout
}

// Layout holds every path a zone run reads or writes.
type Layout struct {
	Base    string
	JSONDir string
	CSVDir  string
	ImgDir  string

	Results        string
	CleanedResults string
	CellLedger     string
	PhotoLedger    string
	Export         string
}

// New builds a Job from the zone settings. It validates the year range and
// delimiter but touches nothing on disk.
func New(outputDir, inputDir string, jc config.JobConfig) (*Job, error) {
	const op = "job.New"

	zone := strings.TrimSpace(jc.Zone)
	if zone == "" {
		return nil, ferrors.Configuration(op, "zone is required")
	}
	if jc.StartYear >= jc.EndYear {
		return nil, ferrors.Configuration(op, "start year (%d) must be before end year (%d)", jc.StartYear, jc.EndYear)
	}

	delim := []rune(jc.Delimiter)
	if len(delim) != 1 {
		return nil, ferrors.Configuration(op, "delimiter must be a single character, got %q", jc.Delimiter)
	}

	cols := Columns{X1: jc.Columns.X1, Y1: jc.Columns.Y1, X2: jc.Columns.X2, Y2: jc.Columns.Y2}
	if cols == (Columns{}) {
		cols = DefaultColumns
	}

	coords := jc.CoordinatesFile
	if coords == "" {
		coords = filepath.Join(inputDir, zone+"_coordinates.csv")
	}

	return &Job{
		Zone:            zone,
		StartYear:       jc.StartYear,
		EndYear:         jc.EndYear,
		CoordinatesFile: coords,
		Delimiter:       delim[0],
		Columns:         cols,
		RawMetadata:     jc.RawMetadata,
		Layout:          newLayout(outputDir, zone, jc.StartYear, jc.EndYear),
	}, nil
}

func newLayout(outputDir, zone string, start, end int) Layout {
	base := filepath.Join(outputDir, zone)
	csvDir := filepath.Join(base, "csv")
	years := fmt.Sprintf("%d_%d", start, end)

	return Layout{
		Base:    base,
		JSONDir: filepath.Join(base, "json"),
		CSVDir:  csvDir,
		ImgDir:  filepath.Join(base, "img"),

		Results:        filepath.Join(csvDir, "results_"+years+".csv"),
		CleanedResults: filepath.Join(csvDir, "results_"+years+"_cleaned.csv"),
		CellLedger:     filepath.Join(csvDir, "checked_grids_"+years+".csv"),
		PhotoLedger:    filepath.Join(csvDir, "downloaded_images_"+years+".csv"),
		Export:         filepath.Join(base, zone+"_"+years+".parquet"),
	}
}

// Provision creates the json, csv and img directories for the zone.
func (j *Job) Provision() error {
	for _, dir := range []string{j.Layout.JSONDir, j.Layout.CSVDir, j.Layout.ImgDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ferrors.Storage("job.Provision", err)
		}
	}
	return nil
}

// RequireCoordinates fails with a configuration error when the coordinate
// file is missing.
func (j *Job) RequireCoordinates() error {
	info, err := os.Stat(j.CoordinatesFile)
	if err != nil {
		return ferrors.Configuration("job.RequireCoordinates",
			"coordinates file %q does not exist; provide --coordinates-file or place it in the input directory", j.CoordinatesFile)
	}
	if info.IsDir() {
		return ferrors.Configuration("job.RequireCoordinates", "coordinates file %q is a directory", j.CoordinatesFile)
	}
	return nil
}

// AggregatePath returns the per-cell JSON document path.
func (j *Job) AggregatePath(cellID string) string {
	return filepath.Join(j.Layout.JSONDir, fmt.Sprintf("%s_%s.json", j.Zone, cellID))
}

// ImagePath returns where the rendition of photoID in cellID is stored.
func (j *Job) ImagePath(cellID, photoID string) string {
	return filepath.Join(j.Layout.ImgDir, cellID, fmt.Sprintf("%s_%s_%s.jpg", j.Zone, cellID, photoID))
}

// MinTakenDate is the lower date filter sent with every search.
func (j *Job) MinTakenDate() string {
	return fmt.Sprintf("%d-01-01 00:00:00", j.StartYear)
}

// MaxTakenDate is the upper date filter sent with every search.
func (j *Job) MaxTakenDate() string {
	return fmt.Sprintf("%d-12-31 23:59:59", j.EndYear)
}
