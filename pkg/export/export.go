// Package export flattens a zone's aggregate documents into a single Parquet
// dataset, one row per photo entry.
package export

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"flickrgrid/pkg/aggregate"
	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/job"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/photo"
	"flickrgrid/pkg/storage"
)

// Row is one photo in the exported dataset. Raw-mode entries only fill the
// columns a raw entry carries.
type Row struct {
	Zone            string   `parquet:"zone"`
	CellID          string   `parquet:"cell_id"`
	PhotoID         string   `parquet:"photo_id"`
	MetadataFormat  string   `parquet:"metadata_format"`
	Title           string   `parquet:"title"`
	DescriptionText string   `parquet:"description_text"`
	CreatedAt       string   `parquet:"created_at"`
	TakenAt         string   `parquet:"taken_at"`
	Views           string   `parquet:"views"`
	Comments        string   `parquet:"comments"`
	AuthorID        string   `parquet:"author_id"`
	Username        string   `parquet:"username"`
	Tags            []string `parquet:"tags,list"`
	Longitude       *float64 `parquet:"longitude,optional"`
	Latitude        *float64 `parquet:"latitude,optional"`
	Locality        string   `parquet:"locality"`
	Country         string   `parquet:"country"`
	ImageURL        string   `parquet:"image_url"`
	ImageDownloaded bool     `parquet:"image_downloaded"`
}

// Summary reports what an export wrote.
type Summary struct {
	Documents int
	Rows      int
	Skipped   int
}

// Exporter writes the Parquet dataset for a job.
type Exporter struct {
	job    *job.Job
	store  *aggregate.Store
	logger logger.Logger
}

// New creates an Exporter
func New(j *job.Job, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Exporter{
		job:    j,
		store:  aggregate.NewStore(log),
		logger: log.WithField("zone", j.Zone),
	}
}

// Collect reads every aggregate document of the zone into rows ordered by
// document name, then photo id.
func (e *Exporter) Collect() ([]Row, Summary, error) {
	var rows []Row
	var sum Summary

	err := e.store.Walk(e.job.Layout.JSONDir, func(path string, doc aggregate.Document) error {
		sum.Documents++
		cellID := e.cellFromPath(path)
		for _, id := range doc.IDs() {
			row, err := e.flatten(cellID, id, doc[id])
			if err != nil {
				sum.Skipped++
				e.logger.WithError(err).WarnWithFields("Skipping unreadable entry", map[string]interface{}{
					"file":     filepath.Base(path),
					"photo_id": id,
				})
				continue
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, sum, err
	}

	sum.Rows = len(rows)
	return rows, sum, nil
}

// Run collects the rows and writes them to the job's export path.
func (e *Exporter) Run() (Summary, error) {
	return e.RunTo(e.job.Layout.Export)
}

// RunTo collects the rows and writes them to path.
func (e *Exporter) RunTo(path string) (Summary, error) {
	rows, sum, err := e.Collect()
	if err != nil {
		return sum, err
	}

	err = storage.WriteFileAtomic(path, func(w io.Writer) error {
		writer := parquet.NewGenericWriter[Row](w)
		if _, err := writer.Write(rows); err != nil {
			return err
		}
		return writer.Close()
	})
	if err != nil {
		return sum, ferrors.Storage("export.Run", err)
	}

	e.logger.InfoWithFields("Export written", map[string]interface{}{
		"path":      path,
		"documents": sum.Documents,
		"rows":      sum.Rows,
		"skipped":   sum.Skipped,
	})
	return sum, nil
}

func (e *Exporter) cellFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return strings.TrimPrefix(name, e.job.Zone+"_")
}

type formatProbe struct {
	MetadataFormat string `json:"metadata_format"`
}

func (e *Exporter) flatten(cellID, photoID string, raw json.RawMessage) (Row, error) {
	var probe formatProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Row{}, err
	}

	row := Row{Zone: e.job.Zone, CellID: cellID, PhotoID: photoID, Tags: []string{}}

	if probe.MetadataFormat == photo.FormatRaw {
		var rec photo.RawRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return Row{}, err
		}
		row.MetadataFormat = photo.FormatRaw
		row.Title = rec.Title
		row.ImageURL = rec.URL
		row.ImageDownloaded = rec.Downloaded
		return row, nil
	}

	var rec photo.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Row{}, err
	}
	if rec.BoxID != "" {
		row.CellID = rec.BoxID
	}
	row.MetadataFormat = photo.FormatCustom
	row.Title = rec.Text
	row.DescriptionText = rec.DescriptionText
	row.CreatedAt = rec.CreatedAt
	row.TakenAt = rec.TakenAt
	row.Views = rec.ViewsCount
	row.Comments = rec.ReplyCount
	row.AuthorID = rec.AuthorID
	row.Username = rec.Username
	row.Longitude = rec.Geo.Coordinates.Coordinates[0]
	row.Latitude = rec.Geo.Coordinates.Coordinates[1]
	row.ImageURL = rec.ImageURL
	row.ImageDownloaded = rec.ImageDownloaded
	if rec.Tags != nil {
		row.Tags = rec.Tags
	}
	if rec.Geo.Locality != nil {
		row.Locality = rec.Geo.Locality.Content
	}
	if rec.Geo.Country != nil {
		row.Country = rec.Geo.Country.Content
	}
	return row, nil
}
