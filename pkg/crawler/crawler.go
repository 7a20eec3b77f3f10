// Package crawler runs the first pipeline stage: it walks every cell of a
// zone's coordinate file, pages through the photos Flickr reports inside the
// cell's bounding box, and appends one results row per photo.
//
// Progress is kept in the cell ledger. A cell is written to the ledger only
// after its pagination finishes, successfully or not, so an interrupted run
// resumes at the first cell it had not completed. A failure on any page ends
// that cell's pagination and is recorded in the ledger; rows from the pages
// before it are kept.
package crawler

import (
	"context"
	"errors"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/flickr"
	"flickrgrid/pkg/grid"
	"flickrgrid/pkg/job"
	"flickrgrid/pkg/ledger"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/metrics"
	"flickrgrid/pkg/ratelimit"
)

// Searcher runs one page of a photo search
type Searcher interface {
	Search(ctx context.Context, params flickr.SearchParams) (*flickr.SearchResponse, error)
}

// Summary describes a crawl run
type Summary struct {
	Checked int
	Skipped int
	Failed  int
	Photos  int
}

// Crawler orchestrates the grid search stage for one zone
type Crawler struct {
	job      *job.Job
	client   Searcher
	source   *grid.Source
	results  ledger.Results
	cells    ledger.Cells
	throttle ratelimit.Limiter
	metrics  *metrics.Metrics
	logger   logger.Logger
}

// New creates a crawler for j. A nil throttle disables the delay between
// cells; metrics may be nil.
func New(j *job.Job, client Searcher, throttle ratelimit.Limiter, m *metrics.Metrics, log logger.Logger) *Crawler {
	if throttle == nil {
		throttle = ratelimit.NewFixedDelay(0)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Crawler{
		job:      j,
		client:   client,
		source:   grid.NewSource(j),
		results:  ledger.OpenResults(j.Layout.Results),
		cells:    ledger.OpenCells(j.Layout.CellLedger),
		throttle: throttle,
		metrics:  m,
		logger:   log.WithField("zone", j.Zone),
	}
}

// Run checks every cell not yet in the cell ledger, in coordinate file
// order, waiting on the throttle after each one. It stops early when ctx is
// cancelled or a ledger cannot be written.
func (c *Crawler) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	if err := c.job.RequireCoordinates(); err != nil {
		return sum, err
	}

	done, err := c.cells.Keys()
	if err != nil {
		return sum, err
	}

	c.logger.InfoWithFields("Starting grid crawl", map[string]interface{}{
		"coordinates":  c.job.CoordinatesFile,
		"already_done": len(done),
		"start_year":   c.job.StartYear,
		"end_year":     c.job.EndYear,
		"delay":        c.throttle.Delay().String(),
	})

	err = c.source.Each(func(idx int, cell grid.Cell) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, ok := done[cell.ID]; ok {
			c.logger.DebugWithFields("Grid already done. Skipping.", map[string]interface{}{
				"cell": cell.ID,
			})
			c.metrics.CellSkipped()
			sum.Skipped++
			return nil
		}

		c.logger.InfoWithFields("Checking grid", map[string]interface{}{
			"index": idx,
			"cell":  cell.ID,
		})

		entry, err := c.CheckZone(ctx, cell)
		if err != nil {
			return err
		}
		done[cell.ID] = struct{}{}

		sum.Checked++
		sum.Photos += entry.Total
		if entry.HadError {
			sum.Failed++
		}

		return c.throttle.Wait(ctx)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.WarnWithFields("Grid crawl interrupted", map[string]interface{}{
				"checked": sum.Checked,
			})
		}
		return sum, err
	}

	c.logger.InfoWithFields("Zone done", map[string]interface{}{
		"checked": sum.Checked,
		"skipped": sum.Skipped,
		"failed":  sum.Failed,
		"photos":  sum.Photos,
	})
	return sum, nil
}

// CheckZone pages through the search results of one cell, appending a
// results row per photo, and records the cell in the ledger. A failed search
// stops the pagination and marks the cell as errored; it is not returned.
// Storage failures and cancellation are returned and leave the cell out of
// the ledger.
func (c *Crawler) CheckZone(ctx context.Context, cell grid.Cell) (ledger.CellEntry, error) {
	entry := ledger.CellEntry{CellID: cell.ID}
	bbox := cell.BBox()
	log := c.logger.WithField("cell", cell.ID)

	if b, err := cell.Bound(); err == nil {
		log.DebugWithFields("Cell bounds", map[string]interface{}{
			"bbox":   bbox,
			"center": b.Center(),
		})
	}

	for page, pages := 1, 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return ledger.CellEntry{}, err
		}

		resp, err := c.client.Search(ctx, flickr.SearchParams{
			BBox:         bbox,
			MinTakenDate: c.job.MinTakenDate(),
			MaxTakenDate: c.job.MaxTakenDate(),
			Sort:         flickr.SortDatePostedAsc,
			Page:         page,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ledger.CellEntry{}, ctxErr
			}
			c.metrics.SearchPage(false)
			entry.HadError = true
			log.WithError(err).ErrorWithFields("Error in grid page", map[string]interface{}{
				"page": page,
			})
			break
		}
		if !resp.OK() {
			c.metrics.SearchPage(false)
			entry.HadError = true
			log.WithError(ferrors.Protocol(flickr.MethodSearch, "stat %q: %s", resp.Stat, resp.Message)).
				ErrorWithFields("Error in grid page", map[string]interface{}{
					"page": page,
				})
			break
		}
		c.metrics.SearchPage(true)

		photos := resp.Photos.Photo
		if len(photos) == 0 {
			log.WarnWithFields("No photos found in grid page", map[string]interface{}{
				"page": page,
			})
		}
		if page == 1 && int(resp.Photos.Total) > flickr.MaxSearchResults {
			log.WarnWithFields("Cell exceeds the search result cap; split it to see every photo", map[string]interface{}{
				"total": int(resp.Photos.Total),
				"cap":   flickr.MaxSearchResults,
			})
		}

		for _, p := range photos {
			row := ledger.ResultRow{
				CellID:  cell.ID,
				Page:    page,
				PhotoID: p.ID,
				Owner:   p.Owner,
				Secret:  p.Secret,
				Title:   p.Title,
			}
			if err := c.results.Append(row); err != nil {
				return ledger.CellEntry{}, err
			}
		}
		c.metrics.ResultRows(len(photos))
		entry.Total += len(photos)
		pages = int(resp.Photos.Pages)
	}

	if err := c.cells.Mark(entry); err != nil {
		return ledger.CellEntry{}, err
	}
	c.metrics.CellDone(entry.HadError)

	log.InfoWithFields("Grid checked", map[string]interface{}{
		"photos":    entry.Total,
		"had_error": entry.HadError,
	})
	return entry, nil
}
