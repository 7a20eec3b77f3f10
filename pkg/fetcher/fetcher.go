// Package fetcher runs the second pipeline stage. For every photo in the
// deduplicated results it fetches the photo detail, downloads the large
// rendition, merges an entry into the cell's aggregate document, and
// records the photo in the photo ledger.
//
// A photo is written to the ledger only after its aggregate entry is
// stored, so a photo is either fully processed or retried on the next run.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"flickrgrid/internal/downloader"
	"flickrgrid/pkg/aggregate"
	"flickrgrid/pkg/dedupe"
	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/flickr"
	"flickrgrid/pkg/job"
	"flickrgrid/pkg/ledger"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/metrics"
	"flickrgrid/pkg/photo"
	"flickrgrid/pkg/ratelimit"
)

// InfoClient fetches the detail of one photo
type InfoClient interface {
	GetInfo(ctx context.Context, photoID string) (*flickr.PhotoInfo, error)
}

// ImageDownloader fetches one image into storage
type ImageDownloader interface {
	Download(ctx context.Context, job downloader.Job) downloader.Result
}

// Summary describes a fetch run
type Summary struct {
	Total      int
	Processed  int
	Skipped    int
	Downloaded int
	Failed     int
	Malformed  int
}

// Fetcher orchestrates the image and metadata stage for one zone
type Fetcher struct {
	job          *job.Job
	client       InfoClient
	downloader   ImageDownloader
	store        *aggregate.Store
	photos       ledger.Photos
	imageBaseURL string
	throttle     ratelimit.Limiter
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// Config holds the fetcher's optional collaborators
type Config struct {
	ImageBaseURL string
	Throttle     ratelimit.Limiter
	Metrics      *metrics.Metrics
	Logger       logger.Logger
}

// New creates a fetcher for j
func New(j *job.Job, client InfoClient, dl ImageDownloader, cfg Config) *Fetcher {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	throttle := cfg.Throttle
	if throttle == nil {
		throttle = ratelimit.NewFixedDelay(0)
	}
	base := cfg.ImageBaseURL
	if base == "" {
		base = flickr.DefaultImageBaseURL
	}
	log = log.WithField("zone", j.Zone)

	return &Fetcher{
		job:          j,
		client:       client,
		downloader:   dl,
		store:        aggregate.NewStore(log),
		photos:       ledger.OpenPhotos(j.Layout.PhotoLedger),
		imageBaseURL: base,
		throttle:     throttle,
		metrics:      cfg.Metrics,
		logger:       log,
	}
}

// Run refreshes the cleaned results when the raw results are newer, then
// processes every cleaned row whose photo is not yet in the ledger, in file
// order, waiting on the throttle after each one.
func (f *Fetcher) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	layout := f.job.Layout

	if !exists(layout.Results) && !exists(layout.CleanedResults) {
		return sum, ferrors.Configuration("fetcher.Run",
			"results file %q does not exist; run download-grid first", layout.Results)
	}

	res, refreshed, err := dedupe.EnsureFresh(layout.Results, layout.CleanedResults, f.logger)
	if err != nil {
		return sum, err
	}
	if refreshed {
		f.metrics.Duplicates(res.Removed)
	}

	done, err := f.photos.Keys()
	if err != nil {
		return sum, err
	}

	rows, err := ledger.Open(layout.CleanedResults).Rows()
	if err != nil {
		return sum, err
	}
	sum.Total = len(rows)

	f.logger.InfoWithFields("Downloading images", map[string]interface{}{
		"photos": sum.Total,
		"delay":  f.throttle.Delay().String(),
	})
	if len(done) > 0 {
		f.logger.InfoWithFields("Skipping already downloaded photos", map[string]interface{}{
			"count": len(done),
		})
	}

	for i, rec := range rows {
		if err := ctx.Err(); err != nil {
			return sum, f.interrupted(sum, err)
		}

		row, err := ledger.ParseResultRow(rec)
		if err != nil {
			sum.Malformed++
			f.logger.WithError(err).WarnWithFields("Skipping malformed result row", map[string]interface{}{
				"line": i + 1,
			})
			continue
		}

		if _, ok := done[row.PhotoID]; ok {
			f.metrics.PhotoSkipped()
			sum.Skipped++
			continue
		}

		f.logger.InfoWithFields("Processing photo", map[string]interface{}{
			"progress": fmt.Sprintf("%d/%d", i+1, sum.Total),
			"cell":     row.CellID,
			"photo_id": row.PhotoID,
		})

		entry, err := f.ProcessPhoto(ctx, row)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return sum, f.interrupted(sum, err)
			}
			return sum, err
		}
		done[row.PhotoID] = struct{}{}

		sum.Processed++
		if entry.OK {
			sum.Downloaded++
		} else {
			sum.Failed++
		}

		if err := f.throttle.Wait(ctx); err != nil {
			return sum, f.interrupted(sum, err)
		}
	}

	f.logger.InfoWithFields("Finished downloading images", map[string]interface{}{
		"processed":  sum.Processed,
		"skipped":    sum.Skipped,
		"downloaded": sum.Downloaded,
		"failed":     sum.Failed,
	})
	return sum, nil
}

func (f *Fetcher) interrupted(sum Summary, err error) error {
	f.logger.WarnWithFields("Image download interrupted", map[string]interface{}{
		"processed": sum.Processed,
	})
	return err
}

// ProcessPhoto handles one results row. A failed detail request is recorded
// in the ledger as an error and not returned. A failed image download is
// recorded in both the aggregate entry and the ledger. Storage failures and
// cancellation are returned without touching the ledger.
func (f *Fetcher) ProcessPhoto(ctx context.Context, row ledger.ResultRow) (ledger.PhotoEntry, error) {
	log := f.logger.WithFields(map[string]interface{}{
		"cell":     row.CellID,
		"photo_id": row.PhotoID,
	})

	info, err := f.client.GetInfo(ctx, row.PhotoID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ledger.PhotoEntry{}, ctxErr
		}
		log.WithError(err).Error("Photo detail not available")
		return f.mark(ledger.PhotoEntry{PhotoID: row.PhotoID, Status: ledger.StatusError})
	}

	d := info.Photo
	url := flickr.ImageURL(f.imageBaseURL, d.Server, row.PhotoID, d.Secret, d.Format())

	res := f.downloader.Download(ctx, downloader.Job{
		URL:     url,
		CellID:  row.CellID,
		PhotoID: row.PhotoID,
	})
	if res.Error != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ledger.PhotoEntry{}, ctxErr
		}
	}
	f.metrics.ImageBytes(res.Size)

	// The original rendition is never requested.
	const original = false

	var entry interface{}
	if f.job.RawMetadata {
		entry = photo.NewRaw(row.Title, url, res.Success, original, info.Raw)
	} else {
		entry = photo.Build(row.PhotoID, row.CellID, d, url, res.Success, original)
	}
	if err := f.store.Put(f.job.AggregatePath(row.CellID), row.PhotoID, entry); err != nil {
		return ledger.PhotoEntry{}, err
	}

	status := ledger.StatusOK
	if !res.Success {
		status = ledger.StatusError
	}
	return f.mark(ledger.PhotoEntry{PhotoID: row.PhotoID, Status: status, OK: res.Success})
}

func (f *Fetcher) mark(entry ledger.PhotoEntry) (ledger.PhotoEntry, error) {
	if err := f.photos.Mark(entry); err != nil {
		return ledger.PhotoEntry{}, err
	}
	f.metrics.PhotoDone(entry.OK)
	return entry, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
