package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/logger"
)

// DefaultTimeout bounds a single image download
const DefaultTimeout = 60 * time.Second

// Job represents a single image to fetch
type Job struct {
	URL     string
	CellID  string
	PhotoID string
}

// Result represents the outcome of a download job
type Result struct {
	Job      Job
	Success  bool
	Path     string
	Size     int64
	Duration time.Duration
	Error    error
}

// ImageStorage persists downloaded image bytes
type ImageStorage interface {
	Save(r io.Reader, cellID, photoID string) (string, error)
}

// Downloader fetches photo renditions one at a time and hands the body to
// storage without buffering it in memory.
type Downloader struct {
	httpClient *http.Client
	storage    ImageStorage
	logger     logger.Logger
}

// New creates a downloader. A zero timeout uses DefaultTimeout.
func New(timeout time.Duration, storage ImageStorage, log logger.Logger) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Downloader{
		httpClient: &http.Client{Timeout: timeout},
		storage:    storage,
		logger:     log,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (d *Downloader) SetHTTPClient(h *http.Client) {
	d.httpClient = h
}

// Download fetches job.URL into storage. Failures are reported in the
// result, never by panicking, and leave no partial file behind.
func (d *Downloader) Download(ctx context.Context, job Job) Result {
	const op = "downloader.Download"
	start := time.Now()
	result := Result{Job: job}

	fail := func(err error) Result {
		result.Error = err
		result.Duration = time.Since(start)
		d.logger.ErrorWithFields("Image not downloaded", map[string]interface{}{
			"url":      job.URL,
			"photo_id": job.PhotoID,
			"error":    err.Error(),
			"duration": result.Duration,
		})
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fail(ferrors.Transport(op, 0, err))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		return fail(ferrors.Transport(op, 0, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fail(ferrors.Transport(op, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)))
	}

	body := &countingReader{r: resp.Body}
	path, err := d.storage.Save(body, job.CellID, job.PhotoID)
	if err != nil {
		return fail(ferrors.Storage(op, err))
	}

	result.Success = true
	result.Path = path
	result.Size = body.n
	result.Duration = time.Since(start)

	d.logger.DebugWithFields("Image downloaded", map[string]interface{}{
		"photo_id": job.PhotoID,
		"path":     path,
		"size":     result.Size,
		"duration": result.Duration,
	})

	return result
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
