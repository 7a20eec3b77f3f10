// Package metrics exposes pipeline counters through a Prometheus registry.
//
// A run owns one Metrics value. At the end of the run the command layer can
// dump it to a node_exporter textfile so batch jobs show up in existing
// monitoring without running an HTTP server.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors for one run. All methods are safe to call on
// a nil *Metrics, which records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cells        *prometheus.CounterVec
	cellsSkipped prometheus.Counter
	searchPages  *prometheus.CounterVec
	resultRows   prometheus.Counter

	photos        *prometheus.CounterVec
	photosSkipped prometheus.Counter
	imageBytes    prometheus.Counter
	duplicates    prometheus.Counter
}

// New creates a Metrics value with a fresh registry labelled with zone.
func New(zone string) (*Metrics, error) {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"zone": zone}

	m := &Metrics{
		registry: reg,
		cells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flickrgrid_cells_total",
			Help:        "Grid cells crawled, partitioned by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		cellsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flickrgrid_cells_skipped_total",
			Help:        "Grid cells skipped because the ledger already held them.",
			ConstLabels: labels,
		}),
		searchPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flickrgrid_search_pages_total",
			Help:        "Search pages requested, partitioned by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		resultRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flickrgrid_result_rows_total",
			Help:        "Result rows appended to the results log.",
			ConstLabels: labels,
		}),
		photos: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "flickrgrid_photos_total",
			Help:        "Photos processed, partitioned by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		photosSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flickrgrid_photos_skipped_total",
			Help:        "Photos skipped because the ledger already held them.",
			ConstLabels: labels,
		}),
		imageBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flickrgrid_image_bytes_total",
			Help:        "Bytes of image data written to disk.",
			ConstLabels: labels,
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "flickrgrid_duplicate_rows_total",
			Help:        "Result rows dropped by deduplication.",
			ConstLabels: labels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.cells, m.cellsSkipped, m.searchPages, m.resultRows,
		m.photos, m.photosSkipped, m.imageBytes, m.duplicates,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry holding every collector
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func result(ok bool) string {
	if ok {
		return ResultOK
	}
	return ResultError
}

// CellDone counts a crawled cell
func (m *Metrics) CellDone(hadError bool) {
	if m == nil {
		return
	}
	m.cells.WithLabelValues(result(!hadError)).Inc()
}

// CellSkipped counts a cell already present in the ledger
func (m *Metrics) CellSkipped() {
	if m == nil {
		return
	}
	m.cellsSkipped.Inc()
}

// SearchPage counts one search request
func (m *Metrics) SearchPage(ok bool) {
	if m == nil {
		return
	}
	m.searchPages.WithLabelValues(result(ok)).Inc()
}

// ResultRows counts rows appended to the results log
func (m *Metrics) ResultRows(n int) {
	if m == nil {
		return
	}
	m.resultRows.Add(float64(n))
}

// PhotoDone counts a processed photo
func (m *Metrics) PhotoDone(ok bool) {
	if m == nil {
		return
	}
	m.photos.WithLabelValues(result(ok)).Inc()
}

// PhotoSkipped counts a photo already present in the ledger
func (m *Metrics) PhotoSkipped() {
	if m == nil {
		return
	}
	m.photosSkipped.Inc()
}

// ImageBytes counts bytes written for downloaded images
func (m *Metrics) ImageBytes(n int64) {
	if m == nil {
		return
	}
	m.imageBytes.Add(float64(n))
}

// Duplicates counts rows removed by deduplication
func (m *Metrics) Duplicates(n int) {
	if m == nil {
		return
	}
	m.duplicates.Add(float64(n))
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// replacing the file atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
