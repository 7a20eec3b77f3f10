// Package ledger implements the append-only CSV logs that make both pipeline
// stages resumable: the results log written by the grid crawler, and the
// completion ledgers that record which cells and photos are already done.
//
// Files carry no header. Rows are terminated with CRLF, matching files
// written by earlier versions of the downloader so existing zones resume
// cleanly.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	ferrors "flickrgrid/pkg/errors"
)

// Log is an append-only CSV file. Appends are serialized so concurrent
// callers never interleave rows.
type Log struct {
	path string
	mu   sync.Mutex
}

// Open returns a Log for path. The file is created on first append.
func Open(path string) *Log {
	return &Log{path: path}
}

// Path returns the file backing the log.
func (l *Log) Path() string {
	return l.path
}

// Append writes one row and flushes it to disk before returning.
func (l *Log) Append(row []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return ferrors.Storage("ledger.Append", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return ferrors.Storage("ledger.Append", err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(row); err != nil {
		f.Close()
		return ferrors.Storage("ledger.Append", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return ferrors.Storage("ledger.Append", err)
	}

	if err := f.Close(); err != nil {
		return ferrors.Storage("ledger.Append", err)
	}
	return nil
}

// Rows reads every row. A missing file yields no rows and no error.
func (l *Log) Rows() ([][]string, error) {
	var rows [][]string
	err := l.Each(func(row []string) error {
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// Each streams rows to fn in file order, stopping at the first error fn returns.
// A missing file yields no rows and no error.
func (l *Log) Each(fn func(row []string) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return ferrors.Storage("ledger.Read", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return ferrors.Storage("ledger.Read", fmt.Errorf("%s: %w", l.path, err))
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

// Keys returns the set of values in the first column.
func (l *Log) Keys() (map[string]struct{}, error) {
	keys := make(map[string]struct{})
	err := l.Each(func(row []string) error {
		if len(row) > 0 && row[0] != "" {
			keys[row[0]] = struct{}{}
		}
		return nil
	})
	return keys, err
}

// FormatBool renders a flag the way the ledgers have always stored it.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// ParseBool accepts both the capitalised ledger form and strconv forms.
func ParseBool(s string) bool {
	if s == "True" {
		return true
	}
	v, _ := strconv.ParseBool(s)
	return v
}
