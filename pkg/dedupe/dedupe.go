// Package dedupe collapses the raw results log to one row per photo.
//
// The grid crawler appends a row for every photo on every page of every
// cell, so a photo on the edge of two cells, or one that shifted pages
// between requests, appears more than once. The fetcher works from the
// deduplicated file instead.
package dedupe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/ledger"
	"flickrgrid/pkg/logger"
	"flickrgrid/pkg/storage"
)

// Result summarises one deduplication pass
type Result struct {
	Read      int
	Kept      int
	Removed   int
	Malformed int
}

// Clean reads in, keeps the first row seen for each photo id, and writes the
// survivors to out in their original order. out is replaced atomically.
// Running Clean on its own output yields identical output.
func Clean(in, out string, log logger.Logger) (Result, error) {
	const op = "dedupe.Clean"
	if log == nil {
		log = logger.NewNopLogger()
	}

	if _, err := os.Stat(in); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, ferrors.Storage(op, fmt.Errorf("input file %q does not exist", in))
		}
		return Result{}, ferrors.Storage(op, err)
	}

	var res Result
	seen := make(map[string]struct{})
	var kept [][]string

	err := ledger.Open(in).Each(func(row []string) error {
		res.Read++
		if len(row) <= ledger.PhotoIDColumn {
			res.Malformed++
			return nil
		}
		id := row[ledger.PhotoIDColumn]
		if _, dup := seen[id]; dup {
			return nil
		}
		seen[id] = struct{}{}
		kept = append(kept, append([]string(nil), row...))
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	err = storage.WriteFileAtomic(out, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		cw.UseCRLF = true
		if err := cw.WriteAll(kept); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return Result{}, ferrors.Storage(op, err)
	}

	res.Kept = len(kept)
	res.Removed = res.Read - res.Kept

	fields := map[string]interface{}{
		"input":   filepath.Base(in),
		"output":  filepath.Base(out),
		"read":    res.Read,
		"kept":    res.Kept,
		"removed": res.Removed,
	}
	if res.Malformed > 0 {
		fields["malformed"] = res.Malformed
		log.WarnWithFields("Skipped malformed result rows", fields)
	}
	log.InfoWithFields("Results deduplicated", fields)

	return res, nil
}

// NeedsRefresh reports whether cleaned must be regenerated from raw: it is
// missing, or raw has been modified after it. A missing raw file with an
// existing cleaned file does not require a refresh.
func NeedsRefresh(raw, cleaned string) (bool, error) {
	cleanedInfo, err := os.Stat(cleaned)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, ferrors.Storage("dedupe.NeedsRefresh", err)
	}

	rawInfo, err := os.Stat(raw)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, ferrors.Storage("dedupe.NeedsRefresh", err)
	}

	return rawInfo.ModTime().After(cleanedInfo.ModTime()), nil
}

// EnsureFresh regenerates cleaned from raw when NeedsRefresh says so.
// The returned bool reports whether Clean ran.
func EnsureFresh(raw, cleaned string, log logger.Logger) (Result, bool, error) {
	refresh, err := NeedsRefresh(raw, cleaned)
	if err != nil || !refresh {
		return Result{}, false, err
	}
	res, err := Clean(raw, cleaned, log)
	return res, err == nil, err
}
