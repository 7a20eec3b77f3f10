package ledger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "flickrgrid/pkg/errors"
)

func TestAppendCreatesFileAndDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csv", "checked_grids_2015_2024.csv")
	cells := OpenCells(path)

	require.NoError(t, cells.Mark(CellEntry{CellID: "Z1", Total: 1}))
	require.NoError(t, cells.Mark(CellEntry{CellID: "Z2", Total: 0, HadError: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Z1,1,False\r\nZ2,0,True\r\n", string(data))
}

func TestResultsQuoteTitles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	results := OpenResults(path)

	row := ResultRow{CellID: "Z1", Page: 1, PhotoID: "p1", Owner: "o1", Secret: "s1", Title: `sunset, "beach"`}
	require.NoError(t, results.Append(row))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Z1,1,p1,o1,s1,\"sunset, \"\"beach\"\"\"\r\n", string(data))

	rows, err := results.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)

	parsed, err := ParseResultRow(rows[0])
	require.NoError(t, err)
	assert.Equal(t, row, parsed)
}

func TestKeysMissingFile(t *testing.T) {
	keys, err := Open(filepath.Join(t.TempDir(), "nope.csv")).Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestKeysReadsLegacyLineEndings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloaded.csv")
	require.NoError(t, os.WriteFile(path, []byte("p1,ok,True\np2,error,False\r\n"), 0644))

	keys, err := Open(path).Keys()
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "p1")
	assert.Contains(t, keys, "p2")
}

func TestCellEntries(t *testing.T) {
	cells := OpenCells(filepath.Join(t.TempDir(), "cells.csv"))
	require.NoError(t, cells.Mark(CellEntry{CellID: "A", Total: 250}))
	require.NoError(t, cells.Mark(CellEntry{CellID: "B", Total: 3, HadError: true}))

	entries, err := cells.Entries()
	require.NoError(t, err)
	assert.Equal(t, []CellEntry{
		{CellID: "A", Total: 250},
		{CellID: "B", Total: 3, HadError: true},
	}, entries)
}

func TestPhotoEntryRecord(t *testing.T) {
	assert.Equal(t, []string{"p9", "error", "False"}, PhotoEntry{PhotoID: "p9", Status: StatusError}.Record())
	assert.Equal(t, []string{"p9", "ok", "True"}, PhotoEntry{PhotoID: "p9", Status: StatusOK, OK: true}.Record())
}

func TestParseResultRowErrors(t *testing.T) {
	_, err := ParseResultRow([]string{"a", "b"})
	assert.Equal(t, ferrors.ErrorTypeProtocol, ferrors.TypeOf(err))

	_, err = ParseResultRow([]string{"Z1", "x", "p", "o", "s", "t"})
	assert.Error(t, err)
}

func TestConcurrentAppendsDoNotInterleave(t *testing.T) {
	photos := OpenPhotos(filepath.Join(t.TempDir(), "photos.csv"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = photos.Mark(PhotoEntry{PhotoID: string(rune('a'+i%26)) + "x", Status: StatusOK, OK: true})
		}(i)
	}
	wg.Wait()

	rows, err := photos.Rows()
	require.NoError(t, err)
	assert.Len(t, rows, 50)
	for _, row := range rows {
		assert.Len(t, row, 3)
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("True"))
	assert.True(t, ParseBool("true"))
	assert.False(t, ParseBool("False"))
	assert.False(t, ParseBool(""))
}
