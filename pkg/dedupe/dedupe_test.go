package dedupe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "flickrgrid/pkg/errors"
	"flickrgrid/pkg/logger"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestCleanKeepsFirstOccurrence(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "results.csv")
	out := filepath.Join(dir, "results_cleaned.csv")
	writeFile(t, in, "Z1,1,p1,o1,s1,First\r\nZ1,1,p2,o2,s2,Other\r\nZ2,1,p1,o1,s1,Again\r\n")

	log := logger.NewTestLogger()
	res, err := Clean(in, out, log)
	require.NoError(t, err)

	assert.Equal(t, Result{Read: 3, Kept: 2, Removed: 1}, res)
	assert.Equal(t, "Z1,1,p1,o1,s1,First\r\nZ1,1,p2,o2,s2,Other\r\n", readFile(t, out))

	msgs := log.GetMessagesByLevel("INFO")
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, msgs[0].Fields["removed"])
}

func TestCleanIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "results.csv")
	once := filepath.Join(dir, "once.csv")
	twice := filepath.Join(dir, "twice.csv")
	writeFile(t, in, "A,1,p3,o,s,\"t, with comma\"\r\nA,2,p3,o,s,x\r\nB,1,p4,o,s,y\r\nB,1,p5,o,s,z\r\nC,1,p4,o,s,y\r\n")

	_, err := Clean(in, once, nil)
	require.NoError(t, err)
	res, err := Clean(once, twice, nil)
	require.NoError(t, err)

	assert.Equal(t, readFile(t, once), readFile(t, twice))
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 3, res.Kept)
}

func TestCleanMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := Clean(filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.csv"), nil)
	require.Error(t, err)
	assert.Equal(t, ferrors.ErrorTypeStorage, ferrors.TypeOf(err))

	_, statErr := os.Stat(filepath.Join(dir, "out.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCleanSkipsTruncatedRows(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "results.csv")
	out := filepath.Join(dir, "out.csv")
	writeFile(t, in, "Z1,1,p1,o,s,t\r\nZ1,1\r\n")

	log := logger.NewTestLogger()
	res, err := Clean(in, out, log)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Malformed)
	assert.Equal(t, 1, res.Kept)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestNeedsRefresh(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "results.csv")
	cleaned := filepath.Join(dir, "results_cleaned.csv")

	// Cleaned missing
	refresh, err := NeedsRefresh(raw, cleaned)
	require.NoError(t, err)
	assert.True(t, refresh)

	writeFile(t, raw, "Z1,1,p1,o,s,t\r\n")
	writeFile(t, cleaned, "Z1,1,p1,o,s,t\r\n")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(raw, old, old))

	refresh, err = NeedsRefresh(raw, cleaned)
	require.NoError(t, err)
	assert.False(t, refresh, "cleaned is newer than raw")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(raw, future, future))
	refresh, err = NeedsRefresh(raw, cleaned)
	require.NoError(t, err)
	assert.True(t, refresh, "raw modified after cleaned")

	require.NoError(t, os.Remove(raw))
	refresh, err = NeedsRefresh(raw, cleaned)
	require.NoError(t, err)
	assert.False(t, refresh)
}

func TestEnsureFresh(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "results.csv")
	cleaned := filepath.Join(dir, "results_cleaned.csv")
	writeFile(t, raw, "Z1,1,p1,o,s,t\r\nZ1,2,p1,o,s,t\r\n")

	res, ran, err := EnsureFresh(raw, cleaned, nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, res.Removed)

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(raw, old, old))
	_, ran, err = EnsureFresh(raw, cleaned, nil)
	require.NoError(t, err)
	assert.False(t, ran)
}
