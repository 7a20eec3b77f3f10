package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrgrid/pkg/config"
	ferrors "flickrgrid/pkg/errors"
)

func jobConfig() config.JobConfig {
	return config.DefaultConfig().Job
}

func TestNewBuildsLayoutWithoutTouchingDisk(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	jc := jobConfig()
	jc.Zone = "malaga"

	j, err := New(out, "in", jc)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "malaga"), j.Layout.Base)
	assert.Equal(t, filepath.Join(out, "malaga", "csv", "results_2015_2024.csv"), j.Layout.Results)
	assert.Equal(t, filepath.Join(out, "malaga", "csv", "results_2015_2024_cleaned.csv"), j.Layout.CleanedResults)
	assert.Equal(t, filepath.Join(out, "malaga", "csv", "checked_grids_2015_2024.csv"), j.Layout.CellLedger)
	assert.Equal(t, filepath.Join(out, "malaga", "csv", "downloaded_images_2015_2024.csv"), j.Layout.PhotoLedger)
	assert.Equal(t, filepath.Join("in", "malaga_coordinates.csv"), j.CoordinatesFile)
	assert.Equal(t, ',', j.Delimiter)
	assert.Equal(t, DefaultColumns, j.Columns)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err), "New must not create directories")
}

func TestNewRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.JobConfig)
	}{
		{"missing zone", func(jc *config.JobConfig) { jc.Zone = " " }},
		{"equal years", func(jc *config.JobConfig) { jc.StartYear, jc.EndYear = 2020, 2020 }},
		{"reversed years", func(jc *config.JobConfig) { jc.StartYear, jc.EndYear = 2021, 2020 }},
		{"empty delimiter", func(jc *config.JobConfig) { jc.Delimiter = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jc := jobConfig()
			jc.Zone = "z"
			tt.mutate(&jc)

			_, err := New(t.TempDir(), "", jc)
			require.Error(t, err)
			assert.Equal(t, ferrors.ErrorTypeConfiguration, ferrors.TypeOf(err))
		})
	}
}

func TestProvisionCreatesTree(t *testing.T) {
	jc := jobConfig()
	jc.Zone = "z"
	j, err := New(t.TempDir(), "", jc)
	require.NoError(t, err)

	require.NoError(t, j.Provision())
	for _, dir := range []string{j.Layout.JSONDir, j.Layout.CSVDir, j.Layout.ImgDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	// Idempotent
	assert.NoError(t, j.Provision())
}

func TestRequireCoordinates(t *testing.T) {
	dir := t.TempDir()
	jc := jobConfig()
	jc.Zone = "z"
	j, err := New(t.TempDir(), dir, jc)
	require.NoError(t, err)

	err = j.RequireCoordinates()
	require.Error(t, err)
	assert.Equal(t, ferrors.ErrorTypeConfiguration, ferrors.TypeOf(err))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "z_coordinates.csv"), []byte("id\n"), 0644))
	assert.NoError(t, j.RequireCoordinates())
}

func TestDerivedPathsAndDates(t *testing.T) {
	jc := jobConfig()
	jc.Zone = "z"
	jc.CoordinatesFile = "/tmp/grid.csv"
	j, err := New("/out", "", jc)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/grid.csv", j.CoordinatesFile)
	assert.Equal(t, filepath.Join("/out", "z", "json", "z_C7.json"), j.AggregatePath("C7"))
	assert.Equal(t, filepath.Join("/out", "z", "img", "C7", "z_C7_p1.jpg"), j.ImagePath("C7", "p1"))
	assert.Equal(t, "2015-01-01 00:00:00", j.MinTakenDate())
	assert.Equal(t, "2024-12-31 23:59:59", j.MaxTakenDate())
}

func TestColumnsMax(t *testing.T) {
	assert.Equal(t, 6, DefaultColumns.Max())
	assert.Equal(t, 9, Columns{X1: 9, Y1: 2, X2: 3, Y2: 4}.Max())
}
