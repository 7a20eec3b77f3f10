package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrgrid/pkg/config"
	"flickrgrid/pkg/ui"
)

// isolate keeps user configuration and environment out of a command test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	for _, name := range []string{
		"FLICKR_API_KEY", "FLICKR_API_SECRET", "ZONE", "COORDINATES_FILE", "DELIMITER",
		"START_YEAR", "END_YEAR", "XX_COLUMN", "YX_COLUMN", "XY_COLUMN", "YY_COLUMN",
		"DOWNLOAD_RAW", "FLICKRGRID_INPUT_DIR", "FLICKRGRID_OUTPUT_DIR",
		"FLICKRGRID_LOG_LEVEL", "FLICKRGRID_METRICS_TEXTFILE",
	} {
		t.Setenv(name, "")
	}

	prev := ui.SetOutput(io.Discard)
	t.Cleanup(func() { ui.SetOutput(prev) })

	configFile = ""
	notify = false
}

func zoneCommand(run func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{Use: "test", RunE: run}
	addJobFlags(cmd)
	cmd.Flags().String("output-dir", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("metrics-textfile", "", "")
	return cmd
}

func TestChangedFlagsOnlyReportsSetFlags(t *testing.T) {
	cmd := zoneCommand(nil)
	addCoordinateFlags(cmd)
	cmd.Flags().Bool("raw", false, "")

	require.NoError(t, cmd.ParseFlags([]string{"--zone", "malaga", "--xx", "3", "--raw", "--delimiter", ";"}))

	flags := changedFlags(cmd)
	assert.Equal(t, map[string]interface{}{
		"zone":      "malaga",
		"xx":        3,
		"raw":       true,
		"delimiter": ";",
	}, flags)

	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(flags)
	assert.Equal(t, "malaga", cfg.Job.Zone)
	assert.Equal(t, 3, cfg.Job.Columns.X1)
	assert.Equal(t, 2, cfg.Job.Columns.Y1)
	assert.True(t, cfg.Job.RawMetadata)
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "flickrgrid.yaml")
	configFile = path
	t.Cleanup(func() { configFile = "" })

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runConfigInit(cmd, nil))
	assert.Contains(t, out.String(), "flickrgrid auth login")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 700*time.Millisecond, cfg.Throttle.SearchDelay)
	assert.Equal(t, 300*time.Millisecond, cfg.Throttle.PhotoDelay)
	assert.Equal(t, 5, cfg.Job.Columns.X2)

	assert.Error(t, runConfigInit(cmd, nil), "init must not overwrite an existing file")
}

func TestCleanCommandDeduplicatesResults(t *testing.T) {
	isolate(t)
	out := t.TempDir()
	textfile := filepath.Join(t.TempDir(), "flickrgrid.prom")

	results := filepath.Join(out, "malaga", "csv", "results_2015_2016.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(results), 0755))
	require.NoError(t, os.WriteFile(results, []byte("7,1,p1,o,s,A\r\n7,1,p2,o,s,B\r\n8,1,p1,o,s,A\r\n"), 0644))

	cmd := zoneCommand(runClean)
	require.NoError(t, cmd.ParseFlags([]string{
		"--zone", "malaga", "--start-year", "2015", "--end-year", "2016",
		"--output-dir", out, "--log-level", "error", "--metrics-textfile", textfile,
	}))
	require.NoError(t, runClean(cmd, nil))

	cleaned, err := os.ReadFile(filepath.Join(out, "malaga", "csv", "results_2015_2016_cleaned.csv"))
	require.NoError(t, err)
	assert.Equal(t, "7,1,p1,o,s,A\r\n7,1,p2,o,s,B\r\n", string(cleaned))

	prom, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `flickrgrid_duplicate_rows_total{zone="malaga"} 1`)
}

func TestSessionRequiresZone(t *testing.T) {
	isolate(t)

	cmd := zoneCommand(runClean)
	require.NoError(t, cmd.ParseFlags([]string{"--output-dir", t.TempDir()}))

	_, err := newSession(cmd, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone is required")
}

func TestSessionUsesCredentialFlags(t *testing.T) {
	isolate(t)
	accountName = ""

	cmd := zoneCommand(nil)
	cmd.Flags().String("api-key", "", "")
	cmd.Flags().String("api-secret", "", "")
	require.NoError(t, cmd.ParseFlags([]string{
		"--zone", "malaga", "--start-year", "2015", "--end-year", "2016",
		"--output-dir", t.TempDir(), "--log-level", "error",
		"--api-key", "key", "--api-secret", "secret",
	}))

	s, err := newSession(cmd, true)
	require.NoError(t, err)
	assert.Equal(t, "key", s.cfg.Flickr.APIKey)
	assert.Equal(t, "secret", s.cfg.Flickr.APISecret)
	assert.NotEmpty(t, s.runID)
	assert.Equal(t, "malaga", s.job.Zone)
}

func TestConfigValidateCountsGridCells(t *testing.T) {
	isolate(t)
	accountName = ""
	in := t.TempDir()
	coords := "id;x1;y1;vi;vp;x2;y2\n" +
		"Z1;10,1;20,2;3;0;10,2;20,1\n" +
		"Z2;11,1;21,2;3;0;11,2;21,1\n"
	require.NoError(t, os.WriteFile(filepath.Join(in, "malaga_coordinates.csv"), []byte(coords), 0644))

	cmd := zoneCommand(runConfigValidate)
	addCoordinateFlags(cmd)
	cmd.Flags().String("input-dir", "", "")
	cmd.Flags().String("api-key", "", "")
	cmd.Flags().String("api-secret", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ParseFlags([]string{
		"--zone", "malaga", "--start-year", "2015", "--end-year", "2016",
		"--input-dir", in, "--output-dir", t.TempDir(), "--delimiter", ";",
		"--api-key", "key", "--api-secret", "secret",
	}))

	require.NoError(t, runConfigValidate(cmd, nil))
	assert.Contains(t, out.String(), "Grid cells: 2")
	assert.NotContains(t, out.String(), "  - ")
}
