package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"flickrgrid/pkg/crawler"
	"flickrgrid/pkg/flickr"
	"flickrgrid/pkg/ledger"
	"flickrgrid/pkg/ratelimit"
	"flickrgrid/pkg/ui"
)

// downloadGridCmd represents the download-grid command
var downloadGridCmd = &cobra.Command{
	Use:   "download-grid",
	Short: "Search every grid cell of a zone for geotagged photos",
	Long: `Search every grid cell of a zone for geotagged photos taken between the
start and end year, appending one row per photo to the results file.

Cells already listed in the checked-grids ledger are skipped, so running the
command again resumes an interrupted crawl.`,
	Example: `  # Crawl the malaga zone using input/malaga_coordinates.csv
  flickrgrid download-grid --zone malaga --start-year 2015 --end-year 2024

  # Use a semicolon separated file with the coordinates in other columns
  flickrgrid download-grid --zone sevilla --coordinates-file grid.csv \
    --delimiter ';' --xx 1 --yx 2 --xy 3 --yy 4`,
	Args: cobra.NoArgs,
	RunE: runDownloadGrid,
}

func init() {
	rootCmd.AddCommand(downloadGridCmd)
	addJobFlags(downloadGridCmd)
	addCoordinateFlags(downloadGridCmd)
}

// addJobFlags registers the flags that identify a zone run.
func addJobFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("zone", "z", "", "zone name (env ZONE)")
	cmd.Flags().Int("start-year", 0, "first year of the taken-date window (env START_YEAR)")
	cmd.Flags().Int("end-year", 0, "last year of the taken-date window (env END_YEAR)")
}

// addCoordinateFlags registers the flags describing the coordinate file.
func addCoordinateFlags(cmd *cobra.Command) {
	cmd.Flags().String("coordinates-file", "", "coordinate file (default <input-dir>/<zone>_coordinates.csv)")
	cmd.Flags().String("delimiter", "", "coordinate file delimiter (env DELIMITER, default ',')")
	cmd.Flags().Int("xx", 0, "column of the first longitude (env XX_COLUMN, default 1)")
	cmd.Flags().Int("yx", 0, "column of the first latitude (env YX_COLUMN, default 2)")
	cmd.Flags().Int("xy", 0, "column of the second longitude (env XY_COLUMN, default 5)")
	cmd.Flags().Int("yy", 0, "column of the second latitude (env YY_COLUMN, default 6)")
}

func runDownloadGrid(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}

	throttle := ratelimit.NewFixedDelay(s.cfg.Throttle.SearchDelay)
	s.printConfiguration("Starting Flickr grid downloader",
		ui.Field{Label: "Search delay", Value: throttle.Delay().String()})

	if err := s.job.Provision(); err != nil {
		return s.finish("download-grid", err)
	}

	client := flickr.NewClient(s.cfg.Flickr, s.log)
	c := crawler.New(s.job, client, throttle, s.metrics, s.log)

	sum, err := c.Run(cmd.Context())
	if err != nil {
		ui.PrintError("Grid crawl stopped", err)
		return s.finish("download-grid", err)
	}

	ui.PrintSuccess("Grid crawl completed")
	ui.PrintInfo("Cells checked", strconv.Itoa(sum.Checked))
	ui.PrintInfo("Cells skipped", strconv.Itoa(sum.Skipped))
	ui.PrintInfo("Cells with errors", strconv.Itoa(sum.Failed))
	ui.PrintInfo("Photos found", strconv.Itoa(sum.Photos))
	ui.PrintInfo("Throttle pauses", strconv.Itoa(throttle.Waits()))
	ui.PrintInfo("Results file", s.job.Layout.Results)

	// Cells recorded by earlier runs count toward the zone totals as well.
	entries, err := ledger.OpenCells(s.job.Layout.CellLedger).Entries()
	if err != nil {
		s.log.WithError(err).Warn("Failed to read the checked-grids ledger")
		return s.finish("download-grid", nil)
	}
	var failed []string
	for _, e := range entries {
		if e.HadError {
			failed = append(failed, e.CellID)
		}
	}
	ui.PrintInfo("Zone cells done", strconv.Itoa(len(entries)))
	if len(failed) > 0 {
		ui.PrintWarning("Cells recorded with errors", strings.Join(failed, ", "))
	}
	return s.finish("download-grid", nil)
}
