package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"flickrgrid/pkg/export"
	"flickrgrid/pkg/ui"
)

var exportOutput string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the metadata of a zone as a Parquet dataset",
	Long: `Flatten every json/<zone>_<cell>.json document of a zone into a single
Parquet file with one row per photo.`,
	Example: `  flickrgrid export --zone malaga --start-year 2015 --end-year 2024
  flickrgrid export --zone malaga --start-year 2015 --end-year 2024 -o malaga.parquet`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addJobFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "output file (default <output-dir>/<zone>/<zone>_<start>_<end>.parquet)")
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}

	path := exportOutput
	if path == "" {
		path = s.job.Layout.Export
	}

	sum, err := export.New(s.job, s.log).RunTo(path)
	if err != nil {
		ui.PrintError("Export failed", err)
		return err
	}

	ui.PrintSuccess("Export completed")
	ui.PrintInfo("Documents", strconv.Itoa(sum.Documents))
	ui.PrintInfo("Rows", strconv.Itoa(sum.Rows))
	if sum.Skipped > 0 {
		ui.PrintWarning("Unreadable entries skipped", sum.Skipped)
	}
	ui.PrintInfo("File", path)
	return nil
}
