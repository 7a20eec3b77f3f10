package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"flickrgrid/pkg/dedupe"
	"flickrgrid/pkg/ui"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Deduplicate the results file of a zone",
	Long: `Write the cleaned results file of a zone, keeping the first row seen for
each photo id. download-images does this on its own whenever the results file
is newer than the cleaned copy.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	addJobFlags(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}

	res, err := dedupe.Clean(s.job.Layout.Results, s.job.Layout.CleanedResults, s.log)
	if err != nil {
		ui.PrintError("Deduplication failed", err)
		return err
	}
	s.metrics.Duplicates(res.Removed)

	ui.PrintSuccess("Results deduplicated")
	ui.PrintInfo("Rows read", strconv.Itoa(res.Read))
	ui.PrintInfo("Rows kept", strconv.Itoa(res.Kept))
	ui.PrintInfo("Duplicates removed", strconv.Itoa(res.Removed))
	ui.PrintInfo("Cleaned file", s.job.Layout.CleanedResults)
	return s.finish("clean", nil)
}
