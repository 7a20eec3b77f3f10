package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"flickrgrid/internal/downloader"
	"flickrgrid/pkg/fetcher"
	"flickrgrid/pkg/flickr"
	"flickrgrid/pkg/photo"
	"flickrgrid/pkg/ratelimit"
	"flickrgrid/pkg/storage"
	"flickrgrid/pkg/ui"
)

// downloadImagesCmd represents the download-images command
var downloadImagesCmd = &cobra.Command{
	Use:   "download-images",
	Short: "Fetch metadata and images for every photo found by download-grid",
	Long: `Fetch metadata and an image for every photo listed in the deduplicated
results of a zone.

The results file is deduplicated first whenever it is newer than the cleaned
copy. Metadata is merged into json/<zone>_<cell>.json and images are saved
under img/<cell>/. Photos already listed in the downloaded-images ledger are
skipped.`,
	Example: `  # Fetch normalized metadata and images for malaga
  flickrgrid download-images --zone malaga --start-year 2015 --end-year 2024

  # Keep the getInfo payload exactly as Flickr returns it
  flickrgrid download-images --zone malaga --start-year 2015 --end-year 2024 --raw`,
	Args: cobra.NoArgs,
	RunE: runDownloadImages,
}

func init() {
	rootCmd.AddCommand(downloadImagesCmd)
	addJobFlags(downloadImagesCmd)
	downloadImagesCmd.Flags().Bool("raw", false, "store the raw getInfo payload instead of the normalized record (env DOWNLOAD_RAW)")
}

func runDownloadImages(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}

	format := photo.FormatCustom
	if s.job.RawMetadata {
		format = photo.FormatRaw
	}
	throttle := ratelimit.NewFixedDelay(s.cfg.Throttle.PhotoDelay)
	s.printConfiguration("Starting Flickr image downloader",
		ui.Field{Label: "Metadata", Value: format},
		ui.Field{Label: "Photo delay", Value: throttle.Delay().String()})

	if err := s.job.Provision(); err != nil {
		return s.finish("download-images", err)
	}

	client := flickr.NewClient(s.cfg.Flickr, s.log)
	images := storage.NewImageStore(s.job.ImagePath)
	dl := downloader.New(s.cfg.Flickr.DownloadTimeout, images, s.log)

	f := fetcher.New(s.job, client, dl, fetcher.Config{
		ImageBaseURL: s.cfg.Flickr.ImageBaseURL,
		Throttle:     throttle,
		Metrics:      s.metrics,
		Logger:       s.log,
	})

	sum, err := f.Run(cmd.Context())
	if err != nil {
		ui.PrintError("Image download stopped", err)
		return s.finish("download-images", err)
	}

	ui.PrintSuccess("Image download completed")
	ui.PrintInfo("Photos processed", strconv.Itoa(sum.Processed))
	ui.PrintInfo("Photos skipped", strconv.Itoa(sum.Skipped))
	ui.PrintInfo("Images downloaded", strconv.Itoa(sum.Downloaded))
	ui.PrintInfo("Image files written", strconv.Itoa(images.SavedCount()))
	ui.PrintInfo("Failures", strconv.Itoa(sum.Failed))
	ui.PrintInfo("Throttle pauses", strconv.Itoa(throttle.Waits()))
	ui.PrintInfo("Metadata", s.job.Layout.JSONDir)
	return s.finish("download-images", nil)
}
