package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"flickrgrid/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	logFile         string
	inputDir        string
	outputDir       string
	apiKey          string
	apiSecret       string
	accountName     string
	metricsTextfile string
	notify          bool
	noLogo          bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flickrgrid",
	Short: "Crawl geotagged Flickr photos over a grid of bounding boxes",
	Long: `flickrgrid collects geotagged Flickr photos for a zone covered by a grid of
bounding boxes.

The work runs in two resumable stages:
  download-grid    search every grid cell and record the photo ids found
  download-images  fetch metadata and an image for every recorded photo

Both stages keep a ledger of finished work under <output>/<zone>/csv and
skip it when run again, so an interrupted run continues where it stopped.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !noLogo && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is .flickrgrid.yaml or ~/.config/flickrgrid/config.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "also write JSON logs to this file")
	pf.StringVar(&inputDir, "input-dir", "", "directory holding <zone>_coordinates.csv")
	pf.StringVar(&outputDir, "output-dir", "", "root directory for zone output")
	pf.StringVar(&apiKey, "api-key", "", "Flickr API key (default: stored account or FLICKR_API_KEY)")
	pf.StringVar(&apiSecret, "api-secret", "", "Flickr API secret (default: stored account or FLICKR_API_SECRET)")
	pf.StringVarP(&accountName, "account", "a", "", "use a specific stored account")
	pf.StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file when a stage ends")
	pf.BoolVar(&notify, "notify", false, "send a desktop notification when a stage ends")
	pf.BoolVar(&noLogo, "no-logo", false, "do not print the logo")

	rootCmd.SetVersionTemplate(`flickrgrid {{.Version}}
Commit: ` + gitCommit + `
Built: ` + buildDate + `
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
}

// changedFlags returns the values of every flag the user set explicitly,
// keyed by flag name, in the shape config.MergeCommandLineFlags expects.
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "int":
			if v, err := cmd.Flags().GetInt(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "bool":
			if v, err := cmd.Flags().GetBool(f.Name); err == nil {
				flags[f.Name] = v
			}
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}
