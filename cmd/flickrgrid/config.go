package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flickrgrid/pkg/auth"
	"flickrgrid/pkg/config"
	"flickrgrid/pkg/grid"
	"flickrgrid/pkg/job"
	"flickrgrid/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage flickrgrid configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.flickrgrid.yaml'
unless a different path is specified with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging every source.

The API key and secret are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration.

This command checks:
  - YAML syntax and value types
  - Year range, delimiter and coordinate columns
  - Whether a zone, its coordinate file and an API key pair are available`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# flickrgrid configuration file
#
# Environment variables override these values:
#   FLICKR_API_KEY, FLICKR_API_SECRET, ZONE, COORDINATES_FILE, DELIMITER,
#   START_YEAR, END_YEAR, XX_COLUMN, YX_COLUMN, XY_COLUMN, YY_COLUMN,
#   DOWNLOAD_RAW, FLICKRGRID_INPUT_DIR, FLICKRGRID_OUTPUT_DIR,
#   FLICKRGRID_LOG_LEVEL, FLICKRGRID_METRICS_TEXTFILE

# Flickr API access
flickr:
  # Prefer 'flickrgrid auth login' over storing the key pair here
  api_key: ""
  api_secret: ""
  base_url: "https://www.flickr.com/services/rest/"
  image_base_url: "https://live.staticflickr.com"
  timeout: 30s
  download_timeout: 60s

# Input and output roots
paths:
  # Holds <zone>_coordinates.csv
  input_dir: "./input"
  # Receives <zone>/{csv,json,img}
  output_dir: "./output"

# The zone to crawl
job:
  zone: ""
  start_year: 2015
  end_year: 2024
  # Default: <input_dir>/<zone>_coordinates.csv
  coordinates_file: ""
  delimiter: ","
  # 0-based columns of the bounding box corners; column 0 is the cell id
  columns:
    x1: 1
    y1: 2
    x2: 5
    y2: 6
  # Store the getInfo payload as received instead of the normalized record
  raw_metadata: false

# Fixed delays between requests
throttle:
  search_delay: 700ms
  photo_delay: 300ms

# Logging configuration
logging:
  # debug, info, warn, error
  level: "info"
  # Optional JSON log file
  file: ""

# Metrics
metrics:
  # Prometheus textfile written when a stage ends
  textfile: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".flickrgrid.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "\nTo overwrite, first remove the existing file:")
		fmt.Fprintf(cmd.OutOrStdout(), "  rm %s\n", configPath)
		return fmt.Errorf("configuration file %s already exists", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err)
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Store your Flickr API key with 'flickrgrid auth login'")
	fmt.Fprintln(out, "2. Set the zone and years, then run 'flickrgrid config validate'")
	fmt.Fprintln(out, "3. Start crawling with 'flickrgrid download-grid'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		return err
	}

	display := *cfg
	masked := auth.SanitizeAccount(&auth.Account{APIKey: cfg.Flickr.APIKey, APISecret: cfg.Flickr.APISecret})
	if display.Flickr.APIKey != "" {
		display.Flickr.APIKey = masked.APIKey
	}
	if display.Flickr.APISecret != "" {
		display.Flickr.APISecret = masked.APISecret
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		ui.PrintError("Failed to format configuration", err)
		return err
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(out)
	fmt.Fprint(out, string(data))

	fmt.Fprintln(out, "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out, "1. Command line flags")
	fmt.Fprintln(out, "2. Environment variables")
	fmt.Fprintln(out, "3. .env files")
	if configFile != "" {
		fmt.Fprintf(out, "4. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out, "4. Configuration file: (searched in default locations)")
	}
	fmt.Fprintln(out, "5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return err
	}

	var (
		warnings []string
		cells    []grid.Cell
	)
	if err := cfg.RequireZone(); err != nil {
		warnings = append(warnings, err.Error())
	} else if j, err := job.New(cfg.Paths.OutputDir, cfg.Paths.InputDir, cfg.Job); err != nil {
		warnings = append(warnings, err.Error())
	} else if err := j.RequireCoordinates(); err != nil {
		warnings = append(warnings, err.Error())
	} else if cells, err = grid.NewSource(j).Cells(); err != nil {
		warnings = append(warnings, err.Error())
		cells = nil
	}
	if err := resolveCredentials(cfg); err != nil {
		warnings = append(warnings, err.Error())
	}

	out := cmd.OutOrStdout()
	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
		fmt.Fprintln(out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Zone: %s\n", cfg.Job.Zone)
	fmt.Fprintf(out, "  Years: %d-%d\n", cfg.Job.StartYear, cfg.Job.EndYear)
	if cells != nil {
		fmt.Fprintf(out, "  Grid cells: %d\n", len(cells))
	}
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Paths.OutputDir)
	fmt.Fprintf(out, "  Search delay: %s\n", cfg.Throttle.SearchDelay)
	fmt.Fprintf(out, "  Photo delay: %s\n", cfg.Throttle.PhotoDelay)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}
