package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for flickrgrid
type Config struct {
	// Flickr API access
	Flickr FlickrConfig `yaml:"flickr" json:"flickr"`

	// Input and output roots
	Paths PathsConfig `yaml:"paths" json:"paths"`

	// The zone being crawled
	Job JobConfig `yaml:"job" json:"job"`

	// Fixed delays between requests
	Throttle ThrottleConfig `yaml:"throttle" json:"throttle"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics output
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// FlickrConfig holds Flickr API configuration
type FlickrConfig struct {
	APIKey          string        `yaml:"api_key" json:"api_key"`
	APISecret       string        `yaml:"api_secret" json:"api_secret"`
	BaseURL         string        `yaml:"base_url" json:"base_url"`
	ImageBaseURL    string        `yaml:"image_base_url" json:"image_base_url"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// PathsConfig holds the input and output root directories
type PathsConfig struct {
	InputDir  string `yaml:"input_dir" json:"input_dir"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// JobConfig describes one zone crawl
type JobConfig struct {
	Zone            string        `yaml:"zone" json:"zone"`
	StartYear       int           `yaml:"start_year" json:"start_year"`
	EndYear         int           `yaml:"end_year" json:"end_year"`
	CoordinatesFile string        `yaml:"coordinates_file" json:"coordinates_file"`
	Delimiter       string        `yaml:"delimiter" json:"delimiter"`
	Columns         ColumnsConfig `yaml:"columns" json:"columns"`
	RawMetadata     bool          `yaml:"raw_metadata" json:"raw_metadata"`
}

// ColumnsConfig maps bounding-box coordinates to 0-based columns of the
// coordinate file.
type ColumnsConfig struct {
	X1 int `yaml:"x1" json:"x1"`
	Y1 int `yaml:"y1" json:"y1"`
	X2 int `yaml:"x2" json:"x2"`
	Y2 int `yaml:"y2" json:"y2"`
}

// ThrottleConfig holds the fixed inter-request delays
type ThrottleConfig struct {
	SearchDelay time.Duration `yaml:"search_delay" json:"search_delay"`
	PhotoDelay  time.Duration `yaml:"photo_delay" json:"photo_delay"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds metrics output configuration
type MetricsConfig struct {
	// Textfile is a Prometheus textfile-collector path written at the end of a run.
	Textfile string `yaml:"textfile" json:"textfile"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Flickr: FlickrConfig{
			BaseURL:         "https://www.flickr.com/services/rest/",
			ImageBaseURL:    "https://live.staticflickr.com",
			Timeout:         30 * time.Second,
			DownloadTimeout: 60 * time.Second,
		},
		Paths: PathsConfig{
			InputDir:  "./input",
			OutputDir: "./output",
		},
		Job: JobConfig{
			StartYear: 2015,
			EndYear:   2024,
			Delimiter: ",",
			Columns: ColumnsConfig{
				X1: 1,
				Y1: 2,
				X2: 5,
				Y2: 6,
			},
		},
		Throttle: ThrottleConfig{
			SearchDelay: 700 * time.Millisecond,
			PhotoDelay:  300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables. Variable
// names match the ones the grid downloader has always used.
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString(&c.Flickr.APIKey, "FLICKR_API_KEY")
	setString(&c.Flickr.APISecret, "FLICKR_API_SECRET")
	setString(&c.Job.Zone, "ZONE")
	setString(&c.Job.CoordinatesFile, "COORDINATES_FILE")
	setString(&c.Job.Delimiter, "DELIMITER")
	setString(&c.Paths.InputDir, "FLICKRGRID_INPUT_DIR")
	setString(&c.Paths.OutputDir, "FLICKRGRID_OUTPUT_DIR")
	setString(&c.Logging.Level, "FLICKRGRID_LOG_LEVEL")
	setString(&c.Metrics.Textfile, "FLICKRGRID_METRICS_TEXTFILE")

	ints := map[string]*int{
		"START_YEAR": &c.Job.StartYear,
		"END_YEAR":   &c.Job.EndYear,
		"XX_COLUMN":  &c.Job.Columns.X1,
		"YX_COLUMN":  &c.Job.Columns.Y1,
		"XY_COLUMN":  &c.Job.Columns.X2,
		"YY_COLUMN":  &c.Job.Columns.Y2,
	}
	for name, dst := range ints {
		if raw := os.Getenv(name); raw != "" {
			val, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not an integer", name, raw))
				continue
			}
			*dst = val
		}
	}

	if raw := os.Getenv("DOWNLOAD_RAW"); raw != "" {
		val, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Errorf("DOWNLOAD_RAW: %q is not a boolean", raw))
		} else {
			c.Job.RawMetadata = val
		}
	}

	return errors.Join(errs...)
}

func setString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".flickrgrid.yaml",
		".flickrgrid.yml",
		filepath.Join(home, ".config", "flickrgrid", "config.yaml"),
		filepath.Join(home, ".config", "flickrgrid", "config.yml"),
		filepath.Join(home, ".flickrgrid.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks the settings that do not depend on a particular command.
// Zone and credentials are checked by RequireZone and RequireCredentials
// since not every command needs them.
func (c *Config) Validate() error {
	var errs []error

	if c.Job.StartYear >= c.Job.EndYear {
		errs = append(errs, fmt.Errorf("start year (%d) must be before end year (%d)", c.Job.StartYear, c.Job.EndYear))
	}
	if len([]rune(c.Job.Delimiter)) != 1 {
		errs = append(errs, fmt.Errorf("delimiter must be a single character, got %q", c.Job.Delimiter))
	}
	cols := c.Job.Columns
	if cols.X1 < 1 || cols.Y1 < 1 || cols.X2 < 1 || cols.Y2 < 1 {
		errs = append(errs, errors.New("coordinate columns must be positive (column 0 holds the cell id)"))
	}

	if c.Paths.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Flickr.BaseURL == "" {
		errs = append(errs, errors.New("flickr base URL is required"))
	}
	if c.Flickr.ImageBaseURL == "" {
		errs = append(errs, errors.New("flickr image base URL is required"))
	}
	if c.Flickr.Timeout <= 0 {
		errs = append(errs, errors.New("flickr timeout must be positive"))
	}
	if c.Flickr.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Throttle.SearchDelay < 0 || c.Throttle.PhotoDelay < 0 {
		errs = append(errs, errors.New("throttle delays cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// RequireCredentials reports a missing Flickr API key or secret.
func (c *Config) RequireCredentials() error {
	var errs []error
	if c.Flickr.APIKey == "" {
		errs = append(errs, errors.New("FLICKR_API_KEY is required"))
	}
	if c.Flickr.APISecret == "" {
		errs = append(errs, errors.New("FLICKR_API_SECRET is required"))
	}
	return errors.Join(errs...)
}

// RequireZone reports a missing zone name.
func (c *Config) RequireZone() error {
	if strings.TrimSpace(c.Job.Zone) == "" {
		return errors.New("zone is required (--zone or ZONE)")
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["api-key"].(string); ok && v != "" {
		c.Flickr.APIKey = v
	}
	if v, ok := flags["api-secret"].(string); ok && v != "" {
		c.Flickr.APISecret = v
	}
	if v, ok := flags["zone"].(string); ok && v != "" {
		c.Job.Zone = v
	}
	if v, ok := flags["coordinates-file"].(string); ok && v != "" {
		c.Job.CoordinatesFile = v
	}
	if v, ok := flags["delimiter"].(string); ok && v != "" {
		c.Job.Delimiter = v
	}
	if v, ok := flags["start-year"].(int); ok {
		c.Job.StartYear = v
	}
	if v, ok := flags["end-year"].(int); ok {
		c.Job.EndYear = v
	}
	if v, ok := flags["xx"].(int); ok {
		c.Job.Columns.X1 = v
	}
	if v, ok := flags["yx"].(int); ok {
		c.Job.Columns.Y1 = v
	}
	if v, ok := flags["xy"].(int); ok {
		c.Job.Columns.X2 = v
	}
	if v, ok := flags["yy"].(int); ok {
		c.Job.Columns.Y2 = v
	}
	if v, ok := flags["raw"].(bool); ok {
		c.Job.RawMetadata = v
	}
	if v, ok := flags["input-dir"].(string); ok && v != "" {
		c.Paths.InputDir = v
	}
	if v, ok := flags["output-dir"].(string); ok && v != "" {
		c.Paths.OutputDir = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
	if v, ok := flags["metrics-textfile"].(string); ok && v != "" {
		c.Metrics.Textfile = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".flickrgrid.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
