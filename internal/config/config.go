package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Venue     VenueConfig     `yaml:"venue" envconfig:"VENUE"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

// VenueConfig describes the trading venue the quote files come from
type VenueConfig struct {
	Timezone     string `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	MIC          string `yaml:"mic" envconfig:"MIC"`
	SessionOpen  string `yaml:"session_open" envconfig:"SESSION_OPEN" validate:"required"`
	SessionClose string `yaml:"session_close" envconfig:"SESSION_CLOSE" validate:"required"`

	// Holiday calendar span in years, inclusive. Days outside it fall back
	// to the weekday check.
	CalendarFromYear int `yaml:"calendar_from_year" envconfig:"CALENDAR_FROM_YEAR" validate:"gte=1900"`
	CalendarToYear   int `yaml:"calendar_to_year" envconfig:"CALENDAR_TO_YEAR" validate:"gte=1900"`
}

// PipelineConfig contains the OFI transformation and regression policy
type PipelineConfig struct {
	GridFrequency      time.Duration `yaml:"grid_frequency" envconfig:"GRID_FREQUENCY" validate:"gt=0"`
	NormWindow         int           `yaml:"norm_window" envconfig:"NORM_WINDOW" validate:"gt=0"`
	NormMinPeriods     int           `yaml:"norm_min_periods" envconfig:"NORM_MIN_PERIODS" validate:"gt=0"`
	OutlierBps         float64       `yaml:"outlier_bps" envconfig:"OUTLIER_BPS" validate:"gt=0"`
	SecondsBelow       int64         `yaml:"seconds_below" envconfig:"SECONDS_BELOW" validate:"gt=0"`
	MillisBelow        int64         `yaml:"millis_below" envconfig:"MILLIS_BELOW" validate:"gt=0"`
	MinObservations    int           `yaml:"min_observations" envconfig:"MIN_OBSERVATIONS" validate:"gte=3"`
	HalfHour           bool          `yaml:"half_hour" envconfig:"HALF_HOUR"`
	HalfHourFrequency  time.Duration `yaml:"half_hour_frequency" envconfig:"HALF_HOUR_FREQUENCY" validate:"gt=0"`
	HalfHourBin        time.Duration `yaml:"half_hour_bin" envconfig:"HALF_HOUR_BIN" validate:"gt=0"`
	HalfHourMinPeriods int           `yaml:"half_hour_min_periods" envconfig:"HALF_HOUR_MIN_PERIODS" validate:"gt=0"`
	Workers            int           `yaml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	FailFast           bool          `yaml:"fail_fast" envconfig:"FAIL_FAST"`
}

// StorageConfig contains output locations
type StorageConfig struct {
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	PanelDB   string `yaml:"panel_db" envconfig:"PANEL_DB"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig contains OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled         bool    `yaml:"enabled" envconfig:"ENABLED"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter  string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsTextfile string  `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// ServerConfig contains the panel API server configuration
type ServerConfig struct {
	Addr           string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gte=0"`
	RateLimitBurst int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gte=0"`
	ReadTimeout    time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Load builds the configuration from defaults, an optional YAML file and
// OFI_* environment variables, in that order of precedence (env wins).
// An empty path falls back to $OFI_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("OFI_CONFIG")
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("OFI", cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	cfg.applyDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays YAML onto cfg; keys absent from the file keep their value
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("failed to read config file %s", filePath), err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError(fmt.Sprintf("failed to parse config file %s", filePath), err)
	}
	return nil
}

func (c *Config) applyDerived() {
	if c.Storage.PanelDB == "" {
		c.Storage.PanelDB = filepath.Join(c.Storage.OutputDir, "regressions", "panel.db")
	}
}

// Validate checks field constraints and the cross-field invariants
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if _, err := time.LoadLocation(c.Venue.Timezone); err != nil {
		return fmt.Errorf("venue.timezone %q: %w", c.Venue.Timezone, err)
	}

	open, closing, err := c.Venue.SessionBounds()
	if err != nil {
		return err
	}
	if open >= closing {
		return fmt.Errorf("venue.session_open (%s) must be before venue.session_close (%s)",
			c.Venue.SessionOpen, c.Venue.SessionClose)
	}

	if c.Venue.CalendarFromYear > c.Venue.CalendarToYear {
		return fmt.Errorf("venue.calendar_from_year (%d) must not exceed venue.calendar_to_year (%d)",
			c.Venue.CalendarFromYear, c.Venue.CalendarToYear)
	}

	if c.Pipeline.SecondsBelow >= c.Pipeline.MillisBelow {
		return fmt.Errorf("pipeline.seconds_below (%d) must be less than pipeline.millis_below (%d)",
			c.Pipeline.SecondsBelow, c.Pipeline.MillisBelow)
	}
	if c.Pipeline.NormMinPeriods > c.Pipeline.NormWindow {
		return fmt.Errorf("pipeline.norm_min_periods (%d) must not exceed pipeline.norm_window (%d)",
			c.Pipeline.NormMinPeriods, c.Pipeline.NormWindow)
	}
	if c.Pipeline.HalfHourBin < c.Pipeline.HalfHourFrequency {
		return fmt.Errorf("pipeline.half_hour_bin (%s) must be at least pipeline.half_hour_frequency (%s)",
			c.Pipeline.HalfHourBin, c.Pipeline.HalfHourFrequency)
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when logging.output is %q", c.Logging.Output)
	}

	return nil
}

// Location resolves the venue timezone
func (v VenueConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load venue timezone %q: %w", v.Timezone, err)
	}
	return loc, nil
}

// SessionBounds returns the session open and close as offsets from local midnight
func (v VenueConfig) SessionBounds() (time.Duration, time.Duration, error) {
	open, err := parseClock(v.SessionOpen)
	if err != nil {
		return 0, 0, fmt.Errorf("venue.session_open: %w", err)
	}
	closing, err := parseClock(v.SessionClose)
	if err != nil {
		return 0, 0, fmt.Errorf("venue.session_close: %w", err)
	}
	return open, closing, nil
}

// parseClock parses HH:MM[:SS] into an offset from midnight
func parseClock(s string) (time.Duration, error) {
	layout := "15:04:05"
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// Default returns a configuration with the defaults used for TAQ NBBO files
func Default() *Config {
	return &Config{
		Venue: VenueConfig{
			Timezone:     "America/New_York",
			MIC:          "xnys",
			SessionOpen:  "09:30:00",
			SessionClose: "16:00:00",

			CalendarFromYear: 2000,
			CalendarToYear:   2035,
		},
		Pipeline: PipelineConfig{
			GridFrequency:      time.Second,
			NormWindow:         600,
			NormMinPeriods:     50,
			OutlierBps:         1000,
			SecondsBelow:       1_000_000,
			MillisBelow:        1_000_000_000,
			MinObservations:    10,
			HalfHour:           true,
			HalfHourFrequency:  10 * time.Second,
			HalfHourBin:        30 * time.Minute,
			HalfHourMinPeriods: 10,
			Workers:            1,
		},
		Storage: StorageConfig{
			OutputDir: "results",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/ofi.log",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimitRPS:    20,
			RateLimitBurst:  40,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}
