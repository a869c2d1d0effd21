// Package config loads the pipeline configuration.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources
// overriding earlier ones:
//
//	1. Default() values
//	2. A YAML file (path argument or $OFI_CONFIG)
//	3. Environment variables with the OFI_ prefix
//
// Command line flags are applied by the binaries on top of the loaded
// Config.
//
// # Environment Variables
//
// Nested sections map to underscore-joined names:
//
//	OFI_VENUE_TIMEZONE=America/New_York
//	OFI_PIPELINE_GRID_FREQUENCY=1s
//	OFI_PIPELINE_NORM_WINDOW=600
//	OFI_PIPELINE_OUTLIER_BPS=1000
//	OFI_STORAGE_OUTPUT_DIR=results
//	OFI_LOGGING_LEVEL=debug
//
// # Policy Constants
//
// The time-unit thresholds (seconds_below, millis_below) and the
// outlier_bps cutoff describe the characteristics of the TAQ feed the
// pipeline was built for. They are configuration, not physical
// constants, and should be revisited before processing another feed.
//
// # Validation
//
// Validate runs the validator tags on every section and then checks the
// cross-field rules: the session open precedes the close, the seconds
// threshold is below the milliseconds threshold, and the rolling minimum
// does not exceed the rolling window.
package config
