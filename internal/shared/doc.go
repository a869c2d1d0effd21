// Package shared holds helpers used across packages.
//
// testutil captures slog records so tests can assert on what a component
// logged without parsing JSON output.
package shared
