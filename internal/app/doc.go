// Package app wires the pipeline components from configuration.
//
// New loads the layered configuration, applies command-line overrides,
// then builds the logger, telemetry, venue calendar, SQLite panel store,
// day processor and batch driver. The ofi-day, ofi-batch and ofi-server
// commands are thin wrappers over RunDay, RunBatch and Serve.
package app
