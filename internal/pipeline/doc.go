// Package pipeline runs the OFI batch: one raw day file at a time, every
// symbol in the file through grid, OFI, normalization and regression, then
// persistence of the time series artifacts and the regression panels.
//
// DayProcessor handles a single file. The pure per-symbol computation runs
// on a bounded worker pool; everything that writes (artifacts, panel
// upserts, panel materialization) runs afterwards on the calling
// goroutine in sorted symbol order, so the panel store only ever sees one
// writer.
//
// A failing symbol is logged, counted and reported in DayReport.Failures
// while the rest of the day continues, unless the pipeline is configured
// to fail fast. A header that cannot be resolved fails the whole day.
//
// Batch drives DayProcessor over a directory of raw files and writes the
// acceptance summary and optional reports.
package pipeline
