// Package exporter writes the pipeline's file artifacts.
//
// ParquetWriter produces the columnar outputs: one time series file per
// symbol-day under timeseries/<day>/<symbol>.parquet, and the two panels
// materialized from the panel store under regressions/. Files are written
// to a temporary name and renamed into place so readers never observe a
// partial file.
//
// WorkbookWriter renders the panels, the intraday profile and the batch
// summary into a single .xlsx report. CSVWriter exports panels as CSV with
// a UTF-8 BOM for spreadsheet tools.
//
// Missing values are written as NULL in parquet and as empty cells in CSV
// and xlsx.
package exporter
