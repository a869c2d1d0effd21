package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

// DayPanelHeaders are the whole-day panel columns
var DayPanelHeaders = []string{"symbol", "day", "alpha", "beta", "se_beta", "r2", "n", "notes", "mean_depth", "ofi_scale"}

// HalfHourPanelHeaders are the half-hour panel columns
var HalfHourPanelHeaders = []string{"symbol", "day", "half_hour_start", "alpha", "beta", "se_beta", "r2", "n", "notes", "mean_depth"}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	w.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteDayPanel exports whole-day rows
func (w *CSVWriter) WriteDayPanel(filePath string, rows []panel.DayRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Symbol, r.Day,
			formatFloat(r.Alpha), formatFloat(r.Beta), formatFloat(r.SEBeta), formatFloat(r.R2),
			strconv.Itoa(r.N), r.Note,
			formatFloat(r.MeanDepth), formatFloat(r.OFIScale),
		}
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: DayPanelHeaders, Records: records, BOMPrefix: true})
}

// WriteHalfHourPanel exports half-hour rows
func (w *CSVWriter) WriteHalfHourPanel(filePath string, rows []panel.HalfHourRow) error {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Symbol, r.Day, r.HalfHourStart,
			formatFloat(r.Alpha), formatFloat(r.Beta), formatFloat(r.SEBeta), formatFloat(r.R2),
			strconv.Itoa(r.N), r.Note,
			formatFloat(r.MeanDepth),
		}
	}
	return w.WriteCSV(filePath, WriteOptions{Headers: HalfHourPanelHeaders, Records: records, BOMPrefix: true})
}
