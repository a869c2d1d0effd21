package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

// Workbook sheet names
const (
	SheetDayPanel      = "by_symbol_day"
	SheetHalfHourPanel = "by_symbol_day_halfhour"
	SheetProfile       = "intraday_profile"
	SheetSummary       = "summary"
)

// Report is everything rendered into the xlsx workbook
type Report struct {
	Summary  panel.Summary
	Days     []panel.DayRow
	HalfHour []panel.HalfHourRow
	Profile  []panel.ProfileRow
}

// WorkbookWriter renders a Report into an .xlsx file
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Write saves the report to path
func (w *WorkbookWriter) Write(path string, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the summary.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return fmt.Errorf("rename default sheet: %w", err)
	}
	summaryRows := [][]interface{}{
		{"run_id", report.Summary.RunID},
		{"days", report.Summary.Days},
		{"rows", report.Summary.Rows},
		{"share_beta_positive", cell(float64(report.Summary.ShareBetaPositive))},
		{"mean_r2", cell(float64(report.Summary.MeanR2))},
		{"corr_beta_mean_depth", cell(float64(report.Summary.CorrBetaMeanDepth))},
	}
	if err := writeRows(f, SheetSummary, nil, summaryRows); err != nil {
		return err
	}

	days := make([][]interface{}, len(report.Days))
	for i, r := range report.Days {
		days[i] = []interface{}{
			r.Symbol, r.Day,
			cell(r.Alpha), cell(r.Beta), cell(r.SEBeta), cell(r.R2),
			r.N, r.Note,
			cell(r.MeanDepth), cell(r.OFIScale),
		}
	}
	if err := addSheet(f, SheetDayPanel, DayPanelHeaders, days); err != nil {
		return err
	}

	halfHours := make([][]interface{}, len(report.HalfHour))
	for i, r := range report.HalfHour {
		halfHours[i] = []interface{}{
			r.Symbol, r.Day, r.HalfHourStart,
			cell(r.Alpha), cell(r.Beta), cell(r.SEBeta), cell(r.R2),
			r.N, r.Note,
			cell(r.MeanDepth),
		}
	}
	if err := addSheet(f, SheetHalfHourPanel, HalfHourPanelHeaders, halfHours); err != nil {
		return err
	}

	profile := make([][]interface{}, len(report.Profile))
	for i, p := range report.Profile {
		profile[i] = []interface{}{
			p.Clock, p.Bins, p.Fitted,
			cell(float64(p.MeanBeta)), cell(float64(p.MeanR2)), cell(float64(p.MeanDepth)),
		}
	}
	profileHeaders := []string{"clock", "bins", "fitted", "mean_beta", "mean_r2", "mean_depth"}
	if err := addSheet(f, SheetProfile, profileHeaders, profile); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		slog.String("file_path", path),
		slog.Int("day_rows", len(report.Days)),
		slog.Int("halfhour_rows", len(report.HalfHour)))
	return nil
}

func addSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, headers, rows)
}

func writeRows(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	next := 1
	if len(headers) > 0 {
		header := make([]interface{}, len(headers))
		for i, h := range headers {
			header[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", sheet, err)
		}
		next = 2
	}
	for i := range rows {
		addr, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, addr, &rows[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}

// cell leaves missing values blank
func cell(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
