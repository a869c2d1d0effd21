package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/ofi"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

const parquetParallelism = 1

// Panel artifact file names under RegressionsDir
const (
	DayPanelFile      = "by_symbol_day.parquet"
	HalfHourPanelFile = "by_symbol_day_halfhour.parquet"
)

// TimezoneKey is the footer key-value entry naming the venue timezone of a
// time series file
const TimezoneKey = "ofi.venue_timezone"

// timeSeriesRecord is the on-disk layout of one grid point. ts is a UTC
// instant in microseconds; the venue zone is stored under TimezoneKey.
type timeSeriesRecord struct {
	TS            int64    `parquet:"name=ts, type=INT64, convertedtype=TIMESTAMP_MICROS"`
	Bid           float64  `parquet:"name=bid, type=DOUBLE"`
	Ask           float64  `parquet:"name=ask, type=DOUBLE"`
	BidSize       float64  `parquet:"name=bid_size, type=DOUBLE"`
	AskSize       float64  `parquet:"name=ask_size, type=DOUBLE"`
	Depth         float64  `parquet:"name=depth, type=DOUBLE"`
	OFI           float64  `parquet:"name=ofi, type=DOUBLE"`
	Mid           float64  `parquet:"name=mid, type=DOUBLE"`
	DMidBps       *float64 `parquet:"name=d_mid_bps, type=DOUBLE, repetitiontype=OPTIONAL"`
	DepthRoll     *float64 `parquet:"name=depth_roll, type=DOUBLE, repetitiontype=OPTIONAL"`
	NormalizedOFI *float64 `parquet:"name=normalized_ofi, type=DOUBLE, repetitiontype=OPTIONAL"`
}

type dayPanelRecord struct {
	Symbol    string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Day       string   `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Alpha     *float64 `parquet:"name=alpha, type=DOUBLE, repetitiontype=OPTIONAL"`
	Beta      *float64 `parquet:"name=beta, type=DOUBLE, repetitiontype=OPTIONAL"`
	SEBeta    *float64 `parquet:"name=se_beta, type=DOUBLE, repetitiontype=OPTIONAL"`
	R2        *float64 `parquet:"name=r2, type=DOUBLE, repetitiontype=OPTIONAL"`
	N         int64    `parquet:"name=n, type=INT64"`
	Notes     string   `parquet:"name=notes, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeanDepth *float64 `parquet:"name=mean_depth, type=DOUBLE, repetitiontype=OPTIONAL"`
	OFIScale  *float64 `parquet:"name=ofi_scale, type=DOUBLE, repetitiontype=OPTIONAL"`
}

type halfHourPanelRecord struct {
	Symbol        string   `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Day           string   `parquet:"name=day, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	HalfHourStart string   `parquet:"name=half_hour_start, type=BYTE_ARRAY, convertedtype=UTF8"`
	Alpha         *float64 `parquet:"name=alpha, type=DOUBLE, repetitiontype=OPTIONAL"`
	Beta          *float64 `parquet:"name=beta, type=DOUBLE, repetitiontype=OPTIONAL"`
	SEBeta        *float64 `parquet:"name=se_beta, type=DOUBLE, repetitiontype=OPTIONAL"`
	R2            *float64 `parquet:"name=r2, type=DOUBLE, repetitiontype=OPTIONAL"`
	N             int64    `parquet:"name=n, type=INT64"`
	Notes         string   `parquet:"name=notes, type=BYTE_ARRAY, convertedtype=UTF8"`
	MeanDepth     *float64 `parquet:"name=mean_depth, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ParquetWriter writes columnar artifacts below an output directory
type ParquetWriter struct {
	outDir   string
	location *time.Location
	logger   *slog.Logger
}

// NewParquetWriter creates a writer rooted at outDir. Time series files
// record loc as their venue timezone; nil means UTC.
func NewParquetWriter(outDir string, loc *time.Location, logger *slog.Logger) *ParquetWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ParquetWriter{outDir: outDir, location: loc, logger: logger}
}

// OutDir is the artifact root
func (w *ParquetWriter) OutDir() string {
	return w.outDir
}

// WriteTimeSeries stores one symbol-day series and returns its path
func (w *ParquetWriter) WriteTimeSeries(day, symbol string, rows []ofi.Row) (string, error) {
	path := TimeSeriesPath(w.outDir, day, symbol)
	records := make([]any, len(rows))
	for i, r := range rows {
		records[i] = timeSeriesRecord{
			TS:            r.Time.UnixMicro(),
			Bid:           r.Bid,
			Ask:           r.Ask,
			BidSize:       r.BidSize,
			AskSize:       r.AskSize,
			Depth:         r.Depth,
			OFI:           r.OFI,
			Mid:           r.Mid,
			DMidBps:       optional(r.DMidBps),
			DepthRoll:     optional(r.DepthRoll),
			NormalizedOFI: optional(r.NormalizedOFI),
		}
	}
	meta := map[string]string{TimezoneKey: w.location.String()}
	if err := writeAtomic(path, new(timeSeriesRecord), records, meta); err != nil {
		return "", fmt.Errorf("write time series %s/%s: %w", day, symbol, err)
	}
	w.logger.Debug("time series written",
		slog.String("path", path),
		slog.Int("rows", len(rows)))
	return path, nil
}

// WriteDayPanel materializes the whole-day panel
func (w *ParquetWriter) WriteDayPanel(rows []panel.DayRow) (string, error) {
	path := filepath.Join(RegressionsDir(w.outDir), DayPanelFile)
	records := make([]any, len(rows))
	for i, r := range rows {
		records[i] = dayPanelRecord{
			Symbol:    r.Symbol,
			Day:       r.Day,
			Alpha:     optional(r.Alpha),
			Beta:      optional(r.Beta),
			SEBeta:    optional(r.SEBeta),
			R2:        optional(r.R2),
			N:         int64(r.N),
			Notes:     r.Note,
			MeanDepth: optional(r.MeanDepth),
			OFIScale:  optional(r.OFIScale),
		}
	}
	if err := writeAtomic(path, new(dayPanelRecord), records, nil); err != nil {
		return "", fmt.Errorf("write day panel: %w", err)
	}
	return path, nil
}

// WriteHalfHourPanel materializes the half-hour panel
func (w *ParquetWriter) WriteHalfHourPanel(rows []panel.HalfHourRow) (string, error) {
	path := filepath.Join(RegressionsDir(w.outDir), HalfHourPanelFile)
	records := make([]any, len(rows))
	for i, r := range rows {
		records[i] = halfHourPanelRecord{
			Symbol:        r.Symbol,
			Day:           r.Day,
			HalfHourStart: r.HalfHourStart,
			Alpha:         optional(r.Alpha),
			Beta:          optional(r.Beta),
			SEBeta:        optional(r.SEBeta),
			R2:            optional(r.R2),
			N:             int64(r.N),
			Notes:         r.Note,
			MeanDepth:     optional(r.MeanDepth),
		}
	}
	if err := writeAtomic(path, new(halfHourPanelRecord), records, nil); err != nil {
		return "", fmt.Errorf("write half-hour panel: %w", err)
	}
	return path, nil
}

// writeAtomic writes records to a sibling temp file and renames it over path
func writeAtomic(path string, schema any, records []any, meta map[string]string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp := path + ".tmp"
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	fw, err := local.NewLocalFileWriter(tmp)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	pw, err := writer.NewParquetWriter(fw, schema, parquetParallelism)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := meta[k]
		pw.Footer.KeyValueMetadata = append(pw.Footer.KeyValueMetadata, &parquet.KeyValue{Key: k, Value: &v})
	}

	for _, rec := range records {
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finish parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return os.Rename(tmp, path)
}

// ReadTimeSeries loads a series written by WriteTimeSeries. Times are
// returned in loc.
func ReadTimeSeries(path string, loc *time.Location) ([]ofi.Row, error) {
	var records []timeSeriesRecord
	meta, err := readAll(path, new(timeSeriesRecord), &records)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		if loc, err = time.LoadLocation(meta[TimezoneKey]); err != nil {
			return nil, fmt.Errorf("time series %s timezone: %w", path, err)
		}
	}
	rows := make([]ofi.Row, len(records))
	for i, rec := range records {
		rows[i] = ofi.Row{
			TOBRow: ofi.TOBRow{
				Time:    time.UnixMicro(rec.TS).In(loc),
				Bid:     rec.Bid,
				Ask:     rec.Ask,
				BidSize: rec.BidSize,
				AskSize: rec.AskSize,
			},
			Depth:         rec.Depth,
			Mid:           rec.Mid,
			OFI:           rec.OFI,
			DMidBps:       fromOptional(rec.DMidBps),
			DepthRoll:     fromOptional(rec.DepthRoll),
			NormalizedOFI: fromOptional(rec.NormalizedOFI),
		}
	}
	return rows, nil
}

// ReadDayPanel loads a materialized whole-day panel
func ReadDayPanel(path string) ([]panel.DayRow, error) {
	var records []dayPanelRecord
	if _, err := readAll(path, new(dayPanelRecord), &records); err != nil {
		return nil, err
	}
	rows := make([]panel.DayRow, len(records))
	for i, rec := range records {
		rows[i] = panel.DayRow{
			Symbol: rec.Symbol,
			Day:    rec.Day,
			Result: regression.Result{
				Alpha:  fromOptional(rec.Alpha),
				Beta:   fromOptional(rec.Beta),
				SEBeta: fromOptional(rec.SEBeta),
				R2:     fromOptional(rec.R2),
				N:      int(rec.N),
				Note:   rec.Notes,
			},
			MeanDepth: fromOptional(rec.MeanDepth),
			OFIScale:  fromOptional(rec.OFIScale),
		}
	}
	return rows, nil
}

// ReadHalfHourPanel loads a materialized half-hour panel
func ReadHalfHourPanel(path string) ([]panel.HalfHourRow, error) {
	var records []halfHourPanelRecord
	if _, err := readAll(path, new(halfHourPanelRecord), &records); err != nil {
		return nil, err
	}
	rows := make([]panel.HalfHourRow, len(records))
	for i, rec := range records {
		rows[i] = panel.HalfHourRow{
			Symbol:        rec.Symbol,
			Day:           rec.Day,
			HalfHourStart: rec.HalfHourStart,
			Result: regression.Result{
				Alpha:  fromOptional(rec.Alpha),
				Beta:   fromOptional(rec.Beta),
				SEBeta: fromOptional(rec.SEBeta),
				R2:     fromOptional(rec.R2),
				N:      int(rec.N),
				Note:   rec.Notes,
			},
			MeanDepth: fromOptional(rec.MeanDepth),
		}
	}
	return rows, nil
}

// readAll loads every record of path into out and returns the footer
// key-value metadata
func readAll[T any](path string, schema *T, out *[]T) (map[string]string, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, schema, parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	meta := make(map[string]string, len(pr.Footer.KeyValueMetadata))
	for _, kv := range pr.Footer.KeyValueMetadata {
		if kv.Value != nil {
			meta[kv.Key] = *kv.Value
		}
	}

	records := make([]T, int(pr.GetNumRows()))
	if len(records) > 0 {
		if err := pr.Read(&records); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	*out = records
	return meta, nil
}
