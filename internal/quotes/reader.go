package quotes

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
)

// maxLoggedRecordErrors bounds per-record warnings for one file
const maxLoggedRecordErrors = 5

// Reader loads raw quote files
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a Reader
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With("component", "quote_reader")}
}

// ReadFile loads a .csv or .csv.gz quote file. Columns are resolved from
// the header; a header that cannot be resolved aborts the read with a
// *errors.SchemaResolutionError.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quote file: %w", err)
	}
	defer file.Close()

	var src io.Reader = file
	if strings.EqualFold(filepath.Ext(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, apperrors.NewParsingError("open gzip stream", err).WithContext("file", path)
		}
		defer gz.Close()
		src = gz
	}

	table, err := r.Read(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	r.logger.InfoContext(ctx, "quote file loaded",
		"file", filepath.Base(path),
		"events", len(table.Events),
		"skipped", table.Skipped,
	)
	return table, nil
}

// Read parses CSV quote records from src
func (r *Reader) Read(ctx context.Context, src io.Reader) (*Table, error) {
	cr := csv.NewReader(src)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError("empty quote file", nil)
		}
		return nil, apperrors.NewParsingError("read header", err)
	}
	header = append([]string(nil), header...)

	cm, err := ResolveColumns(header)
	if err != nil {
		return nil, err
	}

	table := &Table{Columns: cm}
	width := cm.Width()
	interned := make(map[string]string)
	for line := 2; ; line++ {
		if line%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read record", err).WithContext("line", line)
		}

		event, err := parseEvent(record, cm, width)
		if err != nil {
			table.Skipped++
			if table.Skipped <= maxLoggedRecordErrors {
				r.logger.WarnContext(ctx, "failed to parse quote record",
					"line", line,
					"error", err,
				)
			}
			continue
		}
		if sym, ok := interned[event.Symbol]; ok {
			event.Symbol = sym
		} else {
			sym = strings.Clone(event.Symbol)
			interned[sym] = sym
			event.Symbol = sym
		}
		table.Events = append(table.Events, event)
	}

	return table, nil
}

// parseEvent converts one record. Empty or malformed prices and sizes
// become NaN and are discarded later by the grid builder; a record without
// a usable symbol or time is rejected here.
func parseEvent(record []string, cm ColumnMap, width int) (Event, error) {
	if len(record) < width {
		return Event{}, fmt.Errorf("expected at least %d fields, got %d", width, len(record))
	}

	symbol := strings.TrimSpace(record[cm.Index(FieldSymbol)])
	if symbol == "" {
		return Event{}, fmt.Errorf("empty symbol")
	}

	rawTime, err := parseRawTime(record[cm.Index(FieldTime)])
	if err != nil {
		return Event{}, err
	}

	return Event{
		Symbol:  symbol,
		RawTime: rawTime,
		Bid:     parseNumber(record[cm.Index(FieldBid)]),
		Ask:     parseNumber(record[cm.Index(FieldAsk)]),
		BidSize: parseNumber(record[cm.Index(FieldBidSize)]),
		AskSize: parseNumber(record[cm.Index(FieldAskSize)]),
	}, nil
}

// parseRawTime accepts integer or decimal offsets; decimals truncate toward zero
func parseRawTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid time value %q", s)
	}
	return int64(f), nil
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
