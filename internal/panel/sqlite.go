package panel

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

const schema = `
CREATE TABLE IF NOT EXISTS by_symbol_day (
	symbol     TEXT NOT NULL,
	day        TEXT NOT NULL,
	alpha      REAL,
	beta       REAL,
	se_beta    REAL,
	r2         REAL,
	n          INTEGER NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	mean_depth REAL,
	ofi_scale  REAL,
	PRIMARY KEY (symbol, day)
);
CREATE TABLE IF NOT EXISTS by_symbol_day_halfhour (
	symbol          TEXT NOT NULL,
	day             TEXT NOT NULL,
	half_hour_start TEXT NOT NULL,
	alpha           REAL,
	beta            REAL,
	se_beta         REAL,
	r2              REAL,
	n               INTEGER NOT NULL,
	notes           TEXT NOT NULL DEFAULT '',
	mean_depth      REAL,
	PRIMARY KEY (symbol, day, half_hour_start)
);
`

// SQLiteStore keeps the panels in a single SQLite database file
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the panel database at path
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewStorageError("create panel directory", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("open panel database", err)
	}
	// one connection serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("ping panel database", err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode = WAL;", "PRAGMA synchronous = NORMAL;", "PRAGMA busy_timeout = 5000;"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			logger.WarnContext(ctx, "failed to apply sqlite pragma", "pragma", pragma, "error", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("create panel tables", err)
	}

	return &SQLiteStore{db: db, logger: logger.With("component", "panel_store")}, nil
}

// UpsertDay writes whole-day rows in one transaction
func (s *SQLiteStore) UpsertDay(ctx context.Context, rows ...DayRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin day upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO by_symbol_day (symbol, day, alpha, beta, se_beta, r2, n, notes, mean_depth, ofi_scale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, day) DO UPDATE SET
			alpha = excluded.alpha,
			beta = excluded.beta,
			se_beta = excluded.se_beta,
			r2 = excluded.r2,
			n = excluded.n,
			notes = excluded.notes,
			mean_depth = excluded.mean_depth,
			ofi_scale = excluded.ofi_scale
	`)
	if err != nil {
		return apperrors.NewStorageError("prepare day upsert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Symbol, r.Day,
			nullable(r.Alpha), nullable(r.Beta), nullable(r.SEBeta), nullable(r.R2),
			r.N, r.Note, nullable(r.MeanDepth), nullable(r.OFIScale)); err != nil {
			return apperrors.NewStorageError("upsert day row", err).
				WithContext("symbol", r.Symbol).WithContext("day", r.Day)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit day upsert", err)
	}
	return nil
}

// UpsertHalfHour writes half-hour rows in one transaction
func (s *SQLiteStore) UpsertHalfHour(ctx context.Context, rows ...HalfHourRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("begin half-hour upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO by_symbol_day_halfhour (symbol, day, half_hour_start, alpha, beta, se_beta, r2, n, notes, mean_depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, day, half_hour_start) DO UPDATE SET
			alpha = excluded.alpha,
			beta = excluded.beta,
			se_beta = excluded.se_beta,
			r2 = excluded.r2,
			n = excluded.n,
			notes = excluded.notes,
			mean_depth = excluded.mean_depth
	`)
	if err != nil {
		return apperrors.NewStorageError("prepare half-hour upsert", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Symbol, r.Day, r.HalfHourStart,
			nullable(r.Alpha), nullable(r.Beta), nullable(r.SEBeta), nullable(r.R2),
			r.N, r.Note, nullable(r.MeanDepth)); err != nil {
			return apperrors.NewStorageError("upsert half-hour row", err).
				WithContext("symbol", r.Symbol).WithContext("day", r.Day)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit half-hour upsert", err)
	}
	return nil
}

// DayRows reads whole-day rows ordered by symbol and day
func (s *SQLiteStore) DayRows(ctx context.Context, f Filter) ([]DayRow, error) {
	where, args := f.clause()
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, day, alpha, beta, se_beta, r2, n, notes, mean_depth, ofi_scale
		FROM by_symbol_day`+where+`
		ORDER BY symbol, day`, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query day rows", err)
	}
	defer rows.Close()

	var out []DayRow
	for rows.Next() {
		var r DayRow
		var alpha, beta, se, r2, depth, scale sql.NullFloat64
		if err := rows.Scan(&r.Symbol, &r.Day, &alpha, &beta, &se, &r2, &r.N, &r.Note, &depth, &scale); err != nil {
			return nil, apperrors.NewStorageError("scan day row", err)
		}
		r.Result = result(alpha, beta, se, r2, r.N, r.Note)
		r.MeanDepth, r.OFIScale = float(depth), float(scale)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate day rows", err)
	}
	return out, nil
}

// HalfHourRows reads half-hour rows ordered by symbol, day and bin start
func (s *SQLiteStore) HalfHourRows(ctx context.Context, f Filter) ([]HalfHourRow, error) {
	where, args := f.clause()
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, day, half_hour_start, alpha, beta, se_beta, r2, n, notes, mean_depth
		FROM by_symbol_day_halfhour`+where+`
		ORDER BY symbol, day, half_hour_start`, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("query half-hour rows", err)
	}
	defer rows.Close()

	var out []HalfHourRow
	for rows.Next() {
		var r HalfHourRow
		var alpha, beta, se, r2, depth sql.NullFloat64
		if err := rows.Scan(&r.Symbol, &r.Day, &r.HalfHourStart, &alpha, &beta, &se, &r2, &r.N, &r.Note, &depth); err != nil {
			return nil, apperrors.NewStorageError("scan half-hour row", err)
		}
		r.Result = result(alpha, beta, se, r2, r.N, r.Note)
		r.MeanDepth = float(depth)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("iterate half-hour rows", err)
	}
	return out, nil
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (f Filter) clause() (string, []any) {
	var conds []string
	var args []any
	if f.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.Day != "" {
		conds = append(conds, "day = ?")
		args = append(args, f.Day)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func float(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func result(alpha, beta, se, r2 sql.NullFloat64, n int, note string) regression.Result {
	return regression.Result{
		Alpha:  float(alpha),
		Beta:   float(beta),
		SEBeta: float(se),
		R2:     float(r2),
		N:      n,
		Note:   note,
	}
}
