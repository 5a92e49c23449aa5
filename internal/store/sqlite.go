package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/logging"
	"smc-trader/internal/models"
	"smc-trader/pkg/utils"
)

// SQLiteStore implements CandleStore using SQLite.
type SQLiteStore struct {
	db          *sql.DB
	logger      zerolog.Logger
	retry       utils.RetryConfig
	mu          sync.RWMutex
	importTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based candle store.
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:          db,
		logger:      logger,
		importTimes: make(map[string]time.Time),
	}
	store.retry = utils.DefaultRetryConfig()
	store.retry.Retryable = isBusy

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		time INTEGER NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, time)
	);

	-- Import status per series
	CREATE TABLE IF NOT EXISTS import_status (
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		last_import DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, timeframe)
	);

	CREATE INDEX IF NOT EXISTS idx_candles_symbol_timeframe ON candles(symbol, timeframe);
	CREATE INDEX IF NOT EXISTS idx_candles_time ON candles(time);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandles upserts candles for a series. Existing rows with the same time are replaced.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		logging.LogStoreCall(s.logger, "save_candles", symbol, len(candles), time.Since(start), err)
	}()

	return utils.Retry(ctx, s.retry, func() error {
		return s.saveCandlesTx(ctx, symbol, timeframe, candles)
	})
}

func (s *SQLiteStore) saveCandlesTx(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", apperrors.ErrDatabaseError, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timeframe, time, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		if _, err := stmt.ExecContext(ctx, symbol, timeframe, c.Time, c.Open, c.High, c.Low, c.Close, c.Volume); err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isBusy reports whether err is a transient SQLite lock conflict.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// GetCandles retrieves candles for a series in ascending time order.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, filter CandleFilter) (candles []models.Candle, err error) {
	start := time.Now()
	defer func() {
		logging.LogStoreCall(s.logger, "get_candles", symbol, len(candles), time.Since(start), err)
	}()

	where := []string{"symbol = ?", "timeframe = ?"}
	args := []interface{}{symbol, timeframe}
	if filter.From > 0 {
		where = append(where, "time >= ?")
		args = append(args, filter.From)
	}
	if filter.To > 0 {
		where = append(where, "time <= ?")
		args = append(args, filter.To)
	}

	query := fmt.Sprintf(`
		SELECT time, open, high, low, close, volume
		FROM candles
		WHERE %s
		ORDER BY time DESC`, strings.Join(where, " AND "))
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	candles = []models.Candle{}
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	// Rows come newest first so LIMIT keeps the tail; flip back to chronological order.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}

	if len(candles) == 0 {
		return candles, apperrors.NewDataError("candles", symbol, "no candles for "+timeframe, apperrors.ErrDataNotFound)
	}
	return candles, nil
}

// DeleteSeries removes every candle of a series and returns the number of rows removed.
func (s *SQLiteStore) DeleteSeries(ctx context.Context, symbol, timeframe string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM candles WHERE symbol = ? AND timeframe = ?`, symbol, timeframe)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM import_status WHERE symbol = ? AND timeframe = ?`, symbol, timeframe); err != nil {
		return 0, fmt.Errorf("failed to delete import status: %w", err)
	}

	s.mu.Lock()
	delete(s.importTimes, seriesKey(symbol, timeframe))
	s.mu.Unlock()

	return res.RowsAffected()
}

// ListSeries returns every cached series ordered by symbol and timeframe.
func (s *SQLiteStore) ListSeries(ctx context.Context) ([]SeriesInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, COUNT(*), MIN(time), MAX(time)
		FROM candles
		GROUP BY symbol, timeframe
		ORDER BY symbol, timeframe
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list series: %w", err)
	}
	defer rows.Close()

	series := []SeriesInfo{}
	for rows.Next() {
		var info SeriesInfo
		if err := rows.Scan(&info.Symbol, &info.Timeframe, &info.Count, &info.First, &info.Last); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		series = append(series, info)
	}

	return series, rows.Err()
}

// GetLastImport returns the last import time for a series, or the zero time.
func (s *SQLiteStore) GetLastImport(symbol, timeframe string) time.Time {
	key := seriesKey(symbol, timeframe)

	s.mu.RLock()
	if t, ok := s.importTimes[key]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var t time.Time
	err := s.db.QueryRow(`SELECT last_import FROM import_status WHERE symbol = ? AND timeframe = ?`, symbol, timeframe).Scan(&t)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.importTimes[key] = t
	s.mu.Unlock()

	return t
}

// SetLastImport records the last import time for a series.
func (s *SQLiteStore) SetLastImport(symbol, timeframe string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO import_status (symbol, timeframe, last_import, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, symbol, timeframe, t)
	if err != nil {
		return fmt.Errorf("failed to set import status: %w", err)
	}

	s.mu.Lock()
	s.importTimes[seriesKey(symbol, timeframe)] = t
	s.mu.Unlock()

	return nil
}

func seriesKey(symbol, timeframe string) string {
	return symbol + "|" + timeframe
}
