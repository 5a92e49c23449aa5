// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"smc-trader/internal/models"
)

// CandleStore defines the interface for the local candle cache.
type CandleStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, filter CandleFilter) ([]models.Candle, error)
	DeleteSeries(ctx context.Context, symbol, timeframe string) (int64, error)
	ListSeries(ctx context.Context) ([]SeriesInfo, error)

	// Import bookkeeping
	GetLastImport(symbol, timeframe string) time.Time
	SetLastImport(symbol, timeframe string, t time.Time) error

	// Lifecycle
	Close() error
}

// CandleFilter narrows a candle query. Zero values mean unbounded.
// When Limit is set the most recent Limit candles are returned, oldest first.
type CandleFilter struct {
	From  int64
	To    int64
	Limit int
}

// SeriesInfo summarizes one cached symbol/timeframe pair.
type SeriesInfo struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Count     int    `json:"count"`
	First     int64  `json:"first"`
	Last      int64  `json:"last"`
}
