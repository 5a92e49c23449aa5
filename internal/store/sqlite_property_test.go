package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// Property: saving candles and reading the series back yields the same candles.
func TestProperty_CandleRoundTripConsistency(t *testing.T) {
	store := newTestStore(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "EURUSD", "XAUUSD"}
	timeframeGen := gen.OneConstOf("1m", "5m", "15m", "1h", "4h", "1d")
	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(1.0, 50000.0)
	volumeGen := gen.Float64Range(0, 1000000)

	run := 0
	properties.Property("Candle round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, timeframe string, count int, basePrice float64, baseVolume float64) bool {
			ctx := context.Background()
			run++
			symbol := fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], run)

			candles := generateTestCandles(count, basePrice, baseVolume)

			if err := store.SaveCandles(ctx, symbol, timeframe, candles); err != nil {
				t.Logf("Failed to save candles: %v", err)
				return false
			}

			retrieved, err := store.GetCandles(ctx, symbol, timeframe, CandleFilter{})
			if err != nil {
				t.Logf("Failed to get candles: %v", err)
				return false
			}

			if len(retrieved) != len(candles) {
				t.Logf("Count mismatch: expected %d, got %d", len(candles), len(retrieved))
				return false
			}

			for i, orig := range candles {
				if !candlesEqual(orig, retrieved[i]) {
					t.Logf("Candle mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}

			return true
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
		countGen,
		priceGen,
		volumeGen,
	))

	properties.Property("Empty candles: saving empty slice should succeed", prop.ForAll(
		func(timeframe string) bool {
			return store.SaveCandles(context.Background(), "EMPTY", timeframe, []models.Candle{}) == nil
		},
		timeframeGen,
	))

	properties.TestingRun(t)
}

func TestGetCandlesFilterAndLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	candles := generateTestCandles(10, 100, 500)
	if err := store.SaveCandles(ctx, "BTCUSDT", "1h", candles); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetCandles(ctx, "BTCUSDT", "1h", CandleFilter{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(got))
	}
	if got[0].Time != candles[7].Time || got[2].Time != candles[9].Time {
		t.Errorf("limit should keep the newest candles in ascending order, got %d..%d", got[0].Time, got[2].Time)
	}

	got, err = store.GetCandles(ctx, "BTCUSDT", "1h", CandleFilter{From: candles[2].Time, To: candles[4].Time})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 candles in range, got %d", len(got))
	}

	_, err = store.GetCandles(ctx, "MISSING", "1h", CandleFilter{})
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("expected ErrDataNotFound, got %v", err)
	}
}

func TestSaveCandlesReplacesSameTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	candles := generateTestCandles(3, 100, 500)
	if err := store.SaveCandles(ctx, "ETHUSDT", "5m", candles); err != nil {
		t.Fatal(err)
	}
	updated := candles[1]
	updated.Close = updated.Low
	if err := store.SaveCandles(ctx, "ETHUSDT", "5m", []models.Candle{updated}); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetCandles(ctx, "ETHUSDT", "5m", CandleFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 candles after upsert, got %d", len(got))
	}
	if got[1].Close != updated.Close {
		t.Errorf("expected replaced close %v, got %v", updated.Close, got[1].Close)
	}
}

func TestListAndDeleteSeries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveCandles(ctx, "BTCUSDT", "1h", generateTestCandles(4, 100, 10)); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveCandles(ctx, "BTCUSDT", "4h", generateTestCandles(2, 100, 10)); err != nil {
		t.Fatal(err)
	}

	series, err := store.ListSeries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[0].Timeframe != "1h" || series[0].Count != 4 {
		t.Errorf("unexpected first series: %+v", series[0])
	}

	removed, err := store.DeleteSeries(ctx, "BTCUSDT", "1h")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 4 {
		t.Errorf("expected 4 rows removed, got %d", removed)
	}

	series, err = store.ListSeries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 {
		t.Errorf("expected 1 series after delete, got %d", len(series))
	}
}

func TestLastImport(t *testing.T) {
	store := newTestStore(t)

	if !store.GetLastImport("BTCUSDT", "1h").IsZero() {
		t.Error("expected zero time before any import")
	}

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SetLastImport("BTCUSDT", "1h", now); err != nil {
		t.Fatal(err)
	}
	if got := store.GetLastImport("BTCUSDT", "1h"); !got.Equal(now) {
		t.Errorf("expected %v, got %v", now, got)
	}
}

// generateTestCandles creates valid hourly candles for testing.
func generateTestCandles(count int, basePrice float64, baseVolume float64) []models.Candle {
	candles := make([]models.Candle, count)
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5

		high := math.Max(open, close) * 1.01
		low := math.Min(open, close) * 0.99

		candles[i] = models.Candle{
			Time:   baseTime + int64(i)*3600,
			Open:   roundToDecimal(open, 2),
			High:   roundToDecimal(high, 2),
			Low:    roundToDecimal(low, 2),
			Close:  roundToDecimal(close, 2),
			Volume: roundToDecimal(baseVolume+float64(i*1000), 2),
		}
	}

	return candles
}

// roundToDecimal rounds a float to specified decimal places
func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// candlesEqual compares two candles for equality with floating point tolerance.
func candlesEqual(a, b models.Candle) bool {
	const tolerance = 0.01

	if a.Time != b.Time {
		return false
	}
	return floatEqual(a.Open, b.Open, tolerance) &&
		floatEqual(a.High, b.High, tolerance) &&
		floatEqual(a.Low, b.Low, tolerance) &&
		floatEqual(a.Close, b.Close, tolerance) &&
		floatEqual(a.Volume, b.Volume, tolerance)
}

// floatEqual compares two floats with a tolerance.
func floatEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
