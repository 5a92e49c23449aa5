package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "smc-trader/internal/errors"
	"smc-trader/internal/models"
)

// csvCandle is one CSV row. The time column may be named time, timestamp or date
// and hold Unix seconds, Unix milliseconds or an RFC 3339 / date string.
type csvCandle struct {
	Time      string  `csv:"time"`
	Timestamp string  `csv:"timestamp"`
	Date      string  `csv:"date"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    float64 `csv:"volume"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCandlesFile reads candles from a .csv or .json file.
func LoadCandlesFile(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVCandles(f)
	case ".json":
		return ReadJSONCandles(f)
	default:
		return nil, fmt.Errorf("%w: %s (expected .csv or .json)", apperrors.ErrUnsupportedInput, path)
	}
}

// ReadCSVCandles parses CSV candles with a header row. Rows are sorted by time.
func ReadCSVCandles(r io.Reader) ([]models.Candle, error) {
	var rows []*csvCandle
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: parsing csv: %v", apperrors.ErrUnsupportedInput, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		raw := firstNonEmpty(row.Time, row.Timestamp, row.Date)
		ts, err := parseTime(raw)
		if err != nil {
			// +2: header line and 1-based numbering
			return nil, fmt.Errorf("%w: csv line %d: %v", apperrors.ErrUnsupportedInput, i+2, err)
		}
		candles = append(candles, models.Candle{
			Time:   ts,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	sortCandles(candles)
	return candles, nil
}

// ReadJSONCandles parses either a bare array of candles or an object with a
// "candles" array. Millisecond timestamps are converted to seconds.
func ReadJSONCandles(r io.Reader) ([]models.Candle, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var candles []models.Candle
	if len(data) > 0 && data[0] == '{' {
		var wrapper struct {
			Candles []models.Candle `json:"candles"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: parsing json: %v", apperrors.ErrUnsupportedInput, err)
		}
		candles = wrapper.Candles
	} else if err := json.Unmarshal(data, &candles); err != nil {
		return nil, fmt.Errorf("%w: parsing json: %v", apperrors.ErrUnsupportedInput, err)
	}

	for i := range candles {
		candles[i].Time = normalizeUnix(candles[i].Time)
	}
	sortCandles(candles)
	return candles, nil
}

// WriteCSVCandles writes candles with a time,open,high,low,close,volume header.
func WriteCSVCandles(w io.Writer, candles []models.Candle) error {
	return gocsv.Marshal(candles, w)
}

func parseTime(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("missing time")
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return normalizeUnix(n), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return normalizeUnix(int64(f)), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q", raw)
}

// normalizeUnix converts millisecond timestamps to seconds.
func normalizeUnix(ts int64) int64 {
	if ts > 1e11 || ts < -1e11 {
		return ts / 1000
	}
	return ts
}

func sortCandles(candles []models.Candle) {
	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Time < candles[j].Time
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
