package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ReadCSV parses candles from CSV data with columns
// time,open,high,low,close,volume. The time column accepts either unix
// seconds or RFC 3339. A header row is skipped when present.
func ReadCSV(r io.Reader) ([]Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var candles []Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line+1, err)
		}
		line++

		if len(record) < 5 {
			return nil, fmt.Errorf("csv line %d: expected at least 5 columns, got %d", line, len(record))
		}

		ts, err := parseTime(record[0])
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		c := Candle{OpenTime: ts}
		if c.Open, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, fmt.Errorf("csv line %d: bad open: %w", line, err)
		}
		if c.High, err = strconv.ParseFloat(record[2], 64); err != nil {
			return nil, fmt.Errorf("csv line %d: bad high: %w", line, err)
		}
		if c.Low, err = strconv.ParseFloat(record[3], 64); err != nil {
			return nil, fmt.Errorf("csv line %d: bad low: %w", line, err)
		}
		if c.Close, err = strconv.ParseFloat(record[4], 64); err != nil {
			return nil, fmt.Errorf("csv line %d: bad close: %w", line, err)
		}
		if len(record) > 5 && record[5] != "" {
			if c.Volume, err = strconv.ParseFloat(record[5], 64); err != nil {
				return nil, fmt.Errorf("csv line %d: bad volume: %w", line, err)
			}
		}
		candles = append(candles, c)
	}

	return Reindex(candles), nil
}

func parseTime(s string) (time.Time, error) {
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", s)
	}
	return t.UTC(), nil
}
