package analysis

import (
	"time"

	"smc-analyzer/internal/market"
)

var testBase = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// ohlc builds an hourly candle series from open/high/low/close rows.
func ohlc(rows ...[4]float64) []market.Candle {
	candles := make([]market.Candle, len(rows))
	for i, r := range rows {
		candles[i] = market.Candle{
			Index:    i,
			OpenTime: testBase.Add(time.Duration(i) * time.Hour),
			Open:     r[0],
			High:     r[1],
			Low:      r[2],
			Close:    r[3],
		}
	}
	return candles
}

// flatRows builds n identical open/high/low/close rows for fixtures
// that tweak a few bars before converting.
func flatRows(n int, open, high, low, close float64) [][4]float64 {
	rows := make([][4]float64, n)
	for i := range rows {
		rows[i] = [4]float64{open, high, low, close}
	}
	return rows
}

// flat builds n identical hourly bars.
func flat(n int, open, high, low, close float64) []market.Candle {
	return ohlc(flatRows(n, open, high, low, close)...)
}

func swingAt(index int, price float64, kind SwingKind) SwingPoint {
	return SwingPoint{
		Index: index,
		Time:  testBase.Add(time.Duration(index) * time.Hour),
		Price: price,
		Kind:  kind,
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func approx(a, b float64) bool {
	return abs(a-b) < 1e-9
}
