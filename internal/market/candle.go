package market

import (
	"time"
)

// Candle represents a single OHLCV bar in a chronological series.
// Index is the bar's position within the series the caller supplied;
// detectors reference candles by this index.
type Candle struct {
	Index    int       `json:"index"`
	OpenTime time.Time `json:"openTime"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close > c.Open
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	if c.Close >= c.Open {
		return c.Close - c.Open
	}
	return c.Open - c.Close
}

// Range returns the high-to-low extent of the candle.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// Reindex returns a copy of the series with Index set to each bar's
// position. Callers that build candles from external feeds often leave
// Index zeroed; every detector assumes Index matches slice position.
func Reindex(candles []Candle) []Candle {
	out := make([]Candle, len(candles))
	for i, c := range candles {
		c.Index = i
		out[i] = c
	}
	return out
}
