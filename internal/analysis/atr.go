package analysis

import (
	"math"

	"smc-analyzer/internal/market"
)

// DefaultATRPeriod is the trailing window used for volatility-scaled
// thresholds when no explicit period is configured.
const DefaultATRPeriod = 14

// TrueRange returns the true range of cur given the previous candle.
func TrueRange(prev, cur market.Candle) float64 {
	return math.Max(
		cur.High-cur.Low,
		math.Max(
			math.Abs(cur.High-prev.Close),
			math.Abs(cur.Low-prev.Close),
		),
	)
}

// CalculateATR calculates the Average True Range over the trailing
// period bars of the series. Returns 0 when there is not enough history.
func CalculateATR(candles []market.Candle, period int) float64 {
	if period <= 0 || len(candles) < period+1 {
		return 0
	}

	trSum := 0.0
	startIdx := len(candles) - period
	for i := startIdx; i < len(candles); i++ {
		trSum += TrueRange(candles[i-1], candles[i])
	}

	return trSum / float64(period)
}

// RollingATR returns a per-index ATR series where out[i] is the average
// true range of the period bars ending at i. Entries with insufficient
// history are 0.
func RollingATR(candles []market.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}

	sum := 0.0
	for i := 1; i < len(candles); i++ {
		sum += TrueRange(candles[i-1], candles[i])
		if i > period {
			sum -= TrueRange(candles[i-period-1], candles[i-period])
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}
