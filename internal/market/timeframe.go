package market

// Timeframe represents different chart timeframes
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// SwingLookback maps a timeframe to symmetric swing-confirmation windows.
// Smaller timeframes need more bars to cover an equivalent stretch of
// wall-clock time, so the window grows as the timeframe shrinks.
func SwingLookback(tf Timeframe) (left, right int) {
	switch tf {
	case TF1m:
		return 15, 15
	case TF5m:
		return 10, 10
	case TF15m:
		return 8, 8
	case TF1h:
		return 5, 5
	case TF4h:
		return 4, 4
	case TF1d:
		return 3, 3
	default:
		return 5, 5
	}
}

// OrderBlockLookback maps a timeframe to the bounded backward-scan window
// used when locating an order block's origin candle.
func OrderBlockLookback(tf Timeframe) int {
	switch tf {
	case TF1m:
		return 50
	case TF5m:
		return 30
	case TF15m:
		return 20
	case TF1h, TF4h:
		return 15
	case TF1d:
		return 10
	default:
		return 20
	}
}
