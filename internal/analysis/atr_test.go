package analysis

import (
	"testing"
)

// TestTrueRange tests the three-way true range
func TestTrueRange(t *testing.T) {
	candles := ohlc(
		[4]float64{100, 101, 99, 100},
		[4]float64{100, 102, 100.5, 101}, // gap up: range vs prior close
	)

	if tr := TrueRange(candles[0], candles[1]); !approx(tr, 2) {
		t.Errorf("Expected true range 2 (high minus prior close), got %f", tr)
	}

	candles = ohlc(
		[4]float64{100, 101, 99, 100},
		[4]float64{97, 97.5, 96.5, 97}, // gap down
	)
	if tr := TrueRange(candles[0], candles[1]); !approx(tr, 3.5) {
		t.Errorf("Expected true range 3.5 (prior close minus low), got %f", tr)
	}
}

// TestCalculateATR tests the trailing average on a constant-range series
func TestCalculateATR(t *testing.T) {
	candles := flat(20, 100, 101, 99, 100)

	if atr := CalculateATR(candles, DefaultATRPeriod); !approx(atr, 2) {
		t.Errorf("Expected ATR 2 for constant range, got %f", atr)
	}
}

// TestCalculateATRInsufficientHistory tests the zero result when the
// window does not fit
func TestCalculateATRInsufficientHistory(t *testing.T) {
	candles := flat(10, 100, 101, 99, 100)

	if atr := CalculateATR(candles, DefaultATRPeriod); atr != 0 {
		t.Errorf("Expected ATR 0 with short history, got %f", atr)
	}
	if atr := CalculateATR(candles, 0); atr != 0 {
		t.Errorf("Expected ATR 0 with zero period, got %f", atr)
	}
}

// TestRollingATR tests the per-index series and its warmup zeros
func TestRollingATR(t *testing.T) {
	candles := flat(20, 100, 101, 99, 100)

	atr := RollingATR(candles, DefaultATRPeriod)
	if len(atr) != len(candles) {
		t.Fatalf("Expected one entry per candle, got %d", len(atr))
	}
	for i := 0; i < DefaultATRPeriod; i++ {
		if atr[i] != 0 {
			t.Errorf("index %d: expected 0 during warmup, got %f", i, atr[i])
		}
	}
	for i := DefaultATRPeriod; i < len(atr); i++ {
		if !approx(atr[i], 2) {
			t.Errorf("index %d: expected ATR 2, got %f", i, atr[i])
		}
	}
}

// TestRollingATRTracksChange tests the window sliding past a volatility
// step
func TestRollingATRTracksChange(t *testing.T) {
	rows := flatRows(40, 100, 101, 99, 100)
	for i := 20; i < 40; i++ {
		rows[i] = [4]float64{100, 103, 97, 100} // range widens to 6
	}
	candles := ohlc(rows...)

	atr := RollingATR(candles, DefaultATRPeriod)
	if !approx(atr[19], 2) {
		t.Errorf("Expected ATR 2 before the step, got %f", atr[19])
	}
	if !approx(atr[39], 6) {
		t.Errorf("Expected ATR 6 once the window is past the step, got %f", atr[39])
	}
	if atr[25] <= atr[19] || atr[25] >= atr[39] {
		t.Errorf("Expected ATR mid-transition between 2 and 6, got %f", atr[25])
	}
}
