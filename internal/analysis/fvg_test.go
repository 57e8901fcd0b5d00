package analysis

import (
	"errors"
	"testing"
)

// TestNewFVGDetectorRejectsBadConfig tests constructor validation
func TestNewFVGDetectorRejectsBadConfig(t *testing.T) {
	if _, err := NewFVGDetector(-0.1, false); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for negative gap size, got %v", err)
	}
	if _, err := NewFVGDetector(0, false); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero gap without auto threshold, got %v", err)
	}
	if _, err := NewFVGDetector(0, true); err != nil {
		t.Errorf("Expected zero gap size to be valid in auto mode, got %v", err)
	}
}

// TestDetectNoGapInOverlap tests that overlapping three-bar sequences
// yield nothing
func TestDetectNoGapInOverlap(t *testing.T) {
	detector, err := NewFVGDetector(0.0001, false)
	if err != nil {
		t.Fatalf("Failed to create detector: %v", err)
	}

	candles := ohlc(
		[4]float64{1.10, 1.102, 1.098, 1.101},
		[4]float64{1.101, 1.103, 1.099, 1.100},
		[4]float64{1.100, 1.105, 1.099, 1.104}, // low 1.099 < high 1.102, no gap
	)

	if gaps := detector.Detect(candles); len(gaps) != 0 {
		t.Errorf("Expected no gaps in overlapping candles, got %d", len(gaps))
	}
}

// TestDetectBullishFVG tests the basic bullish imbalance
func TestDetectBullishFVG(t *testing.T) {
	detector, _ := NewFVGDetector(0.5, false)

	candles := ohlc(
		[4]float64{99.5, 100, 99, 99.8},
		[4]float64{99.8, 102, 99.7, 101.8},
		[4]float64{101.5, 103, 101, 102.5}, // low 101 clears high 100
	)

	gaps := detector.Detect(candles)
	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Kind != BullishFVG {
		t.Errorf("Expected bullish gap, got %s", g.Kind)
	}
	if g.Top != 101 || g.Bottom != 100 {
		t.Errorf("Expected gap [100, 101], got [%f, %f]", g.Bottom, g.Top)
	}
	if g.StartIndex != 0 || g.EndIndex != 2 {
		t.Errorf("Expected indices 0/2, got %d/%d", g.StartIndex, g.EndIndex)
	}
	if g.MitigationLevel != 0 {
		t.Errorf("Expected fresh gap at level 0, got %d", g.MitigationLevel)
	}
	if !approx(g.Mid(), 100.5) {
		t.Errorf("Expected midpoint 100.5, got %f", g.Mid())
	}
	if g.ID != "fvg_bullish_1" {
		t.Errorf("Unexpected gap ID %s", g.ID)
	}
}

// TestDetectBearishFVG tests the mirrored bearish imbalance
func TestDetectBearishFVG(t *testing.T) {
	detector, _ := NewFVGDetector(0.5, false)

	candles := ohlc(
		[4]float64{102.5, 103, 102, 102.6},
		[4]float64{102.4, 102.5, 99.8, 100},
		[4]float64{100, 101, 99, 99.5}, // high 101 under low 102
	)

	gaps := detector.Detect(candles)
	if len(gaps) != 1 {
		t.Fatalf("Expected 1 gap, got %d", len(gaps))
	}
	g := gaps[0]
	if g.Kind != BearishFVG {
		t.Errorf("Expected bearish gap, got %s", g.Kind)
	}
	if g.Top != 102 || g.Bottom != 101 {
		t.Errorf("Expected gap [101, 102], got [%f, %f]", g.Bottom, g.Top)
	}
}

// TestDetectMinGapSizeFilter tests that gaps under the threshold are
// dropped
func TestDetectMinGapSizeFilter(t *testing.T) {
	detector, _ := NewFVGDetector(1.5, false)

	// gap of exactly 1.0, below the 1.5 threshold
	candles := ohlc(
		[4]float64{99.5, 100, 99, 99.8},
		[4]float64{99.8, 102, 99.7, 101.8},
		[4]float64{101.5, 103, 101, 102.5},
	)

	if gaps := detector.Detect(candles); len(gaps) != 0 {
		t.Errorf("Expected gap filtered by minimum size, got %d", len(gaps))
	}
}

// TestDetectAutoThreshold tests the ATR-scaled minimum in auto mode
func TestDetectAutoThreshold(t *testing.T) {
	// 20 candles with a steady range of 2, so the rolling ATR sits near
	// 2 and the auto threshold near 0.5. The small 0.1 gap at the end
	// should pass a fixed 0.05 detector but fail the auto one.
	rows := make([][4]float64, 20)
	for i := range rows {
		p := 100.0
		rows[i] = [4]float64{p, p + 1, p - 1, p}
	}
	rows[17] = [4]float64{100, 101, 99, 100.9}
	rows[18] = [4]float64{101.0, 103.2, 100.9, 103.0} // middle of the gap triple
	rows[19] = [4]float64{103.0, 105.0, 101.1, 104.8} // low 101.1 vs high 101: gap 0.1

	fixed, _ := NewFVGDetector(0.05, false)
	auto, _ := NewFVGDetector(0.05, true)

	candles := ohlc(rows...)

	if gaps := fixed.Detect(candles); len(gaps) != 1 {
		t.Fatalf("fixed threshold: expected 1 gap, got %d", len(gaps))
	}
	if gaps := auto.Detect(candles); len(gaps) != 0 {
		t.Errorf("auto threshold: expected small gap filtered against ATR, got %d", len(gaps))
	}
}

// TestUpdateMitigationGrades tests the graded fill levels
func TestUpdateMitigationGrades(t *testing.T) {
	detector, _ := NewFVGDetector(0.5, false)

	base := [][4]float64{
		{99.5, 100, 99, 99.8},
		{99.8, 102, 99.7, 101.8},
		{101.5, 103, 101, 102.5}, // bullish gap [100, 101]
	}

	tests := []struct {
		name     string
		extra    [4]float64
		expected int
	}{
		{"untouched", [4]float64{102.5, 103.5, 101.5, 103}, 0},
		{"quarter filled", [4]float64{102.5, 103, 100.75, 102}, 1},
		{"over half filled", [4]float64{102.5, 103, 100.4, 102}, 2},
		{"fully filled", [4]float64{102.5, 103, 99, 100.5}, FullyMitigated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candles := ohlc(append(append([][4]float64{}, base...), tt.extra)...)
			gaps := detector.UpdateMitigation(candles, detector.Detect(candles))
			if len(gaps) != 1 {
				t.Fatalf("Expected 1 gap, got %d", len(gaps))
			}
			if gaps[0].MitigationLevel != tt.expected {
				t.Errorf("Expected mitigation level %d, got %d", tt.expected, gaps[0].MitigationLevel)
			}
		})
	}
}

// TestUpdateMitigationNeverDecreases tests monotone fill across
// replays of growing prefixes
func TestUpdateMitigationNeverDecreases(t *testing.T) {
	detector, _ := NewFVGDetector(0.5, false)

	rows := [][4]float64{
		{99.5, 100, 99, 99.8},
		{99.8, 102, 99.7, 101.8},
		{101.5, 103, 101, 102.5},
		{102.5, 103, 100.4, 102},   // deep retrace, level 2
		{102, 103.5, 101.8, 103.2}, // bounces away from the gap
		{103.2, 104, 102.9, 103.8},
	}
	candles := ohlc(rows...)
	gaps := detector.Detect(candles[:3])

	prev := 0
	for upTo := 3; upTo <= len(candles); upTo++ {
		gaps = detector.UpdateMitigation(candles[:upTo], gaps)
		if gaps[0].MitigationLevel < prev {
			t.Fatalf("upTo=%d: mitigation regressed from %d to %d", upTo, prev, gaps[0].MitigationLevel)
		}
		prev = gaps[0].MitigationLevel
	}
	if prev != 2 {
		t.Errorf("Expected final mitigation level 2, got %d", prev)
	}
}

// TestUnfilled tests filtering gaps by fill threshold
func TestUnfilled(t *testing.T) {
	gaps := []FairValueGap{
		{ID: "a", MitigationLevel: 0},
		{ID: "b", MitigationLevel: 3},
		{ID: "c", MitigationLevel: FullyMitigated},
	}

	open := Unfilled(gaps, FullyMitigated)
	if len(open) != 2 {
		t.Fatalf("Expected 2 open gaps, got %d", len(open))
	}
	if open[0].ID != "a" || open[1].ID != "b" {
		t.Errorf("Unexpected open gaps %s, %s", open[0].ID, open[1].ID)
	}
}

func BenchmarkDetectFVG(b *testing.B) {
	rows := make([][4]float64, 1000)
	for i := range rows {
		p := 100.0 + float64(i%7)
		rows[i] = [4]float64{p, p + 2, p - 2, p + 1}
	}
	candles := ohlc(rows...)
	detector, _ := NewFVGDetector(0.5, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		detector.Detect(candles)
	}
}
