package analysis

import (
	"fmt"
	"time"

	"smc-analyzer/internal/market"
)

// FVGKind represents the type of Fair Value Gap
type FVGKind string

const (
	BullishFVG FVGKind = "bullish"
	BearishFVG FVGKind = "bearish"
)

// FullyMitigated is the saturation value of an FVG's graded fill level.
const FullyMitigated = 4

// FairValueGap is a three-bar imbalance. MitigationLevel grades how much
// of the gap has been retraced: 0 untouched through 4 fully closed. It
// never decreases.
type FairValueGap struct {
	ID              string    `json:"id"`
	Kind            FVGKind   `json:"kind"`
	StartIndex      int       `json:"startIndex"`
	EndIndex        int       `json:"endIndex"`
	Top             float64   `json:"top"`
	Bottom          float64   `json:"bottom"`
	Time            time.Time `json:"time"` // middle candle
	MitigationLevel int       `json:"mitigationLevel"`
}

// Mid returns the gap's midpoint, used as a confluence target.
func (g FairValueGap) Mid() float64 {
	return (g.Top + g.Bottom) / 2
}

// FVGDetector detects Fair Value Gaps and tracks their graded fill.
type FVGDetector struct {
	minGapSize    float64
	autoThreshold bool
	atrPeriod     int
	atrRatio      float64
}

// Ratio of trailing ATR used as the minimum gap size in auto mode.
const defaultAutoGapATRRatio = 0.25

// NewFVGDetector creates an FVG detector. minGapSize is an absolute
// price distance; with autoThreshold the minimum admissible gap scales
// with a trailing ATR instead, and minGapSize serves as the fallback
// while the ATR window is still warming up.
func NewFVGDetector(minGapSize float64, autoThreshold bool) (*FVGDetector, error) {
	if minGapSize < 0 || (minGapSize == 0 && !autoThreshold) {
		return nil, fmt.Errorf("%w: fvg minimum gap size must be positive, got %f",
			ErrInvalidConfig, minGapSize)
	}
	return &FVGDetector{
		minGapSize:    minGapSize,
		autoThreshold: autoThreshold,
		atrPeriod:     DefaultATRPeriod,
		atrRatio:      defaultAutoGapATRRatio,
	}, nil
}

// Detect identifies all Fair Value Gaps in the series. A bullish gap
// exists at middle candle i when low[i+1] clears high[i-1]; bearish when
// high[i+1] sits under low[i-1].
func (fd *FVGDetector) Detect(candles []market.Candle) []FairValueGap {
	if len(candles) < 3 {
		return nil
	}

	var atr []float64
	if fd.autoThreshold {
		atr = RollingATR(candles, fd.atrPeriod)
	}

	var gaps []FairValueGap
	for i := 1; i < len(candles)-1; i++ {
		prev, mid, next := candles[i-1], candles[i], candles[i+1]

		minGap := fd.minGapSize
		if fd.autoThreshold && atr[i] > 0 {
			minGap = atr[i] * fd.atrRatio
		}

		if next.Low > prev.High && next.Low-prev.High >= minGap {
			gaps = append(gaps, FairValueGap{
				ID:         fmt.Sprintf("fvg_%s_%d", BullishFVG, i),
				Kind:       BullishFVG,
				StartIndex: i - 1,
				EndIndex:   i + 1,
				Top:        next.Low,
				Bottom:     prev.High,
				Time:       mid.OpenTime,
			})
		}

		if next.High < prev.Low && prev.Low-next.High >= minGap {
			gaps = append(gaps, FairValueGap{
				ID:         fmt.Sprintf("fvg_%s_%d", BearishFVG, i),
				Kind:       BearishFVG,
				StartIndex: i - 1,
				EndIndex:   i + 1,
				Top:        prev.Low,
				Bottom:     next.High,
				Time:       mid.OpenTime,
			})
		}
	}

	return gaps
}

// UpdateMitigation recomputes each gap's fill grade by replaying candles
// after the gap's third bar. For a bullish gap retracement is measured
// from the top downward, for a bearish gap from the bottom upward; the
// grade saturates at FullyMitigated once the whole range has traded
// through and never decreases.
func (fd *FVGDetector) UpdateMitigation(candles []market.Candle, gaps []FairValueGap) []FairValueGap {
	out := make([]FairValueGap, len(gaps))
	copy(out, gaps)

	for gi := range out {
		g := &out[gi]
		size := g.Top - g.Bottom
		if size <= 0 {
			continue
		}

		penetration := 0.0
		for i := g.EndIndex + 1; i < len(candles); i++ {
			var p float64
			if g.Kind == BullishFVG {
				p = g.Top - candles[i].Low
			} else {
				p = candles[i].High - g.Bottom
			}
			if p > penetration {
				penetration = p
			}
		}

		if level := gradeMitigation(penetration, size); level > g.MitigationLevel {
			g.MitigationLevel = level
		}
	}

	return out
}

func gradeMitigation(penetration, size float64) int {
	if penetration <= 0 {
		return 0
	}
	if penetration >= size {
		return FullyMitigated
	}
	return int(penetration / size * FullyMitigated)
}

// Unfilled returns only gaps below the given mitigation threshold.
func Unfilled(gaps []FairValueGap, threshold int) []FairValueGap {
	var open []FairValueGap
	for _, g := range gaps {
		if g.MitigationLevel < threshold {
			open = append(open, g)
		}
	}
	return open
}
