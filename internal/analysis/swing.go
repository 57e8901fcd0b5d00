package analysis

import (
	"fmt"
	"sort"
	"time"

	"smc-analyzer/internal/market"
)

// SwingKind distinguishes swing highs from swing lows
type SwingKind string

const (
	SwingHighKind SwingKind = "high"
	SwingLowKind  SwingKind = "low"
)

// SwingRole is the trend role assigned during classification
type SwingRole string

const (
	RoleNone SwingRole = ""
	RoleHH   SwingRole = "HH" // higher high
	RoleHL   SwingRole = "HL" // higher low
	RoleLH   SwingRole = "LH" // lower high
	RoleLL   SwingRole = "LL" // lower low
)

// SwingPoint is a confirmed local price extremum. Immutable once
// created; downstream stages consume it without mutation.
type SwingPoint struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
	Kind  SwingKind `json:"kind"`
	Role  SwingRole `json:"role,omitempty"`
}

// SwingDetector locates swing highs/lows using symmetric lookback
// windows and classifies them into HH/HL/LH/LL roles.
type SwingDetector struct {
	lookbackLeft  int
	lookbackRight int
}

// NewSwingDetector creates a swing detector. Both lookbacks must be
// positive.
func NewSwingDetector(lookbackLeft, lookbackRight int) (*SwingDetector, error) {
	if lookbackLeft <= 0 || lookbackRight <= 0 {
		return nil, fmt.Errorf("%w: swing lookback must be positive (left=%d, right=%d)",
			ErrInvalidConfig, lookbackLeft, lookbackRight)
	}
	return &SwingDetector{
		lookbackLeft:  lookbackLeft,
		lookbackRight: lookbackRight,
	}, nil
}

// Detect identifies swing highs and lows. A bar is a swing high when its
// high dominates every bar in both lookback windows; equal highs within
// a window resolve to the earliest index (the comparison is strict
// against the left window, inclusive against the right one). Series too
// short for the window yield empty results.
func (sd *SwingDetector) Detect(candles []market.Candle) (highs, lows []SwingPoint) {
	if len(candles) < sd.lookbackLeft+sd.lookbackRight+1 {
		return nil, nil
	}

	for i := sd.lookbackLeft; i < len(candles)-sd.lookbackRight; i++ {
		isHigh, isLow := true, true

		for j := 1; j <= sd.lookbackLeft; j++ {
			if candles[i-j].High >= candles[i].High {
				isHigh = false
			}
			if candles[i-j].Low <= candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		for j := 1; j <= sd.lookbackRight && (isHigh || isLow); j++ {
			if candles[i+j].High > candles[i].High {
				isHigh = false
			}
			if candles[i+j].Low < candles[i].Low {
				isLow = false
			}
		}

		if isHigh {
			highs = append(highs, SwingPoint{
				Index: i,
				Time:  candles[i].OpenTime,
				Price: candles[i].High,
				Kind:  SwingHighKind,
			})
		}
		if isLow {
			lows = append(lows, SwingPoint{
				Index: i,
				Time:  candles[i].OpenTime,
				Price: candles[i].Low,
				Kind:  SwingLowKind,
			})
		}
	}

	return highs, lows
}

// Classify merges highs and lows into one time-ordered sequence and
// assigns each swing a role relative to the previous swing of the same
// kind: a high above the prior high is HH, otherwise LH; a low below the
// prior low is LL, otherwise HL. The first swing of each kind has no
// prior reference and stays unclassified.
func (sd *SwingDetector) Classify(highs, lows []SwingPoint) []SwingPoint {
	merged := make([]SwingPoint, 0, len(highs)+len(lows))
	merged = append(merged, highs...)
	merged = append(merged, lows...)

	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].Time.Equal(merged[b].Time) {
			return merged[a].Index < merged[b].Index
		}
		return merged[a].Time.Before(merged[b].Time)
	})

	var prevHigh, prevLow *SwingPoint
	for i := range merged {
		s := &merged[i]
		switch s.Kind {
		case SwingHighKind:
			if prevHigh != nil {
				if s.Price > prevHigh.Price {
					s.Role = RoleHH
				} else {
					s.Role = RoleLH
				}
			}
			prevHigh = s
		case SwingLowKind:
			if prevLow != nil {
				if s.Price < prevLow.Price {
					s.Role = RoleLL
				} else {
					s.Role = RoleHL
				}
			}
			prevLow = s
		}
	}

	return merged
}
