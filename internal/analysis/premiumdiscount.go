package analysis

import (
	"time"

	"smc-analyzer/internal/market"
)

// RangeZoneKind partitions the active trading range.
type RangeZoneKind string

const (
	ZoneDiscount    RangeZoneKind = "discount"
	ZoneEquilibrium RangeZoneKind = "equilibrium"
	ZonePremium     RangeZoneKind = "premium"
	ZoneOTE         RangeZoneKind = "ote"
)

// OTE retracement bounds, measured from the range low.
const (
	oteLowerRatio = 0.62
	oteUpperRatio = 0.79
)

// PremiumDiscountZone is one partition of the trailing range between the
// most recent swing high and low. Zones are recomputed from scratch on
// every call and never persisted.
type PremiumDiscountZone struct {
	Kind      RangeZoneKind `json:"kind"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Top       float64       `json:"top"`
	Bottom    float64       `json:"bottom"`
}

// PremiumDiscountDetector partitions the range between the latest swing
// high/low pair into discount, equilibrium, premium and OTE sub-zones.
type PremiumDiscountDetector struct{}

// NewPremiumDiscountDetector creates a premium/discount detector.
func NewPremiumDiscountDetector() *PremiumDiscountDetector {
	return &PremiumDiscountDetector{}
}

// Detect picks the most recent swing high and swing low by timestamp
// and splits their range at equilibrium, with the OTE pocket anchored at
// 62-79% of the range above the low. An inverted or empty range yields
// no zones.
func (pd *PremiumDiscountDetector) Detect(candles []market.Candle, swingHighs, swingLows []SwingPoint) []PremiumDiscountZone {
	if len(candles) == 0 || len(swingHighs) == 0 || len(swingLows) == 0 {
		return nil
	}

	high := latestByTime(swingHighs)
	low := latestByTime(swingLows)
	if high.Price <= low.Price {
		return nil
	}

	start := high.Time
	if low.Time.Before(start) {
		start = low.Time
	}
	end := candles[len(candles)-1].OpenTime

	r := high.Price - low.Price
	eq := low.Price + 0.5*r

	return []PremiumDiscountZone{
		{Kind: ZoneDiscount, StartTime: start, EndTime: end, Top: eq, Bottom: low.Price},
		{Kind: ZoneEquilibrium, StartTime: start, EndTime: end, Top: eq, Bottom: eq},
		{Kind: ZonePremium, StartTime: start, EndTime: end, Top: high.Price, Bottom: eq},
		{Kind: ZoneOTE, StartTime: start, EndTime: end, Top: low.Price + oteUpperRatio*r, Bottom: low.Price + oteLowerRatio*r},
	}
}

func latestByTime(swings []SwingPoint) SwingPoint {
	latest := swings[0]
	for _, s := range swings[1:] {
		if s.Time.After(latest.Time) {
			latest = s
		}
	}
	return latest
}
