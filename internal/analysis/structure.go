package analysis

import (
	"fmt"
	"time"

	"smc-analyzer/internal/market"
)

// StructureEventKind distinguishes continuation breaks from reversals
type StructureEventKind string

const (
	EventBOS   StructureEventKind = "BOS"   // break of structure (continuation)
	EventCHOCH StructureEventKind = "CHOCH" // change of character (reversal)
)

// Direction represents the side of a structural break
type Direction string

const (
	DirectionBullish Direction = "bullish"
	DirectionBearish Direction = "bearish"
)

// StructureEvent is one confirmed directional break of a swing level.
// Events are emitted strictly ordered by BreakIndex.
type StructureEvent struct {
	Kind               StructureEventKind `json:"kind"`
	Direction          Direction          `json:"direction"`
	BreakIndex         int                `json:"breakIndex"`
	BreakPrice         float64            `json:"breakPrice"`
	PivotIndex         int                `json:"pivotIndex"`
	PivotTime          time.Time          `json:"pivotTime"`
	ImpulseOriginIndex int                `json:"impulseOriginIndex"` // -1 when no opposite swing precedes the break
	Description        string             `json:"description"`
}

// MarketStructureDetector walks candles against confirmed swings and
// emits BOS/CHOCH events as swing levels are taken out.
type MarketStructureDetector struct {
	breakOnWick bool
}

// NewMarketStructureDetector creates a structure detector. By default a
// break requires a close beyond the swing level; with breakOnWick a wick
// beyond the level is enough.
func NewMarketStructureDetector(breakOnWick bool) *MarketStructureDetector {
	return &MarketStructureDetector{breakOnWick: breakOnWick}
}

// Detect returns the ordered structure events for the series. It tracks
// the most recently confirmed swing high and low; a break beyond one of
// them continues the prevailing bias (BOS) or reverses it (CHOCH). A
// broken level is consumed and breaks in that direction pause until the
// next swing of that kind forms. Fewer than two highs and two lows means
// there is no bias to break, so no events.
func (md *MarketStructureDetector) Detect(candles []market.Candle, swings []SwingPoint) []StructureEvent {
	nHighs, nLows := 0, 0
	for _, s := range swings {
		if s.Kind == SwingHighKind {
			nHighs++
		} else {
			nLows++
		}
	}
	if nHighs < 2 || nLows < 2 {
		return nil
	}

	var (
		events      []StructureEvent
		bias        Direction
		currentHigh *SwingPoint
		currentLow  *SwingPoint
		lastHigh    *SwingPoint // most recent absorbed, even if consumed
		lastLow     *SwingPoint
		si          int
	)

	for i := range candles {
		// Absorb swings confirmed before this candle.
		for si < len(swings) && swings[si].Index < i {
			s := swings[si]
			if s.Kind == SwingHighKind {
				currentHigh, lastHigh = &swings[si], &swings[si]
			} else {
				currentLow, lastLow = &swings[si], &swings[si]
			}
			si++
		}

		upRef, downRef := candles[i].Close, candles[i].Close
		if md.breakOnWick {
			upRef, downRef = candles[i].High, candles[i].Low
		}

		if currentHigh != nil && upRef > currentHigh.Price {
			events = append(events, md.newEvent(candles[i], *currentHigh, lastLow, DirectionBullish, bias))
			bias = DirectionBullish
			currentHigh = nil
		}
		if currentLow != nil && downRef < currentLow.Price {
			events = append(events, md.newEvent(candles[i], *currentLow, lastHigh, DirectionBearish, bias))
			bias = DirectionBearish
			currentLow = nil
		}
	}

	return events
}

func (md *MarketStructureDetector) newEvent(breakCandle market.Candle, pivot SwingPoint, origin *SwingPoint, dir Direction, bias Direction) StructureEvent {
	kind := EventBOS
	if bias != "" && bias != dir {
		kind = EventCHOCH
	}

	originIdx := -1
	if origin != nil {
		originIdx = origin.Index
	}

	breakPrice := breakCandle.Close
	if md.breakOnWick {
		if dir == DirectionBullish {
			breakPrice = breakCandle.High
		} else {
			breakPrice = breakCandle.Low
		}
	}

	side := "above swing high"
	if dir == DirectionBearish {
		side = "below swing low"
	}

	return StructureEvent{
		Kind:               kind,
		Direction:          dir,
		BreakIndex:         breakCandle.Index,
		BreakPrice:         breakPrice,
		PivotIndex:         pivot.Index,
		PivotTime:          pivot.Time,
		ImpulseOriginIndex: originIdx,
		Description: fmt.Sprintf("%s %s %s %.5f (pivot idx %d)",
			dir, kind, side, pivot.Price, pivot.Index),
	}
}
