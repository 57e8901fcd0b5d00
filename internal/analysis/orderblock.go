package analysis

import (
	"fmt"
	"time"

	"smc-analyzer/internal/market"
)

// OrderBlockKind aligns with the direction of the break the block
// originated.
type OrderBlockKind string

const (
	BullishOB OrderBlockKind = "bullish"
	BearishOB OrderBlockKind = "bearish"
)

// OrderBlockState is the graded mitigation lifecycle of a zone. States
// are ordered and only ever advance.
type OrderBlockState int

const (
	OBActive OrderBlockState = iota
	OBTouched
	OBPartial
	OBMitigated
)

func (s OrderBlockState) String() string {
	switch s {
	case OBActive:
		return "active"
	case OBTouched:
		return "touched"
	case OBPartial:
		return "partial"
	case OBMitigated:
		return "mitigated"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the state as its lifecycle name.
func (s OrderBlockState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// OrderBlock is the supply/demand zone formed by the last
// opposite-direction candle before an impulsive structural break.
type OrderBlock struct {
	ID              string          `json:"id"`
	Kind            OrderBlockKind  `json:"kind"`
	CandleIndex     int             `json:"candleIndex"`
	BreakIndex      int             `json:"breakIndex"`
	Time            time.Time       `json:"time"`
	High            float64         `json:"high"`
	Low             float64         `json:"low"`
	Mid             float64         `json:"mid"`
	State           OrderBlockState `json:"state"`
	IsBreaker       bool            `json:"isBreaker"`
	LiquiditySwept  *float64        `json:"liquiditySwept,omitempty"`
	LookbackCandles int             `json:"lookbackCandles"`

	mitigatedAt int // candle index of the mitigating close, -1 until mitigated
}

// Contains reports whether price is inside the zone.
func (ob OrderBlock) Contains(price float64) bool {
	return price >= ob.Low && price <= ob.High
}

// OrderBlockDetector locates order blocks from structure events and
// tracks their mitigation lifecycle.
type OrderBlockDetector struct {
	lookbackWindow int
}

// NewOrderBlockDetector creates an order block detector. The backward
// scan window must be positive.
func NewOrderBlockDetector(lookbackWindow int) (*OrderBlockDetector, error) {
	if lookbackWindow <= 0 {
		return nil, fmt.Errorf("%w: order block lookback window must be positive, got %d",
			ErrInvalidConfig, lookbackWindow)
	}
	return &OrderBlockDetector{lookbackWindow: lookbackWindow}, nil
}

// Detect scans backward from each structural break for the nearest
// candle whose direction opposes the break; that candle's range becomes
// the zone. When a lower-timeframe series is supplied the zone is
// tightened to the refining candle with the most extreme wick inside the
// original range. Breaks with no opposite candle inside the window
// produce no block.
func (od *OrderBlockDetector) Detect(candles []market.Candle, events []StructureEvent, lowerTF []market.Candle) []OrderBlock {
	var blocks []OrderBlock

	for _, ev := range events {
		if ev.BreakIndex <= 0 || ev.BreakIndex >= len(candles) {
			continue
		}

		wantBearish := ev.Direction == DirectionBullish
		origin := -1
		stop := ev.BreakIndex - od.lookbackWindow
		if stop < 0 {
			stop = 0
		}
		for i := ev.BreakIndex - 1; i >= stop; i-- {
			if wantBearish && candles[i].Bearish() {
				origin = i
				break
			}
			if !wantBearish && candles[i].Bullish() {
				origin = i
				break
			}
		}
		if origin < 0 {
			continue
		}

		kind := BullishOB
		if ev.Direction == DirectionBearish {
			kind = BearishOB
		}

		ob := OrderBlock{
			ID:              fmt.Sprintf("ob_%s_%d_%d", kind, origin, ev.BreakIndex),
			Kind:            kind,
			CandleIndex:     origin,
			BreakIndex:      ev.BreakIndex,
			Time:            candles[origin].OpenTime,
			High:            candles[origin].High,
			Low:             candles[origin].Low,
			State:           OBActive,
			LookbackCandles: od.lookbackWindow,
			mitigatedAt:     -1,
		}

		if len(lowerTF) > 0 {
			od.refine(&ob, candles, lowerTF)
		}
		ob.Mid = (ob.High + ob.Low) / 2

		blocks = append(blocks, ob)
	}

	return blocks
}

// refine tightens the zone to the lower-timeframe candle with the most
// extreme wick inside the original zone, leaving the owning event and
// origin index untouched.
func (od *OrderBlockDetector) refine(ob *OrderBlock, candles, lowerTF []market.Candle) {
	start := candles[ob.CandleIndex].OpenTime
	var end time.Time
	if ob.CandleIndex+1 < len(candles) {
		end = candles[ob.CandleIndex+1].OpenTime
	}

	var best *market.Candle
	for i := range lowerTF {
		c := lowerTF[i]
		if c.OpenTime.Before(start) {
			continue
		}
		if !end.IsZero() && !c.OpenTime.Before(end) {
			break
		}
		if c.Low > ob.High || c.High < ob.Low {
			continue
		}
		if best == nil {
			best = &lowerTF[i]
			continue
		}
		if ob.Kind == BullishOB && c.Low < best.Low {
			best = &lowerTF[i]
		}
		if ob.Kind == BearishOB && c.High > best.High {
			best = &lowerTF[i]
		}
	}
	if best == nil {
		return
	}

	low, high := best.Low, best.High
	if low < ob.Low {
		low = ob.Low
	}
	if high > ob.High {
		high = ob.High
	}
	if low < high {
		ob.Low, ob.High = low, high
	}
}

// UpdateStates replays candles forward from each block's break and
// advances its state: touched when a later range intersects the zone,
// partial when a close lands inside past the midpoint, mitigated when a
// close clears the far boundary. A mitigated zone later rejected from
// the opposite side is flagged as a breaker. States never regress.
func (od *OrderBlockDetector) UpdateStates(candles []market.Candle, blocks []OrderBlock) []OrderBlock {
	out := make([]OrderBlock, len(blocks))
	copy(out, blocks)

	for bi := range out {
		ob := &out[bi]
		if ob.mitigatedAt == 0 {
			ob.mitigatedAt = -1
		}

		for i := ob.BreakIndex + 1; i < len(candles); i++ {
			c := candles[i]

			if ob.State == OBMitigated {
				if od.isBreakerRetest(*ob, c) {
					ob.IsBreaker = true
				}
				continue
			}

			if c.Low <= ob.High && c.High >= ob.Low {
				ob.advance(OBTouched)
			}
			if od.closedPastMid(*ob, c) {
				ob.advance(OBPartial)
			}
			if od.closedThrough(*ob, c) {
				ob.advance(OBMitigated)
				ob.mitigatedAt = i
			}
		}
	}

	return out
}

func (od *OrderBlockDetector) closedPastMid(ob OrderBlock, c market.Candle) bool {
	if ob.Kind == BullishOB {
		return c.Close <= ob.Mid && c.Close >= ob.Low
	}
	return c.Close >= ob.Mid && c.Close <= ob.High
}

func (od *OrderBlockDetector) closedThrough(ob OrderBlock, c market.Candle) bool {
	if ob.Kind == BullishOB {
		return c.Close < ob.Low
	}
	return c.Close > ob.High
}

// isBreakerRetest checks whether price re-entered a mitigated zone from
// the far side and was rejected: former demand acting as supply or the
// reverse.
func (od *OrderBlockDetector) isBreakerRetest(ob OrderBlock, c market.Candle) bool {
	if ob.Kind == BullishOB {
		return c.High >= ob.Low && c.Close < ob.Low
	}
	return c.Low <= ob.High && c.Close > ob.High
}

func (ob *OrderBlock) advance(to OrderBlockState) {
	if to > ob.State {
		ob.State = to
	}
}

// AttachLiquiditySweeps records, per block, the price of any liquidity
// zone swept during the approach between the block's origin candle and
// its structural break.
func (od *OrderBlockDetector) AttachLiquiditySweeps(blocks []OrderBlock, zones []LiquidityZone) []OrderBlock {
	out := make([]OrderBlock, len(blocks))
	copy(out, blocks)

	for bi := range out {
		ob := &out[bi]
		if ob.LiquiditySwept != nil {
			continue
		}
		want := SellSideLiquidity
		if ob.Kind == BearishOB {
			want = BuySideLiquidity
		}
		for _, z := range zones {
			if !z.Swept || z.Kind != want || z.SweepIndex < 0 {
				continue
			}
			if z.SweepIndex >= ob.CandleIndex && z.SweepIndex <= ob.BreakIndex {
				price := z.Price
				ob.LiquiditySwept = &price
				break
			}
		}
	}

	return out
}
