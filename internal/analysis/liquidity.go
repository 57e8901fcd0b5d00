package analysis

import (
	"fmt"
	"sort"
	"time"

	"smc-analyzer/internal/market"
)

// LiquidityKind is the side resting orders sit on: buy-side above highs,
// sell-side below lows.
type LiquidityKind string

const (
	BuySideLiquidity  LiquidityKind = "buy_side"
	SellSideLiquidity LiquidityKind = "sell_side"
)

// LiquiditySubtype is the source a zone was derived from.
type LiquiditySubtype string

const (
	SubtypeSwing   LiquiditySubtype = "swing"
	SubtypeSession LiquiditySubtype = "session"
	SubtypeEQH     LiquiditySubtype = "eqh"
	SubtypeEQL     LiquiditySubtype = "eql"
	SubtypeFVGMid  LiquiditySubtype = "fvg_mid"
)

// LiquidityZone is a resting-liquidity price level. Swept transitions
// to true once and never reverts.
type LiquidityZone struct {
	ID          string           `json:"id"`
	Kind        LiquidityKind    `json:"kind"`
	Subtype     LiquiditySubtype `json:"subtype"`
	Price       float64          `json:"price"`
	Time        time.Time        `json:"time"`
	SourceIndex int              `json:"sourceIndex"`
	Swept       bool             `json:"swept"`
	SweepIndex  int              `json:"sweepIndex"` // -1 until swept
	SweepTime   *time.Time       `json:"sweepTime,omitempty"`
}

// LiquidityDetector locates resting-liquidity levels from swing
// extremes, session (kill zone) highs/lows, equal-high/low clusters and
// optionally FVG midpoints, and detects sweeps of those levels.
type LiquidityDetector struct {
	sweepMult float64
	eqMult    float64
	atrPeriod int
	sessions  []market.SessionWindow
}

// NewLiquidityDetector creates a liquidity detector. Both multipliers
// scale an ATR and must be positive. Sessions may be nil to skip
// session levels.
func NewLiquidityDetector(sweepMult, eqMult float64, sessions []market.SessionWindow) (*LiquidityDetector, error) {
	if sweepMult <= 0 || eqMult <= 0 {
		return nil, fmt.Errorf("%w: liquidity multipliers must be positive (sweep=%f, equal=%f)",
			ErrInvalidConfig, sweepMult, eqMult)
	}
	return &LiquidityDetector{
		sweepMult: sweepMult,
		eqMult:    eqMult,
		atrPeriod: DefaultATRPeriod,
		sessions:  sessions,
	}, nil
}

// Detect builds the liquidity-zone list and evaluates sweeps. Swing
// highs within eqMult*ATR of each other merge into a single equal-highs
// zone (lows into equal-lows); the rest become individual swing levels.
// gaps may be nil; when supplied, midpoints of gaps not yet fully
// mitigated are folded in as confluence targets.
func (ld *LiquidityDetector) Detect(candles []market.Candle, swingHighs, swingLows []SwingPoint, gaps []FairValueGap) []LiquidityZone {
	if len(candles) == 0 {
		return nil
	}

	atr := CalculateATR(candles, ld.atrPeriod)
	var zones []LiquidityZone

	zones = append(zones, ld.levelZones(swingHighs, BuySideLiquidity, atr)...)
	zones = append(zones, ld.levelZones(swingLows, SellSideLiquidity, atr)...)
	zones = append(zones, ld.sessionZones(candles)...)

	for _, g := range gaps {
		if g.MitigationLevel >= FullyMitigated {
			continue
		}
		kind := SellSideLiquidity
		if g.Kind == BearishFVG {
			kind = BuySideLiquidity
		}
		zones = append(zones, LiquidityZone{
			ID:          fmt.Sprintf("liq_%s_%s_%d", SubtypeFVGMid, kind, g.EndIndex),
			Kind:        kind,
			Subtype:     SubtypeFVGMid,
			Price:       g.Mid(),
			Time:        g.Time,
			SourceIndex: g.EndIndex,
			SweepIndex:  -1,
		})
	}

	sort.SliceStable(zones, func(a, b int) bool {
		return zones[a].SourceIndex < zones[b].SourceIndex
	})

	for i := range zones {
		ld.evaluateSweep(&zones[i], candles, atr)
	}

	return zones
}

// levelZones turns swing extremes into liquidity levels, merging
// clusters of near-equal prices into one eqh/eql zone.
func (ld *LiquidityDetector) levelZones(swings []SwingPoint, kind LiquidityKind, atr float64) []LiquidityZone {
	if len(swings) == 0 {
		return nil
	}

	tolerance := ld.eqMult * atr

	type cluster struct {
		members []SwingPoint
		mean    float64
	}
	var clusters []cluster

	for _, s := range swings {
		merged := false
		for ci := range clusters {
			diff := s.Price - clusters[ci].mean
			if diff < 0 {
				diff = -diff
			}
			if diff <= tolerance {
				clusters[ci].members = append(clusters[ci].members, s)
				sum := 0.0
				for _, m := range clusters[ci].members {
					sum += m.Price
				}
				clusters[ci].mean = sum / float64(len(clusters[ci].members))
				merged = true
				break
			}
		}
		if !merged {
			clusters = append(clusters, cluster{members: []SwingPoint{s}, mean: s.Price})
		}
	}

	equalSubtype := SubtypeEQH
	if kind == SellSideLiquidity {
		equalSubtype = SubtypeEQL
	}

	var zones []LiquidityZone
	for _, cl := range clusters {
		last := cl.members[len(cl.members)-1]
		if len(cl.members) >= 2 {
			zones = append(zones, LiquidityZone{
				ID:          fmt.Sprintf("liq_%s_%s_%d", equalSubtype, kind, last.Index),
				Kind:        kind,
				Subtype:     equalSubtype,
				Price:       cl.mean,
				Time:        last.Time,
				SourceIndex: last.Index,
				SweepIndex:  -1,
			})
			continue
		}
		zones = append(zones, LiquidityZone{
			ID:          fmt.Sprintf("liq_%s_%s_%d", SubtypeSwing, kind, last.Index),
			Kind:        kind,
			Subtype:     SubtypeSwing,
			Price:       last.Price,
			Time:        last.Time,
			SourceIndex: last.Index,
			SweepIndex:  -1,
		})
	}

	return zones
}

// sessionZones emits one high/low level pair per configured session per
// UTC day covered by the series.
func (ld *LiquidityDetector) sessionZones(candles []market.Candle) []LiquidityZone {
	var zones []LiquidityZone

	for _, session := range ld.sessions {
		type extremes struct {
			hiIdx, loIdx int
		}
		days := make(map[string]*extremes)
		var order []string

		for i, c := range candles {
			if !session.Contains(c.OpenTime) {
				continue
			}
			day := c.OpenTime.UTC().Format("2006-01-02")
			ex, ok := days[day]
			if !ok {
				days[day] = &extremes{hiIdx: i, loIdx: i}
				order = append(order, day)
				continue
			}
			if c.High > candles[ex.hiIdx].High {
				ex.hiIdx = i
			}
			if c.Low < candles[ex.loIdx].Low {
				ex.loIdx = i
			}
		}

		for _, day := range order {
			ex := days[day]
			hi, lo := candles[ex.hiIdx], candles[ex.loIdx]
			zones = append(zones, LiquidityZone{
				ID:          fmt.Sprintf("liq_%s_%s_%s_%d", SubtypeSession, session.Name, BuySideLiquidity, hi.Index),
				Kind:        BuySideLiquidity,
				Subtype:     SubtypeSession,
				Price:       hi.High,
				Time:        hi.OpenTime,
				SourceIndex: hi.Index,
				SweepIndex:  -1,
			})
			zones = append(zones, LiquidityZone{
				ID:          fmt.Sprintf("liq_%s_%s_%s_%d", SubtypeSession, session.Name, SellSideLiquidity, lo.Index),
				Kind:        SellSideLiquidity,
				Subtype:     SubtypeSession,
				Price:       lo.Low,
				Time:        lo.OpenTime,
				SourceIndex: lo.Index,
				SweepIndex:  -1,
			})
		}
	}

	return zones
}

// evaluateSweep marks a zone swept the first time a wick pierces the
// level by more than sweepMult*ATR and a candle from the breach onward
// closes back on the origin side. A touch without the reject-close does
// not count.
func (ld *LiquidityDetector) evaluateSweep(zone *LiquidityZone, candles []market.Candle, atr float64) {
	tolerance := ld.sweepMult * atr

	for i := zone.SourceIndex + 1; i < len(candles); i++ {
		breached := false
		if zone.Kind == BuySideLiquidity {
			breached = candles[i].High > zone.Price+tolerance
		} else {
			breached = candles[i].Low < zone.Price-tolerance
		}
		if !breached {
			continue
		}

		for j := i; j < len(candles); j++ {
			rejected := false
			if zone.Kind == BuySideLiquidity {
				rejected = candles[j].Close < zone.Price
			} else {
				rejected = candles[j].Close > zone.Price
			}
			if rejected {
				zone.Swept = true
				zone.SweepIndex = j
				t := candles[j].OpenTime
				zone.SweepTime = &t
				return
			}
		}
		return
	}
}
