package analysis

import (
	"fmt"
	"sync"
	"time"

	"smc-analyzer/internal/market"
)

// Config holds the recognized pipeline options.
type Config struct {
	LookbackLeft       int     `json:"lookback_left"`
	LookbackRight      int     `json:"lookback_right"`
	OBLookbackWindow   int     `json:"ob_lookback_window"`
	FVGMinGapSize      float64 `json:"fvg_min_gap_size"`
	FVGAutoThreshold   bool    `json:"fvg_auto_threshold"`
	SweepThresholdMult float64 `json:"sweep_threshold_multiplier"`
	EqualLevelMult     float64 `json:"eqh_eql_threshold_multiplier"`
	BreakOnWick        bool    `json:"break_on_wick"`
	IncludeFVGMids     bool    `json:"include_fvg_midpoints"`

	Sessions []market.SessionWindow `json:"sessions"`
}

// DefaultConfig derives a configuration from a timeframe using the
// standard timeframe-to-lookback mapping.
func DefaultConfig(tf market.Timeframe) Config {
	left, right := market.SwingLookback(tf)
	return Config{
		LookbackLeft:       left,
		LookbackRight:      right,
		OBLookbackWindow:   market.OrderBlockLookback(tf),
		FVGMinGapSize:      0,
		FVGAutoThreshold:   true,
		SweepThresholdMult: 0.1,
		EqualLevelMult:     0.25,
		IncludeFVGMids:     true,
		Sessions:           market.DefaultSessions(),
	}
}

// Validate rejects configurations that cannot be given an empty-result
// interpretation.
func (c Config) Validate() error {
	if c.LookbackLeft <= 0 || c.LookbackRight <= 0 {
		return fmt.Errorf("%w: lookbacks must be positive", ErrInvalidConfig)
	}
	if c.OBLookbackWindow <= 0 {
		return fmt.Errorf("%w: ob_lookback_window must be positive", ErrInvalidConfig)
	}
	if c.FVGMinGapSize < 0 || (c.FVGMinGapSize == 0 && !c.FVGAutoThreshold) {
		return fmt.Errorf("%w: fvg_min_gap_size must be positive", ErrInvalidConfig)
	}
	if c.SweepThresholdMult <= 0 || c.EqualLevelMult <= 0 {
		return fmt.Errorf("%w: threshold multipliers must be positive", ErrInvalidConfig)
	}
	return nil
}

// Snapshot is the full set of market-structure artifacts produced by one
// pipeline pass over a candle series.
type Snapshot struct {
	Symbol    string           `json:"symbol"`
	Timeframe market.Timeframe `json:"timeframe"`
	LastIndex int              `json:"lastIndex"`
	LastTime  time.Time        `json:"lastTime"`

	SwingHighs  []SwingPoint          `json:"swingHighs"`
	SwingLows   []SwingPoint          `json:"swingLows"`
	Swings      []SwingPoint          `json:"swings"` // classified, time-ordered
	Events      []StructureEvent      `json:"events"`
	OrderBlocks []OrderBlock          `json:"orderBlocks"`
	Gaps        []FairValueGap        `json:"gaps"`
	Liquidity   []LiquidityZone       `json:"liquidity"`
	RangeZones  []PremiumDiscountZone `json:"rangeZones"`
}

// Pipeline wires the detectors together in dependency order:
// candles -> swings -> structure -> {order blocks, liquidity} ->
// premium/discount. The FVG scan shares no inputs with the swing chain
// and runs concurrently with it. Pipelines are stateless and safe for
// concurrent use across symbols and windows.
type Pipeline struct {
	cfg       Config
	swings    *SwingDetector
	structure *MarketStructureDetector
	blocks    *OrderBlockDetector
	gaps      *FVGDetector
	liquidity *LiquidityDetector
	rng       *PremiumDiscountDetector
}

// NewPipeline validates the configuration and builds the detector chain.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sd, err := NewSwingDetector(cfg.LookbackLeft, cfg.LookbackRight)
	if err != nil {
		return nil, err
	}
	od, err := NewOrderBlockDetector(cfg.OBLookbackWindow)
	if err != nil {
		return nil, err
	}
	fd, err := NewFVGDetector(cfg.FVGMinGapSize, cfg.FVGAutoThreshold)
	if err != nil {
		return nil, err
	}
	ld, err := NewLiquidityDetector(cfg.SweepThresholdMult, cfg.EqualLevelMult, cfg.Sessions)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:       cfg,
		swings:    sd,
		structure: NewMarketStructureDetector(cfg.BreakOnWick),
		blocks:    od,
		gaps:      fd,
		liquidity: ld,
		rng:       NewPremiumDiscountDetector(),
	}, nil
}

// Config returns the pipeline's configuration.
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Analyze runs the full pipeline over the series. lowerTF may be nil;
// when supplied it refines order-block boundaries. The result is a pure
// function of the inputs: identical candles yield identical snapshots.
func (p *Pipeline) Analyze(symbol string, tf market.Timeframe, candles, lowerTF []market.Candle) *Snapshot {
	candles = market.Reindex(candles)

	snap := &Snapshot{
		Symbol:    symbol,
		Timeframe: tf,
		LastIndex: len(candles) - 1,
	}
	if len(candles) > 0 {
		snap.LastTime = candles[len(candles)-1].OpenTime
	}

	// The FVG scan is independent of the swing chain.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		gaps := p.gaps.Detect(candles)
		snap.Gaps = p.gaps.UpdateMitigation(candles, gaps)
	}()

	snap.SwingHighs, snap.SwingLows = p.swings.Detect(candles)
	snap.Swings = p.swings.Classify(snap.SwingHighs, snap.SwingLows)
	snap.Events = p.structure.Detect(candles, snap.Swings)

	blocks := p.blocks.Detect(candles, snap.Events, lowerTF)
	blocks = p.blocks.UpdateStates(candles, blocks)

	wg.Wait()

	liqGaps := snap.Gaps
	if !p.cfg.IncludeFVGMids {
		liqGaps = nil
	}
	snap.Liquidity = p.liquidity.Detect(candles, snap.SwingHighs, snap.SwingLows, liqGaps)
	snap.OrderBlocks = p.blocks.AttachLiquiditySweeps(blocks, snap.Liquidity)
	snap.RangeZones = p.rng.Detect(candles, snap.SwingHighs, snap.SwingLows)

	return snap
}
