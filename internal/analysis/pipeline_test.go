package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"smc-analyzer/internal/market"
)

func pipelineConfig() Config {
	return Config{
		LookbackLeft:       2,
		LookbackRight:      2,
		OBLookbackWindow:   5,
		FVGMinGapSize:      0.5,
		SweepThresholdMult: 0.1,
		EqualLevelMult:     0.25,
		IncludeFVGMids:     true,
	}
}

// zigzag builds a trending oscillating series long enough for every
// detector to produce artifacts.
func zigzag(n int) []market.Candle {
	rows := make([][4]float64, n)
	for i := range rows {
		base := 100 + 3*math.Sin(float64(i)/3) + float64(i)*0.1
		rows[i] = [4]float64{base - 0.2, base + 0.6, base - 0.6, base + 0.2}
	}
	return ohlc(rows...)
}

// TestNewPipelineRejectsBadConfig tests validation at construction
func TestNewPipelineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero lookback", func(c *Config) { c.LookbackLeft = 0 }},
		{"negative right lookback", func(c *Config) { c.LookbackRight = -1 }},
		{"zero ob window", func(c *Config) { c.OBLookbackWindow = 0 }},
		{"negative gap size", func(c *Config) { c.FVGMinGapSize = -1 }},
		{"zero gap without auto", func(c *Config) { c.FVGMinGapSize = 0 }},
		{"zero sweep multiplier", func(c *Config) { c.SweepThresholdMult = 0 }},
		{"zero equal-level multiplier", func(c *Config) { c.EqualLevelMult = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := pipelineConfig()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

// TestDefaultConfigValid tests that every timeframe default passes
// validation
func TestDefaultConfigValid(t *testing.T) {
	for _, tf := range []market.Timeframe{market.TF1m, market.TF5m, market.TF15m, market.TF1h, market.TF4h, market.TF1d} {
		if err := DefaultConfig(tf).Validate(); err != nil {
			t.Errorf("%s: expected valid default config, got %v", tf, err)
		}
	}

	cfg := DefaultConfig(market.TF1h)
	if cfg.LookbackLeft != 5 || cfg.LookbackRight != 5 {
		t.Errorf("Expected 1h lookbacks 5/5, got %d/%d", cfg.LookbackLeft, cfg.LookbackRight)
	}
}

// TestAnalyzeShortSeries tests the empty-result interpretation of thin
// input
func TestAnalyzeShortSeries(t *testing.T) {
	pipeline, err := NewPipeline(pipelineConfig())
	if err != nil {
		t.Fatalf("Failed to create pipeline: %v", err)
	}

	snap := pipeline.Analyze("BTCUSDT", market.TF1h, flat(3, 100, 101, 99, 100), nil)
	if snap == nil {
		t.Fatal("Expected a snapshot, got nil")
	}
	if snap.LastIndex != 2 {
		t.Errorf("Expected last index 2, got %d", snap.LastIndex)
	}
	if len(snap.SwingHighs) != 0 || len(snap.SwingLows) != 0 {
		t.Errorf("Expected no swings from a thin series, got %d/%d", len(snap.SwingHighs), len(snap.SwingLows))
	}
	if len(snap.Events) != 0 || len(snap.OrderBlocks) != 0 {
		t.Errorf("Expected no events or blocks, got %d/%d", len(snap.Events), len(snap.OrderBlocks))
	}
}

// TestAnalyzeEmptyInput tests zero candles
func TestAnalyzeEmptyInput(t *testing.T) {
	pipeline, _ := NewPipeline(pipelineConfig())

	snap := pipeline.Analyze("BTCUSDT", market.TF1h, nil, nil)
	if snap == nil {
		t.Fatal("Expected a snapshot, got nil")
	}
	if snap.LastIndex != -1 {
		t.Errorf("Expected last index -1, got %d", snap.LastIndex)
	}
}

// TestAnalyzeIdempotent tests that identical input yields an identical
// snapshot
func TestAnalyzeIdempotent(t *testing.T) {
	pipeline, _ := NewPipeline(pipelineConfig())
	candles := zigzag(60)

	first := pipeline.Analyze("ETHUSDT", market.TF1h, candles, nil)
	second := pipeline.Analyze("ETHUSDT", market.TF1h, candles, nil)

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical snapshots for identical input")
	}
}

// TestAnalyzeEndToEnd tests artifact consistency over a full series
func TestAnalyzeEndToEnd(t *testing.T) {
	pipeline, _ := NewPipeline(pipelineConfig())
	candles := zigzag(60)

	snap := pipeline.Analyze("BTCUSDT", market.TF1h, candles, nil)

	if snap.Symbol != "BTCUSDT" || snap.Timeframe != market.TF1h {
		t.Errorf("Unexpected snapshot identity %s/%s", snap.Symbol, snap.Timeframe)
	}
	if snap.LastIndex != 59 {
		t.Errorf("Expected last index 59, got %d", snap.LastIndex)
	}
	if !snap.LastTime.Equal(candles[59].OpenTime) {
		t.Errorf("Expected last time of final candle, got %v", snap.LastTime)
	}

	if len(snap.SwingHighs) == 0 || len(snap.SwingLows) == 0 {
		t.Fatal("Expected swings from an oscillating series")
	}
	if len(snap.Swings) != len(snap.SwingHighs)+len(snap.SwingLows) {
		t.Errorf("Expected merged swing list, got %d of %d", len(snap.Swings),
			len(snap.SwingHighs)+len(snap.SwingLows))
	}

	for i, ev := range snap.Events {
		if ev.BreakIndex < 0 || ev.BreakIndex > snap.LastIndex {
			t.Errorf("event %d: break index %d out of range", i, ev.BreakIndex)
		}
		if i > 0 && ev.BreakIndex < snap.Events[i-1].BreakIndex {
			t.Errorf("event %d: out of order", i)
		}
	}

	for _, ob := range snap.OrderBlocks {
		if ob.CandleIndex < 0 || ob.CandleIndex >= ob.BreakIndex || ob.BreakIndex > snap.LastIndex {
			t.Errorf("block %s: indices %d/%d out of range", ob.ID, ob.CandleIndex, ob.BreakIndex)
		}
		if ob.Low > ob.High {
			t.Errorf("block %s: inverted zone [%f, %f]", ob.ID, ob.Low, ob.High)
		}
	}

	for _, g := range snap.Gaps {
		if g.StartIndex+2 != g.EndIndex {
			t.Errorf("gap %s: expected three-bar span, got %d..%d", g.ID, g.StartIndex, g.EndIndex)
		}
		if g.MitigationLevel < 0 || g.MitigationLevel > FullyMitigated {
			t.Errorf("gap %s: mitigation level %d out of range", g.ID, g.MitigationLevel)
		}
	}

	for _, z := range snap.Liquidity {
		if z.SourceIndex < 0 || z.SourceIndex > snap.LastIndex {
			t.Errorf("zone %s: source index %d out of range", z.ID, z.SourceIndex)
		}
		if z.Swept && z.SweepIndex <= z.SourceIndex {
			t.Errorf("zone %s: sweep index %d not after source %d", z.ID, z.SweepIndex, z.SourceIndex)
		}
		if !z.Swept && z.SweepIndex != -1 {
			t.Errorf("zone %s: unswept zone with sweep index %d", z.ID, z.SweepIndex)
		}
	}

	if len(snap.RangeZones) != 0 && len(snap.RangeZones) != 4 {
		t.Errorf("Expected 0 or 4 range zones, got %d", len(snap.RangeZones))
	}
}

// TestAnalyzeReindexes tests that caller-supplied indices are ignored
func TestAnalyzeReindexes(t *testing.T) {
	pipeline, _ := NewPipeline(pipelineConfig())

	candles := zigzag(60)
	for i := range candles {
		candles[i].Index = 1000 + i
	}

	snap := pipeline.Analyze("BTCUSDT", market.TF1h, candles, nil)
	if snap.LastIndex != 59 {
		t.Errorf("Expected positional last index 59, got %d", snap.LastIndex)
	}
	for _, s := range snap.SwingHighs {
		if s.Index > 59 {
			t.Errorf("Expected positional swing index, got %d", s.Index)
		}
	}
}
