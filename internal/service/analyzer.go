// Package service orchestrates the analysis pipeline with caching,
// persistence and event publication. This is the only layer that logs;
// the detectors themselves stay pure.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/cache"
	"smc-analyzer/internal/database"
	"smc-analyzer/internal/events"
	"smc-analyzer/internal/market"
)

// Analyzer runs the pipeline per request, consulting the snapshot cache
// first and fanning results out to subscribers. Cache and repository
// are optional; with both nil the analyzer is a thin pipeline wrapper.
type Analyzer struct {
	pipeline *analysis.Pipeline
	cache    *cache.SnapshotCache
	repo     *database.SnapshotRepository
	bus      *events.EventBus
	logger   zerolog.Logger
}

// NewAnalyzer wires an analyzer. cache and repo may be nil.
func NewAnalyzer(pipeline *analysis.Pipeline, snapCache *cache.SnapshotCache, repo *database.SnapshotRepository, bus *events.EventBus, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		pipeline: pipeline,
		cache:    snapCache,
		repo:     repo,
		bus:      bus,
		logger:   logger,
	}
}

// Analyze produces the snapshot for a candle series. Candle sequences
// shorter than the configured windows return an empty (but non-nil)
// snapshot, matching the detectors' empty-result contract.
func (a *Analyzer) Analyze(ctx context.Context, symbol string, tf market.Timeframe, candles, lowerTF []market.Candle) (*analysis.Snapshot, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if tf == "" {
		tf = market.TF1h
	}

	if a.cache != nil && len(candles) > 0 {
		last := candles[len(candles)-1].OpenTime
		if snap, ok := a.cache.Get(ctx, symbol, tf, last); ok {
			a.logger.Debug().Str("symbol", symbol).Str("timeframe", string(tf)).Msg("snapshot cache hit")
			return snap, nil
		}
	}

	started := time.Now()
	snap := a.pipeline.Analyze(symbol, tf, candles, lowerTF)

	a.logger.Info().
		Str("symbol", symbol).
		Str("timeframe", string(tf)).
		Int("candles", len(candles)).
		Int("swings", len(snap.Swings)).
		Int("events", len(snap.Events)).
		Int("order_blocks", len(snap.OrderBlocks)).
		Int("gaps", len(snap.Gaps)).
		Int("liquidity", len(snap.Liquidity)).
		Dur("elapsed", time.Since(started)).
		Msg("analysis complete")

	if a.cache != nil && len(candles) > 0 {
		a.cache.Set(ctx, snap)
	}
	if a.repo != nil {
		if err := a.repo.Save(ctx, snap); err != nil {
			a.logger.Warn().Err(err).Msg("snapshot persistence failed")
		}
	}
	if a.bus != nil {
		a.bus.Publish(events.Event{
			Type:      events.EventSnapshotReady,
			Symbol:    symbol,
			Timeframe: string(tf),
			Data:      snap,
		})
	}

	return snap, nil
}

// Latest returns the most recent persisted snapshot, when a repository
// is configured.
func (a *Analyzer) Latest(ctx context.Context, symbol string, tf market.Timeframe) (*analysis.Snapshot, error) {
	if a.repo == nil {
		return nil, nil
	}
	return a.repo.Latest(ctx, symbol, tf)
}
