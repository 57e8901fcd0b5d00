// Package cache provides Redis-based caching of analysis snapshots with
// graceful degradation: when Redis is unavailable, callers fall through
// to recomputing the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/market"
)

// Key layout: one entry per symbol/timeframe/last-candle-time triple.
// Identical inputs produce identical snapshots, so the last candle's
// timestamp is a sufficient cache key component.
const snapshotKeyFormat = "snapshot:%s:%s:%d"

// SnapshotCache caches pipeline snapshots in Redis.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Config holds snapshot cache settings.
type Config struct {
	Address  string
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

// New creates a snapshot cache and verifies connectivity. A failed ping
// is logged but not fatal; the cache degrades to miss-on-everything.
func New(cfg Config, logger zerolog.Logger) *SnapshotCache {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, snapshot cache degraded")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &SnapshotCache{client: client, ttl: ttl, logger: logger}
}

// Key builds the cache key for a series.
func Key(symbol string, tf market.Timeframe, lastCandle time.Time) string {
	return fmt.Sprintf(snapshotKeyFormat, symbol, tf, lastCandle.Unix())
}

// Get returns the cached snapshot or (nil, false) on miss or error.
func (sc *SnapshotCache) Get(ctx context.Context, symbol string, tf market.Timeframe, lastCandle time.Time) (*analysis.Snapshot, bool) {
	data, err := sc.client.Get(ctx, Key(symbol, tf, lastCandle)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		sc.logger.Debug().Err(err).Msg("snapshot cache read failed")
		return nil, false
	}

	var snap analysis.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		sc.logger.Warn().Err(err).Msg("corrupt cached snapshot, discarding")
		return nil, false
	}
	return &snap, true
}

// Set stores a snapshot. Errors are logged, not returned; caching is
// best effort.
func (sc *SnapshotCache) Set(ctx context.Context, snap *analysis.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		sc.logger.Warn().Err(err).Msg("snapshot marshal failed")
		return
	}
	key := Key(snap.Symbol, snap.Timeframe, snap.LastTime)
	if err := sc.client.Set(ctx, key, data, sc.ttl).Err(); err != nil {
		sc.logger.Debug().Err(err).Str("key", key).Msg("snapshot cache write failed")
	}
}

// Close releases the underlying client.
func (sc *SnapshotCache) Close() error {
	return sc.client.Close()
}
