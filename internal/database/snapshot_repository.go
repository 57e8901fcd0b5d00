package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"smc-analyzer/internal/analysis"
	"smc-analyzer/internal/market"
)

// SnapshotRepository stores and retrieves analysis snapshots.
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a repository over the given pool.
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts a snapshot keyed by symbol/timeframe/last-candle-time.
func (r *SnapshotRepository) Save(ctx context.Context, snap *analysis.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO analysis_snapshots (symbol, timeframe, last_index, last_time, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (symbol, timeframe, last_time)
		DO UPDATE SET last_index = EXCLUDED.last_index, payload = EXCLUDED.payload`,
		snap.Symbol, string(snap.Timeframe), snap.LastIndex, snap.LastTime, payload,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent stored snapshot for a symbol and
// timeframe, or (nil, nil) when none exists.
func (r *SnapshotRepository) Latest(ctx context.Context, symbol string, tf market.Timeframe) (*analysis.Snapshot, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT payload FROM analysis_snapshots
		WHERE symbol = $1 AND timeframe = $2
		ORDER BY last_time DESC
		LIMIT 1`,
		symbol, string(tf),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var snap analysis.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, nil
}
