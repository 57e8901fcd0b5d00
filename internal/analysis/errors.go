// Package analysis implements the SMC market-structure pipeline: swing
// detection and classification, BOS/CHOCH structure events, order blocks,
// fair value gaps, liquidity zones, and premium/discount range partitions.
//
// All detectors are pure, synchronous functions over an in-memory candle
// slice. Insufficient data and invalid ranges yield empty results, never
// errors; bad configuration is the one condition rejected eagerly, at
// detector construction.
package analysis

import "errors"

// ErrInvalidConfig is returned by detector constructors when a caller
// supplies a non-positive lookback or threshold.
var ErrInvalidConfig = errors.New("invalid analysis configuration")
