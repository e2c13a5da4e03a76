// Package vector provides an append-only flat inner-product index over unit vectors.
package vector

import (
	"context"
	"errors"
)

// ErrDimensionMismatch is returned when a vector's length disagrees with the index dimension.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// VectorIndex stores vectors in insertion order and answers exact top-k inner-product queries.
// Rows are addressed by their 0-based insertion position and are never removed.
type VectorIndex interface {
	// Add appends all vectors in order, or none of them if any has the wrong dimension.
	Add(ctx context.Context, vectors [][]float32) error
	// Search returns at most k rows sorted by descending score.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	// Size returns the number of stored rows.
	Size() int
	// Dimensions returns the fixed vector length, or 0 before the first Add.
	Dimensions() int
	Type() string
	Close() error
}

// VectorResult is a single search hit.
type VectorResult struct {
	Row   int
	Score float64 // inner product; cosine similarity for unit vectors
}
