// Package embedding provides text embedding, unit normalization, and batched calls to a remote model.
package embedding

import (
	"context"
	"errors"
)

// ErrServiceUnavailable wraps any failure of the underlying embedding model.
var ErrServiceUnavailable = errors.New("embedding service unavailable")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimensions returns the embedding length, or 0 if not yet known.
	Dimensions() int
	Close() error
}
