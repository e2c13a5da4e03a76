package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/esglens/pkg/utils"
)

// Vectorizer wraps an Embedder and scales every output to unit length, so inner
// product equals cosine similarity. It does not cache or retry.
type Vectorizer struct {
	embedder Embedder
}

// NewVectorizer wraps e. Wrapping a Vectorizer returns it unchanged.
func NewVectorizer(e Embedder) *Vectorizer {
	if v, ok := e.(*Vectorizer); ok {
		return v
	}
	return &Vectorizer{embedder: e}
}

// Embed returns the unit-normalized embedding of text.
// A zero raw embedding is returned unchanged.
func (v *Vectorizer) Embed(ctx context.Context, text string) ([]float32, error) {
	raw, err := v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return normalized(raw), nil
}

// EmbedBatch embeds texts in order; the result is equivalent to calling Embed on each.
func (v *Vectorizer) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	raw, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrServiceUnavailable, len(raw), len(texts))
	}
	out := make([][]float32, len(raw))
	for i, r := range raw {
		out[i] = normalized(r)
	}
	return out, nil
}

// Dimensions returns the wrapped embedder's dimension.
func (v *Vectorizer) Dimensions() int {
	return v.embedder.Dimensions()
}

// Close closes the wrapped embedder.
func (v *Vectorizer) Close() error {
	return v.embedder.Close()
}

func normalized(raw []float32) []float32 {
	out := make([]float32, len(raw))
	copy(out, raw)
	utils.NormalizeL2(out)
	return out
}
