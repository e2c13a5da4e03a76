package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// TextEmbedder embeds a single text with one remote call.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ServiceEmbedder adapts a single-text remote model to Embedder, fanning batches out
// over at most concurrency in-flight calls while keeping results in input order.
type ServiceEmbedder struct {
	client      TextEmbedder
	concurrency int
	dimensions  atomic.Int64
}

// NewServiceEmbedder wraps client. concurrency <= 0 means one call at a time.
func NewServiceEmbedder(client TextEmbedder, concurrency int) *ServiceEmbedder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &ServiceEmbedder{client: client, concurrency: concurrency}
}

// Embed embeds one text.
func (s *ServiceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := s.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.dimensions.CompareAndSwap(0, int64(len(v)))
	return v, nil
}

// EmbedBatch embeds texts concurrently. The first failure cancels outstanding calls
// and fails the whole batch.
func (s *ServiceEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, text := range texts {
		g.Go(func() error {
			v, err := s.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed text %d: %w", i, err)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Dimensions returns the length of the first embedding seen, or 0.
func (s *ServiceEmbedder) Dimensions() int {
	return int(s.dimensions.Load())
}

// Close is a no-op; the client is owned by the caller.
func (s *ServiceEmbedder) Close() error {
	return nil
}
