// Package retrieval provides the in-memory report store: chunking, embedding, and
// exact vector search with report filtering. It keeps chunk i aligned with row i
// of the vector index at all times and does no logging of its own.
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/esglens/internal/embedding"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/models"
	"github.com/hyperjump/esglens/internal/vector"
	"github.com/hyperjump/esglens/pkg/utils"
)

const (
	// DefaultOverfetch multiplies top_k before report filtering and deduplication.
	DefaultOverfetch = 3
	// DefaultMaxMemoryBytes bounds the estimated size of stored vectors and chunk text.
	DefaultMaxMemoryBytes int64 = 1 << 30
)

// Store owns reports, their chunks, and the vector index. Ingest takes the write lock
// for the joint vector/chunk append; searches share the read lock.
type Store struct {
	chunker    *indexer.Chunker
	vectorizer *embedding.Vectorizer
	indexType  string
	newIndex   IndexFactory
	overfetch  int
	maxBytes   int64
	now        func() time.Time
	seq        atomic.Int64

	mu       sync.RWMutex
	index    vector.VectorIndex // nil until the first successful ingest
	chunks   []models.Chunk
	reports  map[string]*models.Report
	order    []string
	byReport map[string][]int
	bytes    int64
}

// IndexFactory creates the vector index once the embedding dimension is known.
type IndexFactory func(dim int) (vector.VectorIndex, error)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithChunker replaces the default 1600/150/800 chunker.
func WithChunker(c *indexer.Chunker) StoreOption {
	return func(s *Store) { s.chunker = c }
}

// WithIndexType selects the vector index created on first ingest (see vector.NewVectorIndex).
func WithIndexType(t string) StoreOption {
	return func(s *Store) { s.indexType = t }
}

// WithIndexFactory replaces index creation on first ingest. It takes precedence over
// WithIndexType.
func WithIndexFactory(f IndexFactory) StoreOption {
	return func(s *Store) { s.newIndex = f }
}

// WithOverfetch sets the candidate multiplier applied to top_k. Values below 1 are ignored.
func WithOverfetch(factor int) StoreOption {
	return func(s *Store) {
		if factor >= 1 {
			s.overfetch = factor
		}
	}
}

// WithMaxMemoryBytes sets the memory budget; 0 or less disables the check.
func WithMaxMemoryBytes(n int64) StoreOption {
	return func(s *Store) { s.maxBytes = n }
}

// NewStore creates an empty store. Embeddings from e are normalized to unit length.
func NewStore(e embedding.Embedder, opts ...StoreOption) *Store {
	s := &Store{
		chunker:    indexer.NewDefaultChunker(),
		vectorizer: embedding.NewVectorizer(e),
		indexType:  string(vector.IndexTypeFlat),
		overfetch:  DefaultOverfetch,
		maxBytes:   DefaultMaxMemoryBytes,
		now:        time.Now,
		reports:    make(map[string]*models.Report),
		byReport:   make(map[string][]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newIndex == nil {
		indexType := s.indexType
		s.newIndex = func(dim int) (vector.VectorIndex, error) {
			return vector.NewVectorIndex(indexType, dim)
		}
	}
	return s
}

// AddReport chunks and embeds pages and commits them as one new report.
// Any failure leaves the store unchanged.
func (s *Store) AddReport(ctx context.Context, name string, pages []string) (*models.Report, error) {
	id := fmt.Sprintf("rep_%d_%d", s.seq.Add(1), s.now().Unix())

	passages := s.chunker.Chunk(pages)
	if len(passages) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, name)
	}
	texts := make([]string, len(passages))
	var textBytes int64
	for i, p := range passages {
		texts[i] = p.Text
		textBytes += int64(len(p.Text))
	}

	vecs, err := s.vectorizer.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %s: %w", name, err)
	}
	dim := len(vecs[0])
	need := int64(len(vecs))*vector.BytesPerRow(dim) + textBytes

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxBytes > 0 && s.bytes+need > s.maxBytes {
		return nil, fmt.Errorf("%w: %s needs %d bytes, %d of %d in use", ErrResourceExhausted, name, need, s.bytes, s.maxBytes)
	}
	idx := s.index
	if idx == nil {
		idx, err = s.newIndex(dim)
		if err != nil {
			return nil, fmt.Errorf("failed to create vector index: %w", err)
		}
	}
	if idx.Size() != len(s.chunks) {
		return nil, fmt.Errorf("vector index has %d rows for %d chunks", idx.Size(), len(s.chunks))
	}
	if err := idx.Add(ctx, vecs); err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", name, err)
	}

	s.index = idx
	base := len(s.chunks)
	positions := make([]int, len(passages))
	for i, p := range passages {
		positions[i] = base + i
		s.chunks = append(s.chunks, models.Chunk{
			Position:   base + i,
			Text:       p.Text,
			ReportID:   id,
			ReportName: name,
			Page:       p.Page,
		})
	}
	report := &models.Report{
		ID:         id,
		Name:       name,
		PageCount:  len(pages),
		ChunkCount: len(passages),
		UploadedAt: s.now().UTC(),
	}
	s.reports[id] = report
	s.order = append(s.order, id)
	s.byReport[id] = positions
	s.bytes += need

	out := *report
	return &out, nil
}

// Search returns up to topK chunks most similar to query. When reportIDs is non-empty,
// only chunks from those reports are returned. An empty store yields no results.
func (s *Store) Search(ctx context.Context, query string, topK int, reportIDs []string) ([]*models.RetrievalResult, error) {
	results := []*models.RetrievalResult{}
	if topK <= 0 || s.empty() {
		return results, nil
	}

	q, err := s.vectorizer.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	k := topK * s.overfetch
	if k < topK {
		k = topK
	}
	hits, err := s.index.Search(ctx, q, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	var allowed map[string]struct{}
	if len(reportIDs) > 0 {
		allowed = make(map[string]struct{}, len(reportIDs))
		for _, id := range reportIDs {
			allowed[id] = struct{}{}
		}
	}
	seen := make(map[int]struct{}, len(hits))
	for _, hit := range hits {
		if hit.Row < 0 || hit.Row >= len(s.chunks) {
			continue
		}
		c := s.chunks[hit.Row]
		if allowed != nil {
			if _, ok := allowed[c.ReportID]; !ok {
				continue
			}
		}
		if _, dup := seen[c.Position]; dup {
			continue
		}
		seen[c.Position] = struct{}{}
		results = append(results, &models.RetrievalResult{
			Score:      hit.Score,
			Text:       c.Text,
			ReportID:   c.ReportID,
			ReportName: c.ReportName,
			Page:       c.Page,
			Position:   c.Position,
		})
		if len(results) >= topK {
			break
		}
	}
	return results, nil
}

// ListReports returns all reports in ingestion order.
func (s *Store) ListReports() []*models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Report, 0, len(s.order))
	for _, id := range s.order {
		r := *s.reports[id]
		out = append(out, &r)
	}
	return out
}

// GetReport returns the report with id or ErrReportNotFound.
func (s *Store) GetReport(id string) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	out := *r
	return &out, nil
}

// PreviewText joins a report's chunks with single spaces and returns the first maxChars
// characters. Unknown reports yield "".
func (s *Store) PreviewText(reportID string, maxChars int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions := s.byReport[reportID]
	if len(positions) == 0 {
		return ""
	}
	texts := make([]string, len(positions))
	for i, pos := range positions {
		texts[i] = s.chunks[pos].Text
	}
	return utils.Prefix(strings.Join(texts, " "), maxChars)
}

// ReportChunks returns up to limit chunks of a report in chunk order (all when limit <= 0).
func (s *Store) ReportChunks(reportID string, limit int) []models.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions := s.byReport[reportID]
	if limit > 0 && len(positions) > limit {
		positions = positions[:limit]
	}
	out := make([]models.Chunk, len(positions))
	for i, pos := range positions {
		out[i] = s.chunks[pos]
	}
	return out
}

// Stats is a point-in-time view of the store's size.
type Stats struct {
	Reports     int
	Chunks      int
	IndexSize   int
	Dimensions  int
	IndexType   string
	MemoryBytes int64
}

// Stats returns current counts. Dimensions is 0 until the first report is ingested.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{
		Reports:     len(s.reports),
		Chunks:      len(s.chunks),
		IndexType:   s.indexType,
		MemoryBytes: s.bytes,
	}
	if s.index != nil {
		st.IndexSize = s.index.Size()
		st.Dimensions = s.index.Dimensions()
		st.IndexType = s.index.Type()
	}
	return st
}

// Close releases the vector index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index.Close()
	}
	return nil
}

func (s *Store) empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index == nil || len(s.chunks) == 0
}
