package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FlatIndex is an exhaustive inner-product index. Vectors are packed row-major
// into a single slice so row i occupies data[i*dim : (i+1)*dim].
type FlatIndex struct {
	dimensions int
	rows       int
	data       []float32
	mu         sync.RWMutex
}

// NewFlatIndex creates a flat index. A dimension of 0 leaves it unset until the first Add.
func NewFlatIndex(dimensions int) (*FlatIndex, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("dimensions must not be negative")
	}
	return &FlatIndex{dimensions: dimensions}, nil
}

// Type returns the index type identifier.
func (f *FlatIndex) Type() string {
	return string(IndexTypeFlat)
}

// Add appends vectors in order. Every vector is checked before any is stored.
func (f *FlatIndex) Add(ctx context.Context, vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dim := f.dimensions
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
		}
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.rows += len(vectors)
	f.dimensions = dim
	return nil
}

// Search returns the top-k rows by inner product. An empty index yields no results.
func (f *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if k <= 0 || f.rows == 0 {
		return []*VectorResult{}, nil
	}
	if len(query) != f.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d", ErrDimensionMismatch, len(query), f.dimensions)
	}
	results := make([]*VectorResult, f.rows)
	for row := 0; row < f.rows; row++ {
		vec := f.data[row*f.dimensions : (row+1)*f.dimensions]
		results[row] = &VectorResult{Row: row, Score: InnerProduct(query, vec)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Vector returns a copy of the stored row, or nil if row is out of range.
func (f *FlatIndex) Vector(row int) []float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if row < 0 || row >= f.rows {
		return nil
	}
	out := make([]float32, f.dimensions)
	copy(out, f.data[row*f.dimensions:(row+1)*f.dimensions])
	return out
}

// Size returns the number of rows.
func (f *FlatIndex) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rows
}

// Dimensions returns the vector length, or 0 before the first Add.
func (f *FlatIndex) Dimensions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dimensions
}

// Close releases the stored vectors.
func (f *FlatIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data = nil
	f.rows = 0
	return nil
}
