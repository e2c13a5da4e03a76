package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat is exact brute-force inner-product search over packed rows.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeMemory is accepted as an alias of IndexTypeFlat.
	IndexTypeMemory IndexType = "memory"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "flat" (default) and its alias "memory".
// A dimension of 0 is fixed by the first Add.
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, IndexTypeMemory, "":
		return NewFlatIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat)", indexType)
	}
}

// BytesPerRow estimates the resident size of one stored row of the given dimension.
func BytesPerRow(dimensions int) int64 {
	return int64(dimensions) * 4
}
