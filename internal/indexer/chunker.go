// Package indexer provides page chunking and the ingest pipeline that feeds the retrieval store.
package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/esglens/internal/models"
)

const (
	// DefaultChunkSize is the window length in characters.
	DefaultChunkSize = 1600
	// DefaultChunkOverlap is the back-step between consecutive windows in characters.
	DefaultChunkOverlap = 150
	// DefaultMaxChunks caps the passages produced for one document.
	DefaultMaxChunks = 800
	// DefaultMinChunkChars discards windows whose trimmed length is at most this many characters.
	DefaultMinChunkChars = 50
)

// Chunker splits per-page text into overlapping character windows.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	maxChunks    int
	minChars     int
}

// NewChunker creates a chunker. Non-positive size or max fall back to the defaults;
// a negative overlap or min is treated as zero.
func NewChunker(chunkSize, chunkOverlap, maxChunks, minChars int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	if minChars < 0 {
		minChars = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		maxChunks:    maxChunks,
		minChars:     minChars,
	}
}

// NewDefaultChunker returns a chunker with 1600/150 windows, 800 passages max, and a 50-char noise floor.
func NewDefaultChunker() *Chunker {
	return NewChunker(DefaultChunkSize, DefaultChunkOverlap, DefaultMaxChunks, DefaultMinChunkChars)
}

// Chunk splits pages into passages in page/window order. Pages are numbered from 1.
// Once maxChunks passages exist, remaining windows and pages are dropped.
func (c *Chunker) Chunk(pages []string) []models.Passage {
	var passages []models.Passage
	for i, page := range pages {
		text := []rune(strings.TrimSpace(page))
		for _, w := range c.windows(len(text)) {
			if len(passages) >= c.maxChunks {
				return passages
			}
			piece := strings.TrimSpace(string(text[w.start:w.end]))
			if utf8.RuneCountInString(piece) <= c.minChars {
				continue
			}
			passages = append(passages, models.Passage{Text: piece, Page: i + 1})
		}
	}
	return passages
}

type span struct {
	start, end int
}

// windows returns the [start, end) character spans covering n characters.
// Starts strictly increase even when overlap >= size.
func (c *Chunker) windows(n int) []span {
	var spans []span
	start := 0
	for start < n {
		end := start + c.chunkSize
		if end > n {
			end = n
		}
		spans = append(spans, span{start: start, end: end})
		if end == n {
			break
		}
		next := end - c.chunkOverlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return spans
}
