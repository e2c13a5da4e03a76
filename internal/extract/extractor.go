// Package extract turns uploaded documents into per-page plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/esglens/pkg/utils"
)

const (
	// DefaultMaxPages caps the pages read from paged formats.
	DefaultMaxPages = 80
	// DefaultMaxCharsPerPage truncates each page of a paged format.
	DefaultMaxCharsPerPage = 6000
)

// Extractor extracts per-page text from document files.
type Extractor struct {
	maxPages        int
	maxCharsPerPage int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLimits bounds paged formats (PDF, slides, sheets) to maxPages pages of at most
// maxCharsPerPage characters each. Non-positive values disable the limit.
func WithLimits(maxPages, maxCharsPerPage int) Option {
	return func(e *Extractor) {
		e.maxPages = maxPages
		e.maxCharsPerPage = maxCharsPerPage
	}
}

// NewExtractor returns an Extractor with 80 page / 6000 character limits.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{maxPages: DefaultMaxPages, maxCharsPerPage: DefaultMaxCharsPerPage}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its pages.
func (e *Extractor) Extract(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractPages(content, filepath.Ext(path))
}

// ExtractPages extracts pages from content based on ext (with leading dot, any case).
// PDF yields one page per PDF page, PPTX/ODP one per slide, XLSX/ODS one per sheet.
// DOCX splits on explicit page breaks. Plain text and unknown extensions are one page.
func (e *Extractor) ExtractPages(content []byte, ext string) ([]string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return e.paged(extractPDF(content, e.maxPages))
	case ".pptx":
		return e.paged(extractPPTX(content))
	case ".odp":
		return e.paged(extractODP(content))
	case ".xlsx":
		return e.paged(extractExcel(content))
	case ".ods":
		return e.paged(extractODS(content))
	case ".docx":
		return extractDOCX(content)
	default:
		return []string{extractPlain(content)}, nil
	}
}

// SupportedExtensions lists extensions with a dedicated extractor.
func SupportedExtensions() []string {
	return []string{".pdf", ".pptx", ".odp", ".xlsx", ".ods", ".docx", ".txt", ".md"}
}

func (e *Extractor) paged(pages []string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	if e.maxPages > 0 && len(pages) > e.maxPages {
		pages = pages[:e.maxPages]
	}
	if e.maxCharsPerPage > 0 {
		for i, p := range pages {
			pages[i] = utils.Prefix(p, e.maxCharsPerPage)
		}
	}
	return pages, nil
}
