package retrieval

import "errors"

var (
	// ErrEmptyDocument is returned when a document yields no usable chunks.
	ErrEmptyDocument = errors.New("no text chunks extracted from report")
	// ErrResourceExhausted is returned when a report would grow the store past its memory budget.
	ErrResourceExhausted = errors.New("report too large to process")
	// ErrReportNotFound is returned when looking up an unknown report id.
	ErrReportNotFound = errors.New("report not found")
)
