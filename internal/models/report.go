// Package models defines core data structures for reports, chunks, requests, and results.
package models

import "time"

// Report is one ingested document. Reports are immutable once created.
type Report struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PageCount  int       `json:"pages"`
	ChunkCount int       `json:"chunks"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Passage is a chunker output: a window of page text and its 1-based page number.
type Passage struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// Chunk is a stored passage. Position is both its identity and its row in the vector index.
type Chunk struct {
	Position   int    `json:"position"`
	Text       string `json:"text"`
	ReportID   string `json:"report_id"`
	ReportName string `json:"report_name"`
	Page       int    `json:"page"`
}

// RetrievalResult is a single ranked search hit.
type RetrievalResult struct {
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
	ReportID   string  `json:"report_id"`
	ReportName string  `json:"report_name"`
	Page       int     `json:"page"`
	Position   int     `json:"position"`
}
