package models

import (
	"fmt"
	"strings"
)

const (
	// DefaultTopK is the number of passages retrieved when a request leaves top_k unset.
	DefaultTopK = 8
	// MaxTopK caps top_k on incoming requests.
	MaxTopK = 50
)

// SearchRequest asks for the passages most similar to Query.
type SearchRequest struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k,omitempty"`
	ReportIDs []string `json:"report_ids,omitempty"`
}

// Validate trims the query, rejects an empty one, and normalizes TopK.
func (q *SearchRequest) Validate() error {
	return q.ValidateWithin(DefaultTopK, MaxTopK)
}

// ValidateWithin is Validate with a caller-supplied default and cap for TopK.
func (q *SearchRequest) ValidateWithin(defaultTopK, maxTopK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	q.TopK = clampTopK(q.TopK, defaultTopK, maxTopK)
	return nil
}

// QueryRequest asks a question answered from retrieved report passages.
type QueryRequest struct {
	Question  string   `json:"question"`
	ReportIDs []string `json:"report_ids,omitempty"`
	TopK      int      `json:"top_k,omitempty"`
}

// Validate trims the question, rejects an empty one, and normalizes TopK.
func (q *QueryRequest) Validate() error {
	return q.ValidateWithin(DefaultTopK, MaxTopK)
}

// ValidateWithin is Validate with a caller-supplied default and cap for TopK.
func (q *QueryRequest) ValidateWithin(defaultTopK, maxTopK int) error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return fmt.Errorf("question is empty")
	}
	q.TopK = clampTopK(q.TopK, defaultTopK, maxTopK)
	return nil
}

// ReportRequest names a single report for summary, metrics, compliance, and risk analysis.
type ReportRequest struct {
	ReportID string `json:"report_id"`
}

// Validate rejects an empty report id.
func (r *ReportRequest) Validate() error {
	r.ReportID = strings.TrimSpace(r.ReportID)
	if r.ReportID == "" {
		return fmt.Errorf("report_id cannot be empty")
	}
	return nil
}

func clampTopK(k, defaultTopK, maxTopK int) int {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if maxTopK <= 0 {
		maxTopK = MaxTopK
	}
	if k <= 0 {
		k = defaultTopK
	}
	if k > maxTopK {
		return maxTopK
	}
	return k
}
