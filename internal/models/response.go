package models

// SearchResponse is the response for a raw retrieval request.
type SearchResponse struct {
	Query     string             `json:"query"`
	Results   []*RetrievalResult `json:"results"`
	QueryTime int64              `json:"query_time_ms"`
}

// Citation points an answer back at the passage it was drawn from.
type Citation struct {
	ID         string  `json:"id"`
	ReportID   string  `json:"report_id"`
	ReportName string  `json:"report_name"`
	Page       int     `json:"page"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// QueryResponse is a generated answer with its citations.
type QueryResponse struct {
	Answer    string      `json:"answer"`
	Citations []*Citation `json:"citations"`
}

// SummaryResponse carries a markdown executive summary.
type SummaryResponse struct {
	ReportID  string `json:"report_id"`
	SummaryMD string `json:"summary_md"`
}

// MetricsResponse carries extracted ESG metrics. On unparseable model output
// Metrics holds a single "raw" key with the model text.
type MetricsResponse struct {
	ReportID string         `json:"report_id"`
	Metrics  map[string]any `json:"metrics"`
}

// ComplianceResponse carries framework coverage (SDGs, GRI, SASB, IFRS S1/S2).
type ComplianceResponse struct {
	ReportID   string         `json:"report_id"`
	Compliance map[string]any `json:"compliance"`
}

// RiskResponse carries a greenwashing risk label and explanation.
type RiskResponse struct {
	ReportID    string `json:"report_id"`
	Score       string `json:"score"`
	Explanation string `json:"explanation"`
}

// ReportsResponse lists reports in ingestion order.
type ReportsResponse struct {
	Reports []*Report `json:"reports"`
}

// PreviewResponse carries the leading text of a report.
type PreviewResponse struct {
	ReportID    string `json:"report_id"`
	PreviewText string `json:"preview_text"`
}

// HealthResponse is the shape of GET /api/health.
type HealthResponse struct {
	Status         string `json:"status"`
	Model          string `json:"model"`
	EmbeddingModel string `json:"embedding_model"`
	Chunks         int    `json:"chunks"`
	Reports        int    `json:"reports"`
	Dimensions     int    `json:"dimensions"`
	IndexType      string `json:"index_type"`
}
