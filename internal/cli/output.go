// Package cli provides output formatting and an HTTP client for the esglens command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/esglens/internal/models"
	"github.com/hyperjump/esglens/pkg/utils"
)

// OutputFormat selects how command results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const snippetChars = 200

// ParseOutputFormat accepts "text" or "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const rule = "─────────────────────────────────────────────────────────\n"

// WriteSearchResults writes raw retrieval results.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d passages in %dms\n\n", len(response.Results), response.QueryTime)
	for i, r := range response.Results {
		fmt.Fprint(w, rule)
		fmt.Fprintf(w, "[%d] Score: %.4f | %s, page %d\n", i+1, r.Score, r.ReportName, r.Page)
		fmt.Fprintf(w, "Report: %s\n", r.ReportID)
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Text, snippetChars))
	}
	return nil
}

// WriteAnswer writes a generated answer followed by its citations.
func WriteAnswer(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\n%s\n", response.Answer)
	if len(response.Citations) == 0 {
		return nil
	}
	fmt.Fprintln(w, "\nSources:")
	for i, c := range response.Citations {
		fmt.Fprintf(w, "  [%d] %s, page %d (%.3f)\n", i+1, c.ReportName, c.Page, c.Score)
	}
	return nil
}

// WriteReports writes the report list as a table.
func WriteReports(w io.Writer, reports []*models.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.ReportsResponse{Reports: reports})
	}
	if len(reports) == 0 {
		fmt.Fprintln(w, "No reports uploaded.")
		return nil
	}
	fmt.Fprintf(w, "%-24s %6s %7s  %-20s %s\n", "ID", "PAGES", "CHUNKS", "UPLOADED", "NAME")
	for _, r := range reports {
		fmt.Fprintf(w, "%-24s %6d %7d  %-20s %s\n", r.ID, r.PageCount, r.ChunkCount, r.UploadedAt.Format("2006-01-02 15:04:05"), r.Name)
	}
	return nil
}

// WritePreview writes a report preview.
func WritePreview(w io.Writer, p *models.PreviewResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, p)
	}
	fmt.Fprintf(w, "%s\n", p.PreviewText)
	return nil
}

// WriteHealth writes server health.
func WriteHealth(w io.Writer, h *models.HealthResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, h)
	}
	fmt.Fprintf(w, "Status:          %s\n", h.Status)
	fmt.Fprintf(w, "Reports:         %d\n", h.Reports)
	fmt.Fprintf(w, "Chunks:          %d\n", h.Chunks)
	fmt.Fprintf(w, "Index:           %s (%d dims)\n", h.IndexType, h.Dimensions)
	fmt.Fprintf(w, "Model:           %s\n", h.Model)
	fmt.Fprintf(w, "Embedding model: %s\n", h.EmbeddingModel)
	return nil
}

// WriteAnalysis writes the result of a summary, metrics, compliance or risk analysis.
func WriteAnalysis(w io.Writer, result any, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, result)
	}
	switch r := result.(type) {
	case *models.SummaryResponse:
		fmt.Fprintf(w, "%s\n", r.SummaryMD)
	case *models.RiskResponse:
		fmt.Fprintf(w, "Greenwashing risk: %s\n\n%s\n", r.Score, r.Explanation)
	case *models.MetricsResponse:
		writeTree(w, r.Metrics, 0)
	case *models.ComplianceResponse:
		writeTree(w, r.Compliance, 0)
	default:
		return writeJSON(w, result)
	}
	return nil
}

// writeTree prints nested maps as an indented key list in sorted key order.
func writeTree(w io.Writer, m map[string]any, depth int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	indent := strings.Repeat("  ", depth)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeTree(w, v, depth+1)
		case nil:
			fmt.Fprintf(w, "%s%s: not disclosed\n", indent, k)
		default:
			fmt.Fprintf(w, "%s%s: %v\n", indent, k, v)
		}
	}
}
