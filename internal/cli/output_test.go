package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/esglens/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputText, "text": OutputText, "JSON": OutputJSON} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseOutputFormat("yaml")
	assert.Error(t, err)
}

func TestWriteSearchResults(t *testing.T) {
	resp := &models.SearchResponse{
		Query:     "scope 1",
		QueryTime: 12,
		Results: []*models.RetrievalResult{
			{Score: 0.8123, Text: strings.Repeat("emissions ", 40), ReportID: "rep_1_1", ReportName: "esg.pdf", Page: 3},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSearchResults(&buf, resp, OutputText))
	out := buf.String()
	assert.Contains(t, out, "Found 1 passages in 12ms")
	assert.Contains(t, out, "Score: 0.8123 | esg.pdf, page 3")
	assert.Contains(t, out, "...")

	buf.Reset()
	require.NoError(t, WriteSearchResults(&buf, resp, OutputJSON))
	var decoded models.SearchResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "scope 1", decoded.Query)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, 3, decoded.Results[0].Page)
}

func TestWriteAnswer(t *testing.T) {
	resp := &models.QueryResponse{
		Answer:    "Scope 1 emissions were 130,000 tCO2e.",
		Citations: []*models.Citation{{ID: "c1", ReportName: "esg.pdf", Page: 2, Score: 0.5}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAnswer(&buf, resp, OutputText))
	assert.Contains(t, buf.String(), "130,000 tCO2e")
	assert.Contains(t, buf.String(), "[1] esg.pdf, page 2")

	buf.Reset()
	require.NoError(t, WriteAnswer(&buf, &models.QueryResponse{Answer: "none"}, OutputText))
	assert.NotContains(t, buf.String(), "Sources:")
}

func TestWriteReports(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, nil, OutputText))
	assert.Contains(t, buf.String(), "No reports uploaded.")

	buf.Reset()
	reports := []*models.Report{{
		ID: "rep_1_1700000000", Name: "annual.pdf", PageCount: 4, ChunkCount: 9,
		UploadedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, WriteReports(&buf, reports, OutputText))
	assert.Contains(t, buf.String(), "rep_1_1700000000")
	assert.Contains(t, buf.String(), "2024-05-01 10:00:00")
	assert.Contains(t, buf.String(), "annual.pdf")

	buf.Reset()
	require.NoError(t, WriteReports(&buf, reports, OutputJSON))
	assert.Contains(t, buf.String(), `"reports"`)
}

func TestWriteAnalysis(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAnalysis(&buf, &models.RiskResponse{Score: "Low", Explanation: "Targets are verified."}, OutputText))
	assert.Contains(t, buf.String(), "Greenwashing risk: Low")

	buf.Reset()
	metrics := &models.MetricsResponse{Metrics: map[string]any{
		"ghg_emissions": map[string]any{"scope1_tco2e": 130000.0, "scope2_tco2e": nil},
		"company":       "Afrigrid",
	}}
	require.NoError(t, WriteAnalysis(&buf, metrics, OutputText))
	out := buf.String()
	assert.Contains(t, out, "company: Afrigrid")
	assert.Contains(t, out, "  scope1_tco2e: 130000")
	assert.Contains(t, out, "  scope2_tco2e: not disclosed")
	assert.Less(t, strings.Index(out, "company"), strings.Index(out, "ghg_emissions"))

	buf.Reset()
	require.NoError(t, WriteAnalysis(&buf, &models.SummaryResponse{SummaryMD: "## Overview"}, OutputJSON))
	assert.Contains(t, buf.String(), `"summary_md": "## Overview"`)
}

func TestWriteHealth(t *testing.T) {
	var buf bytes.Buffer
	h := &models.HealthResponse{Status: "ok", Reports: 2, Chunks: 10, IndexType: "flat_ip", Dimensions: 768, Model: "gemini-1.5-flash"}
	require.NoError(t, WriteHealth(&buf, h, OutputText))
	assert.Contains(t, buf.String(), "flat_ip (768 dims)")
	assert.Contains(t, buf.String(), "Reports:         2")
}
