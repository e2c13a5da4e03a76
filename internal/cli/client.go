package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/esglens/internal/models"
)

// AnalysisKinds lists the report analyses served under /api/<kind>.
var AnalysisKinds = []string{"summary", "metrics", "compliance", "risk"}

// Client talks to a running esglens server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL (e.g. http://localhost:8000).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health calls GET /api/health.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	return &out, c.do(ctx, http.MethodGet, "/api/health", nil, "", &out)
}

// ListReports calls GET /api/reports.
func (c *Client) ListReports(ctx context.Context) ([]*models.Report, error) {
	var out models.ReportsResponse
	if err := c.do(ctx, http.MethodGet, "/api/reports", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// Upload posts files to /api/reports and returns the resulting report list.
func (c *Client) Upload(ctx context.Context, paths []string) ([]*models.Report, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		fw, err := mw.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(content); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out models.ReportsResponse
	if err := c.do(ctx, http.MethodPost, "/api/reports", &body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// LoadSample calls POST /api/sample-report.
func (c *Client) LoadSample(ctx context.Context) ([]*models.Report, error) {
	var out models.ReportsResponse
	if err := c.do(ctx, http.MethodPost, "/api/sample-report", nil, "", &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// Preview calls GET /api/reports/{id}/preview.
func (c *Client) Preview(ctx context.Context, reportID string, maxChars int) (*models.PreviewResponse, error) {
	path := "/api/reports/" + url.PathEscape(reportID) + "/preview?max_chars=" + strconv.Itoa(maxChars)
	var out models.PreviewResponse
	return &out, c.do(ctx, http.MethodGet, path, nil, "", &out)
}

// Search calls POST /api/search.
func (c *Client) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResponse, error) {
	var out models.SearchResponse
	return &out, c.postJSON(ctx, "/api/search", req, &out)
}

// Ask calls POST /api/query.
func (c *Client) Ask(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	var out models.QueryResponse
	return &out, c.postJSON(ctx, "/api/query", req, &out)
}

// Analyze runs one of AnalysisKinds for a report and returns the typed response.
func (c *Client) Analyze(ctx context.Context, kind, reportID string) (any, error) {
	var out any
	switch kind {
	case "summary":
		out = &models.SummaryResponse{}
	case "metrics":
		out = &models.MetricsResponse{}
	case "compliance":
		out = &models.ComplianceResponse{}
	case "risk":
		out = &models.RiskResponse{}
	default:
		return nil, fmt.Errorf("unknown analysis %q (want one of %s)", kind, strings.Join(AnalysisKinds, ", "))
	}
	if err := c.postJSON(ctx, "/api/"+kind, models.ReportRequest{ReportID: reportID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), "application/json", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(b, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
