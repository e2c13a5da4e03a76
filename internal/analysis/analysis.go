// Package analysis answers questions over retrieved report passages and produces
// per-report summaries, metrics, compliance coverage and greenwashing risk with a
// generative model.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/esglens/internal/models"
	"github.com/hyperjump/esglens/pkg/utils"
)

const (
	// DefaultContextChunks is how many leading chunks of a report feed a report analysis.
	DefaultContextChunks = 80
	// DefaultSnippetChars bounds citation snippets.
	DefaultSnippetChars = 400
	// DefaultCacheSize is the number of cached report analyses.
	DefaultCacheSize = 256

	// NoContextAnswer is returned when retrieval finds nothing for a question.
	NoContextAnswer = "I couldn’t find relevant ESG context for that question in the uploaded reports."
	// DefaultRiskScore is used when the model does not return a usable label.
	DefaultRiskScore = "Medium"
)

// ErrGeneration wraps failures of the generative model.
var ErrGeneration = errors.New("generation failed")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source is the read side of the report store used by analyses.
type Source interface {
	Search(ctx context.Context, query string, topK int, reportIDs []string) ([]*models.RetrievalResult, error)
	GetReport(id string) (*models.Report, error)
	ReportChunks(reportID string, limit int) []models.Chunk
}

// Service runs retrieval-augmented analyses.
type Service struct {
	source        Source
	gen           Generator
	cache         *lru.Cache[string, any]
	contextChunks int
	snippetChars  int
	logger        *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithContextChunks sets how many chunks of a report are sent for report analyses.
func WithContextChunks(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.contextChunks = n
		}
	}
}

// WithSnippetChars sets the citation snippet length.
func WithSnippetChars(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.snippetChars = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service. cacheSize <= 0 disables the report analysis cache.
func NewService(source Source, gen Generator, cacheSize int, opts ...Option) (*Service, error) {
	s := &Service{
		source:        source,
		gen:           gen,
		contextChunks: DefaultContextChunks,
		snippetChars:  DefaultSnippetChars,
	}
	if cacheSize > 0 {
		c, err := lru.New[string, any](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create analysis cache: %w", err)
		}
		s.cache = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Answer retrieves passages for question and asks the model to answer from them only.
func (s *Service) Answer(ctx context.Context, question string, reportIDs []string, topK int) (*models.QueryResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}
	if topK <= 0 {
		topK = models.DefaultTopK
	}
	results, err := s.source.Search(ctx, question, topK, reportIDs)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &models.QueryResponse{Answer: NoContextAnswer, Citations: []*models.Citation{}}, nil
	}

	blocks := make([]string, len(results))
	citations := make([]*models.Citation, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[%d] (Report: %s, page %d)\n%s", i+1, r.ReportName, r.Page, r.Text)
		citations[i] = &models.Citation{
			ID:         fmt.Sprintf("c%d", i+1),
			ReportID:   r.ReportID,
			ReportName: r.ReportName,
			Page:       r.Page,
			Snippet:    utils.Prefix(r.Text, s.snippetChars),
			Score:      r.Score,
		}
	}

	answer, err := s.generate(ctx, answerPrompt(strings.Join(blocks, "\n\n"), question))
	if err != nil {
		return nil, err
	}
	return &models.QueryResponse{Answer: answer, Citations: citations}, nil
}

// Summary writes a markdown executive summary of a report.
func (s *Service) Summary(ctx context.Context, reportID string) (*models.SummaryResponse, error) {
	v, err := s.cached(ctx, "summary", reportID, func(reportContext string) (any, error) {
		md, err := s.generate(ctx, summaryPrompt(reportContext))
		if err != nil {
			return nil, err
		}
		return &models.SummaryResponse{ReportID: reportID, SummaryMD: md}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.SummaryResponse), nil
}

// Metrics extracts key ESG figures as JSON. Unparseable output is returned under "raw".
func (s *Service) Metrics(ctx context.Context, reportID string) (*models.MetricsResponse, error) {
	v, err := s.cached(ctx, "metrics", reportID, func(reportContext string) (any, error) {
		out, err := s.generate(ctx, metricsPrompt(reportContext))
		if err != nil {
			return nil, err
		}
		return &models.MetricsResponse{ReportID: reportID, Metrics: s.parseOrRaw(out)}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.MetricsResponse), nil
}

// Compliance reports which disclosure frameworks the report references.
func (s *Service) Compliance(ctx context.Context, reportID string) (*models.ComplianceResponse, error) {
	v, err := s.cached(ctx, "compliance", reportID, func(reportContext string) (any, error) {
		out, err := s.generate(ctx, compliancePrompt(reportContext))
		if err != nil {
			return nil, err
		}
		return &models.ComplianceResponse{ReportID: reportID, Compliance: s.parseOrRaw(out)}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ComplianceResponse), nil
}

// Risk labels greenwashing risk Low, Medium or High. Unparseable output yields
// Medium with the raw model text as explanation.
func (s *Service) Risk(ctx context.Context, reportID string) (*models.RiskResponse, error) {
	v, err := s.cached(ctx, "risk", reportID, func(reportContext string) (any, error) {
		out, err := s.generate(ctx, riskPrompt(reportContext))
		if err != nil {
			return nil, err
		}
		resp := &models.RiskResponse{ReportID: reportID, Score: DefaultRiskScore}
		data, perr := ParseStrictJSON(out)
		if perr != nil {
			resp.Explanation = out
			return resp, nil
		}
		if score, ok := data["score"].(string); ok && score != "" {
			resp.Score = score
		}
		if expl, ok := data["explanation"]; ok && expl != nil {
			resp.Explanation = fmt.Sprint(expl)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.RiskResponse), nil
}

// cached resolves the report, builds its context and runs fn once per kind and report.
func (s *Service) cached(ctx context.Context, kind, reportID string, fn func(reportContext string) (any, error)) (any, error) {
	if _, err := s.source.GetReport(reportID); err != nil {
		return nil, err
	}
	key := kind + ":" + reportID
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			if s.logger != nil {
				s.logger.Debug("Analysis cache hit", zap.String("key", key))
			}
			return v, nil
		}
	}
	v, err := fn(s.reportContext(reportID))
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(key, v)
	}
	return v, nil
}

// reportContext renders the first chunks of a report as "(Page p) text" blocks.
func (s *Service) reportContext(reportID string) string {
	chunks := s.source.ReportChunks(reportID, s.contextChunks)
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("(Page %d) %s", c.Page, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

func (s *Service) generate(ctx context.Context, prompt string) (string, error) {
	out, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("Generation failed", zap.Error(err))
		}
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return strings.TrimSpace(out), nil
}

func (s *Service) parseOrRaw(out string) map[string]any {
	data, err := ParseStrictJSON(out)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("Model returned non-JSON output", zap.Error(err))
		}
		return map[string]any{"raw": out}
	}
	return data
}
