// Package gemini wraps the Gemini embedding and generation APIs behind a rate limiter
// and a circuit breaker, with a tracing span per call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

const tracerName = "github.com/hyperjump/esglens/internal/gemini"

// ErrMissingAPIKey is returned by NewClient when no API key is configured.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY not set")

// ErrEmptyResponse is returned when the model answers without any text or values.
var ErrEmptyResponse = errors.New("empty response from model")

// Config holds model names and client-side limits.
type Config struct {
	APIKey            string
	GenerationModel   string
	EmbeddingModel    string
	Temperature       float32
	MaxOutputTokens   int32
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// Client calls Gemini for embeddings and text generation.
type Client struct {
	cfg      Config
	client   *genai.Client
	breaker  *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	logger   *zap.Logger // optional
	embed    func(ctx context.Context, text string) ([]float32, error)
	generate func(ctx context.Context, prompt string) (string, error)
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets a logger for breaker state changes and call failures.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient connects to Gemini with cfg.APIKey.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c := newClient(cfg, opts...)
	c.client = gc
	c.embed = c.embedRemote
	c.generate = c.generateRemote
	return c, nil
}

func newClient(cfg Config, opts ...Option) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	c := &Client{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if c.logger != nil {
				c.logger.Warn("circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			}
		},
	})
	return c
}

// Embed returns the raw embedding of text. Values are not normalized.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gemini.embed")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.cfg.EmbeddingModel),
		attribute.Int("gemini.input_chars", len(text)),
	)
	out, err := c.call(ctx, func() (any, error) { return c.embed(ctx, text) })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	vec := out.([]float32)
	span.SetAttributes(attribute.Int("gemini.dimensions", len(vec)))
	return vec, nil
}

// Generate returns the model's text answer to prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "gemini.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", c.cfg.GenerationModel),
		attribute.Int("gemini.prompt_chars", len(prompt)),
	)
	out, err := c.call(ctx, func() (any, error) { return c.generate(ctx, prompt) })
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := out.(string)
	span.SetAttributes(attribute.Int("gemini.response_chars", len(text)))
	return text, nil
}

// Model returns the generation model name.
func (c *Client) Model() string {
	return c.cfg.GenerationModel
}

// EmbeddingModel returns the embedding model name.
func (c *Client) EmbeddingModel() string {
	return c.cfg.EmbeddingModel
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Client) call(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	out, err := c.breaker.Execute(fn)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("gemini call failed", zap.Error(err))
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) embedRemote(ctx context.Context, text string) ([]float32, error) {
	res, err := c.client.EmbeddingModel(c.cfg.EmbeddingModel).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return res.Embedding.Values, nil
}

func (c *Client) generateRemote(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.cfg.GenerationModel)
	if c.cfg.Temperature > 0 {
		model.SetTemperature(c.cfg.Temperature)
	}
	if c.cfg.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(c.cfg.MaxOutputTokens)
	}
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
