// Package server provides the HTTP API for esglens.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/esglens/internal/analysis"
	"github.com/hyperjump/esglens/internal/config"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/retrieval"
)

// WatchService manages inbox directories at runtime. *watcher.Watcher implements it.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the esglens API.
type Server struct {
	store    *retrieval.Store
	indexer  *indexer.Indexer
	analysis *analysis.Service // nil when no generative model is configured
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server

	generationModel string
	embeddingModel  string

	watch         WatchService // optional
	configPath    string       // when set, watch directory changes are persisted here
	watchConfigMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is non-empty, added and
// removed directories are saved back to the config file.
func WithWatch(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// WithModelNames sets the model names reported by the health endpoint.
func WithModelNames(generation, embedding string) Option {
	return func(s *Server) {
		s.generationModel = generation
		s.embeddingModel = embedding
	}
}

// NewServer creates a server with the given dependencies. svc may be nil, in which case
// the answer and analysis endpoints respond 503.
func NewServer(
	store *retrieval.Store,
	idx *indexer.Indexer,
	svc *analysis.Service,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:    store,
		indexer:  idx,
		analysis: svc,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.config.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/reports", s.handleListReports)
		r.Post("/reports", s.handleUploadReports)
		r.Post("/sample-report", s.handleSampleReport)
		r.Get("/reports/{id}/preview", s.handlePreview)

		r.Post("/search", s.handleSearch)
		r.Post("/query", s.handleQuery)
		r.Post("/summary", s.handleSummary)
		r.Post("/metrics", s.handleMetrics)
		r.Post("/compliance", s.handleCompliance)
		r.Post("/risk", s.handleRisk)

		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return otelhttp.NewHandler(r, "esglens")
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Server.Addr()
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
