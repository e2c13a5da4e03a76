package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/esglens/internal/analysis"
	"github.com/hyperjump/esglens/internal/config"
	"github.com/hyperjump/esglens/internal/embedding"
	"github.com/hyperjump/esglens/internal/extract"
	"github.com/hyperjump/esglens/internal/gemini"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/retrieval"
	"github.com/hyperjump/esglens/internal/server"
	"github.com/hyperjump/esglens/internal/telemetry"
	"github.com/hyperjump/esglens/internal/watcher"
	"github.com/hyperjump/esglens/pkg/utils"
)

// mockDimensions matches the size of the default Gemini embedding model.
const mockDimensions = 768

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, configPath, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			debugMode := cfg.Debug || opts.debug
			logger, err := utils.NewLogger(debugMode)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			logger.Info("config loaded", zap.String("config_path", configPath), zap.Bool("debug", debugMode))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, configPath, logger)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	return cmd
}

// components holds everything serve wires together.
type components struct {
	store    *retrieval.Store
	indexer  *indexer.Indexer
	analysis *analysis.Service
	gemini   *gemini.Client
	watcher  *watcher.Watcher

	shutdownTracing func(context.Context) error
}

func (c *components) Close() {
	if c.watcher != nil {
		c.watcher.Stop()
	}
	if c.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		_ = c.shutdownTracing(ctx)
		cancel()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
	if c.gemini != nil {
		_ = c.gemini.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*components, error) {
	c := &components{}

	shutdownTracing, err := telemetry.Init(ctx, cfg.Tracing, Version, utils.NamedLogger(logger, "telemetry"))
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	c.shutdownTracing = shutdownTracing

	var embedder embedding.Embedder
	client, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:            cfg.Gemini.APIKey,
		GenerationModel:   cfg.Gemini.GenerationModel,
		EmbeddingModel:    cfg.Gemini.EmbeddingModel,
		Temperature:       cfg.Gemini.Temperature,
		MaxOutputTokens:   cfg.Gemini.MaxOutputTokens,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
		Burst:             cfg.Gemini.Burst,
		BreakerFailures:   cfg.Gemini.BreakerFailures,
		BreakerTimeout:    cfg.Gemini.BreakerTimeout,
	}, gemini.WithLogger(utils.NamedLogger(logger, "gemini")))
	switch {
	case errors.Is(err, gemini.ErrMissingAPIKey):
		logger.Warn("GEMINI_API_KEY not set; using mock embeddings and disabling answers",
			zap.Int("dimensions", mockDimensions))
		embedder = embedding.NewMockEmbedder(mockDimensions)
	case err != nil:
		c.Close()
		return nil, err
	default:
		c.gemini = client
		embedder = embedding.NewServiceEmbedder(client, cfg.Gemini.EmbedConcurrency)
	}

	chunker := indexer.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap, cfg.Chunking.MaxChunks, cfg.Chunking.MinChars)
	c.store = retrieval.NewStore(embedder,
		retrieval.WithChunker(chunker),
		retrieval.WithIndexType(cfg.Retrieval.IndexType),
		retrieval.WithOverfetch(cfg.Search.Overfetch),
		retrieval.WithMaxMemoryBytes(cfg.Retrieval.MaxMemoryBytes),
	)

	extractor := extract.NewExtractor(extract.WithLimits(cfg.Extract.MaxPages, cfg.Extract.MaxCharsPerPage))
	c.indexer = indexer.NewIndexer(c.store, extractor, indexer.WithLogger(utils.NamedLogger(logger, "indexer")))

	if c.gemini != nil {
		svc, err := analysis.NewService(c.store, c.gemini, cfg.Analysis.CacheSize,
			analysis.WithContextChunks(cfg.Analysis.ContextChunks),
			analysis.WithSnippetChars(cfg.Analysis.SnippetChars),
			analysis.WithLogger(utils.NamedLogger(logger, "analysis")),
		)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.analysis = svc
	}
	return c, nil
}

func runServe(ctx context.Context, cfg *config.Config, configPath string, logger *zap.Logger) error {
	comps, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize components: %w", err)
	}
	defer comps.Close()

	exts := cfg.Watch.Extensions
	idx := comps.indexer
	comps.watcher = watcher.NewWatcher(cfg.Watch.Directories, exts,
		func(path string) {
			if _, err := idx.IndexFile(context.Background(), path, exts); err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(utils.NamedLogger(logger, "watcher")),
		watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
	)
	if err := comps.watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	comps.watcher.SyncExistingFiles()

	generationModel, embeddingModel := "mock", "mock"
	if comps.gemini != nil {
		generationModel, embeddingModel = comps.gemini.Model(), comps.gemini.EmbeddingModel()
	}
	srv := server.NewServer(comps.store, comps.indexer, comps.analysis, cfg, logger,
		server.WithWatch(comps.watcher, configPath),
		server.WithModelNames(generationModel, embeddingModel),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Stop(shutdownCtx)
}
