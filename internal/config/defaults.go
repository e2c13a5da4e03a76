package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = 50 << 20
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}

	if cfg.Gemini.GenerationModel == "" {
		cfg.Gemini.GenerationModel = "gemini-2.5-flash"
	}
	if cfg.Gemini.EmbeddingModel == "" {
		cfg.Gemini.EmbeddingModel = "text-embedding-004"
	}
	if cfg.Gemini.Temperature == 0 {
		cfg.Gemini.Temperature = 0.2
	}
	if cfg.Gemini.MaxOutputTokens == 0 {
		cfg.Gemini.MaxOutputTokens = 2048
	}
	if cfg.Gemini.RequestsPerSecond == 0 {
		cfg.Gemini.RequestsPerSecond = 10
	}
	if cfg.Gemini.Burst == 0 {
		cfg.Gemini.Burst = 5
	}
	if cfg.Gemini.EmbedConcurrency == 0 {
		cfg.Gemini.EmbedConcurrency = 4
	}
	if cfg.Gemini.BreakerFailures == 0 {
		cfg.Gemini.BreakerFailures = 5
	}
	if cfg.Gemini.BreakerTimeout == 0 {
		cfg.Gemini.BreakerTimeout = 30 * time.Second
	}

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1600
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = 150
	}
	if cfg.Chunking.MaxChunks == 0 {
		cfg.Chunking.MaxChunks = 800
	}
	if cfg.Chunking.MinChars == 0 {
		cfg.Chunking.MinChars = 50
	}

	if cfg.Extract.MaxPages == 0 {
		cfg.Extract.MaxPages = 80
	}
	if cfg.Extract.MaxCharsPerPage == 0 {
		cfg.Extract.MaxCharsPerPage = 6000
	}

	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 8
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 50
	}
	if cfg.Search.Overfetch == 0 {
		cfg.Search.Overfetch = 3
	}

	if cfg.Analysis.ContextChunks == 0 {
		cfg.Analysis.ContextChunks = 80
	}
	if cfg.Analysis.SnippetChars == 0 {
		cfg.Analysis.SnippetChars = 400
	}
	if cfg.Analysis.CacheSize == 0 {
		cfg.Analysis.CacheSize = 256
	}

	if cfg.Retrieval.MaxMemoryBytes == 0 {
		cfg.Retrieval.MaxMemoryBytes = 1 << 30
	}
	if cfg.Retrieval.IndexType == "" {
		cfg.Retrieval.IndexType = "flat"
	}

	if cfg.Tracing.Exporter == "" {
		cfg.Tracing.Exporter = "none"
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = "localhost:4317"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "esglens"
	}

	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".txt", ".md", ".docx", ".xlsx", ".pptx"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
