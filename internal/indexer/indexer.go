package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/hyperjump/esglens/internal/extract"
	"github.com/hyperjump/esglens/internal/models"
)

// ErrNoText is returned when a document yields no text at all after extraction.
var ErrNoText = errors.New("no text extracted")

const tracerName = "github.com/hyperjump/esglens/internal/indexer"

// ReportStore receives extracted pages as a new report.
type ReportStore interface {
	AddReport(ctx context.Context, name string, pages []string) (*models.Report, error)
}

// Indexer extracts uploaded or dropped files and adds them to a ReportStore.
type Indexer struct {
	store     ReportStore
	extractor *extract.Extractor
	logger    *zap.Logger // optional

	mu       sync.Mutex
	seen     map[string]fileStamp // absolute path -> stamp of the last ingested version
	inFlight map[string]struct{}  // absolute paths currently being ingested
}

type fileStamp struct {
	mtime time.Time
	size  int64
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for ingest events.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// NewIndexer creates an indexer. extractor may be nil; when nil, files are read as plain text.
func NewIndexer(store ReportStore, extractor *extract.Extractor, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:     store,
		extractor: extractor,
		seen:      make(map[string]fileStamp),
		inFlight:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexBytes extracts content according to the extension of name and adds it as a report.
func (idx *Indexer) IndexBytes(ctx context.Context, name string, content []byte) (*models.Report, error) {
	ingestID := uuid.NewString()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "indexer.IndexBytes")
	defer span.End()
	span.SetAttributes(
		attribute.String("ingest.id", ingestID),
		attribute.String("report.name", name),
		attribute.Int("report.bytes", len(content)),
	)

	if idx.logger != nil {
		idx.logger.Debug("Ingesting report", zap.String("ingest_id", ingestID), zap.String("name", name), zap.Int("bytes", len(content)))
	}
	start := time.Now()
	pages, err := idx.extractPages(content, filepath.Ext(name))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract failed")
		return nil, fmt.Errorf("failed to extract %s: %w", name, err)
	}
	if !hasText(pages) {
		span.SetStatus(codes.Error, "no text")
		return nil, fmt.Errorf("%w from %s", ErrNoText, name)
	}
	report, err := idx.store.AddReport(ctx, name, pages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "add report failed")
		if idx.logger != nil {
			idx.logger.Warn("Report ingest failed", zap.String("ingest_id", ingestID), zap.String("name", name), zap.Error(err))
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("report.id", report.ID), attribute.Int("report.chunks", report.ChunkCount))
	if idx.logger != nil {
		idx.logger.Info("Report ingested",
			zap.String("ingest_id", ingestID),
			zap.String("report_id", report.ID),
			zap.String("name", name),
			zap.Int("pages", report.PageCount),
			zap.Int("chunks", report.ChunkCount),
			zap.Duration("took", time.Since(start)))
	}
	return report, nil
}

// IndexFile reads a file from path and adds it as a report. If allowedExts is non-empty, the
// file's extension must be in the list (case-insensitive). A file already ingested with the
// same mtime and size is skipped and yields a nil report.
func (idx *Indexer) IndexFile(ctx context.Context, path string, allowedExts []string) (*models.Report, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	stamp := fileStamp{mtime: info.ModTime(), size: info.Size()}
	if !idx.claim(absPath, stamp) {
		if idx.logger != nil {
			idx.logger.Debug("Skipping unchanged or in-flight file", zap.String("path", absPath))
		}
		return nil, nil
	}
	var report *models.Report
	defer func() { idx.release(absPath, stamp, report != nil) }()

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	report, err = idx.IndexBytes(ctx, filepath.Base(absPath), content)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// IndexDirectory walks dir recursively and ingests each regular file whose extension is in
// allowedExts (all files when empty). Returns the number of new reports and the first error.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		// Resolve symlinks so only regular files are ingested
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		report, indexErr := idx.IndexFile(ctx, path, allowedExts)
		if indexErr != nil {
			return indexErr
		}
		if report != nil {
			n++
		}
		return nil
	})
	return n, err
}

// claim marks absPath in flight unless it is already being ingested or was last ingested
// with the same stamp. It reports whether the caller owns the ingest.
func (idx *Indexer) claim(absPath string, stamp fileStamp) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, busy := idx.inFlight[absPath]; busy {
		return false
	}
	if prev, ok := idx.seen[absPath]; ok && prev.size == stamp.size && prev.mtime.Equal(stamp.mtime) {
		return false
	}
	idx.inFlight[absPath] = struct{}{}
	return true
}

// release ends the claim on absPath and records stamp when the ingest succeeded.
func (idx *Indexer) release(absPath string, stamp fileStamp, ingested bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.inFlight, absPath)
	if ingested {
		idx.seen[absPath] = stamp
	}
}

func (idx *Indexer) extractPages(content []byte, ext string) ([]string, error) {
	if idx.extractor != nil {
		return idx.extractor.ExtractPages(content, ext)
	}
	return []string{string(content)}, nil
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
