package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hyperjump/esglens/internal/config"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/models"
	"github.com/hyperjump/esglens/internal/retrieval"
)

const (
	defaultPreviewChars = 1000
	multipartMemory     = 32 << 20
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "ESG Assistant API running", "docs": "/api/health"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.store.Stats()
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:         "ok",
		Model:          s.generationModel,
		EmbeddingModel: s.embeddingModel,
		Chunks:         st.Chunks,
		Reports:        st.Reports,
		Dimensions:     st.Dimensions,
		IndexType:      st.IndexType,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.ReportsResponse{Reports: s.store.ListReports()})
}

func (s *Server) handleUploadReports(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		content, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("cannot read %s", fh.Filename))
			return
		}
		if _, err := s.indexer.IndexBytes(r.Context(), fh.Filename, content); err != nil {
			s.respondIngestError(w, r, fh.Filename, err)
			return
		}
	}
	s.respondJSON(w, http.StatusOK, models.ReportsResponse{Reports: s.store.ListReports()})
}

func (s *Server) handleSampleReport(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.AddReport(r.Context(), sampleReportName, []string{sampleReportText}); err != nil {
		s.respondIngestError(w, r, sampleReportName, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.ReportsResponse{Reports: s.store.ListReports()})
}

func (s *Server) respondIngestError(w http.ResponseWriter, r *http.Request, name string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusBadRequest {
		msg = "No text extracted from " + name
	}
	trace.SpanFromContext(r.Context()).RecordError(err)
	s.logger.Warn("Report upload failed",
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("name", name),
		zap.Int("status", status),
		zap.Error(err))
	s.respondError(w, status, msg)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetReport(id); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	maxChars := defaultPreviewChars
	if v := r.URL.Query().Get("max_chars"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "max_chars must be a non-negative integer")
			return
		}
		maxChars = n
	}
	s.respondJSON(w, http.StatusOK, models.PreviewResponse{ReportID: id, PreviewText: s.store.PreviewText(id, maxChars)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.ValidateWithin(s.config.Search.DefaultTopK, s.config.Search.MaxTopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("Search request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))
	start := time.Now()
	results, err := s.store.Search(r.Context(), req.Query, req.TopK, req.ReportIDs)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.SearchResponse{
		Query:     req.Query,
		Results:   results,
		QueryTime: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !s.analysisEnabled(w) {
		return
	}
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.ValidateWithin(s.config.Search.DefaultTopK, s.config.Search.MaxTopK); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := s.analysis.Answer(r.Context(), req.Question, req.ReportIDs, req.TopK)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.handleReportAnalysis(w, r, func(id string) (any, error) { return s.analysis.Summary(r.Context(), id) })
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.handleReportAnalysis(w, r, func(id string) (any, error) { return s.analysis.Metrics(r.Context(), id) })
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	s.handleReportAnalysis(w, r, func(id string) (any, error) { return s.analysis.Compliance(r.Context(), id) })
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	s.handleReportAnalysis(w, r, func(id string) (any, error) { return s.analysis.Risk(r.Context(), id) })
}

func (s *Server) handleReportAnalysis(w http.ResponseWriter, r *http.Request, run func(reportID string) (any, error)) {
	if !s.analysisEnabled(w) {
		return
	}
	var req models.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := run(req.ReportID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) analysisEnabled(w http.ResponseWriter) bool {
	if s.analysis == nil {
		s.respondError(w, http.StatusServiceUnavailable, "generative model not configured")
		return false
	}
	return true
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("Watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("Watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.watchConfigMu.Lock()
	defer s.watchConfigMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("Failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, msg)
		s.logger.Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// ensure the store satisfies the ingest interface
var _ indexer.ReportStore = (*retrieval.Store)(nil)
