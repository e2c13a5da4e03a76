package server

import (
	"errors"
	"net/http"

	"github.com/hyperjump/esglens/internal/analysis"
	"github.com/hyperjump/esglens/internal/embedding"
	"github.com/hyperjump/esglens/internal/indexer"
	"github.com/hyperjump/esglens/internal/retrieval"
	"github.com/hyperjump/esglens/internal/vector"
)

const (
	msgTooLarge       = "This report is too large to process. Please upload a smaller file or a shorter extract."
	msgReportNotFound = "Report not found"
)

// statusFor maps a service error to an HTTP status and a client-facing message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, retrieval.ErrReportNotFound):
		return http.StatusNotFound, msgReportNotFound
	case errors.Is(err, retrieval.ErrResourceExhausted):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, retrieval.ErrEmptyDocument), errors.Is(err, indexer.ErrNoText):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, embedding.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, analysis.ErrGeneration):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, vector.ErrDimensionMismatch):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
