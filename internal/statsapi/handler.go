// Package statsapi serves stored reports over HTTP: the run list, whole
// reports, and their chart-ready exports as JSON, CSV, YAML or text.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/report"
	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/periodstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/periodstats/pkg/middleware"
)

// Invalidator clears the report cache.
type Invalidator interface {
	Invalidate(ctx context.Context) (int64, error)
}

// Handler holds the stats API endpoints.
type Handler struct {
	store  store.Store
	cache  Invalidator
	logger *slog.Logger
}

// NewHandler creates a Handler. cache may be nil.
func NewHandler(s store.Store, cache Invalidator) *Handler {
	return &Handler{
		store:  s,
		cache:  cache,
		logger: slog.Default().With("component", "stats-handler"),
	}
}

// ListReports returns the newest stored runs. ?limit= accepts 1..100.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 100 {
			h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "limit must be between 1 and 100, got %q", v))
			return
		}
		limit = parsed
	}
	entries, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reports": entries,
		"count":   len(entries),
		"limit":   limit,
	})
}

// LatestReport returns the most recent report.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.Latest(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeReport(w, r, rep)
}

// GetReport returns the report of the run in the path.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeReport(w, r, rep)
}

// GetExport returns the aligned export of a run. ?format=csv selects the
// long CSV form.
func (h *Handler) GetExport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.lookup(w, r)
	if !ok {
		return
	}
	e := report.BuildExport(rep)
	if err := report.Verify(e); err != nil {
		h.writeError(w, r, err)
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.writeJSON(w, http.StatusOK, e)
	case "csv":
		var buf bytes.Buffer
		if _, err := report.WriteCSV(&buf, e); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeBody(w, "text/csv; charset=utf-8", buf.Bytes())
	default:
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown export format %q", format))
	}
}

// InvalidateCache clears the report cache.
func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrNotFound, http.StatusNotFound, "report cache is not enabled"))
		return
	}
	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "run id is required"))
		return nil, false
	}
	rep, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return rep, true
}

// writeReport honours ?format=json|yaml|text.
func (h *Handler) writeReport(w http.ResponseWriter, r *http.Request, rep *report.Report) {
	var buf bytes.Buffer
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		h.writeJSON(w, http.StatusOK, rep)
	case "yaml":
		if err := report.WriteYAML(&buf, rep); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeBody(w, "application/yaml", buf.Bytes())
	case "text":
		if err := report.WriteText(&buf, rep); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeBody(w, "text/plain; charset=utf-8", buf.Bytes())
	default:
		h.writeError(w, r, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "unknown report format %q", format))
	}
}

func (h *Handler) writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		message = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": message})
}
