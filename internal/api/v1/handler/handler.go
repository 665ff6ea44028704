package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"styleaudit/internal/cache"
	"styleaudit/internal/config"
	"styleaudit/internal/history"
	"styleaudit/internal/log"
	"styleaudit/internal/model"
	"styleaudit/internal/renderer"
	"styleaudit/internal/service"
	"styleaudit/internal/util"
	"styleaudit/pkg/response"
)

// Auditor audits a list of pages. *service.Auditor satisfies it.
type Auditor interface {
	Run(ctx context.Context, pages []config.Page) (model.AuditRun, error)
}

// HistoryReader is the read side of the run history.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Summary, error)
	Get(ctx context.Context, id string) (model.AuditRun, error)
}

type Handler struct {
	auditor Auditor
	history HistoryReader
	timeout time.Duration

	// mu serializes audits; they share one browser page.
	mu sync.Mutex
}

// New builds the API handlers. history may be nil, in which case the run
// endpoints answer 404.
func New(auditor Auditor, hist HistoryReader, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Handler{auditor: auditor, history: hist, timeout: timeout}
}

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]string{"status": "ok"}, "")
}

// AuditPageHandler audits the single page given by ?url=. Optional ready
// and toggle parameters match the pages file fields.
func (h *Handler) AuditPageHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	url := q.Get("url")
	if url == "" {
		response.Error(w, http.StatusBadRequest, "missing 'url' query parameter")
		return
	}
	if !util.IsValidURL(url) {
		response.Error(w, http.StatusBadRequest, "invalid 'url' format")
		return
	}

	page := config.Page{Path: url, Name: url, Ready: "load", Toggle: q.Get("toggle")}
	if name := q.Get("name"); name != "" {
		page.Name = name
	}
	if ready := q.Get("ready"); ready != "" {
		page.Ready = ready
	}

	if run, ok := cache.GetRun(url, page.Ready, page.Toggle); ok && q.Get("fresh") == "" {
		response.Success(w, run, "cached")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	run, err := h.auditor.Run(ctx, []config.Page{page})
	if err != nil {
		log.Logger.Warn("audit request failed", zap.String("url", url), zap.Error(err))
		response.Error(w, statusFor(err), fmt.Sprintf("failed to audit page: %v", err))
		return
	}

	cache.SetRun(url, page.Ready, page.Toggle, run)
	response.Success(w, run, "")
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRunTimeout), errors.Is(err, renderer.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, service.ErrBaseUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, service.ErrRendererLaunch):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrRunCancelled):
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.Error(w, http.StatusNotFound, "run history is not enabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.Error(w, http.StatusBadRequest, "invalid 'limit'")
			return
		}
		limit = n
	}

	runs, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.Success(w, runs, "")
}

func (h *Handler) GetRunHandler(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.Error(w, http.StatusNotFound, "run history is not enabled")
		return
	}

	run, err := h.history.Get(r.Context(), chi.URLParam(r, "runID"))
	switch {
	case errors.Is(err, history.ErrRunNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case err != nil:
		response.Error(w, http.StatusInternalServerError, err.Error())
	default:
		response.Success(w, run, "")
	}
}
