package finance

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// Handler manages the finance report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers finance report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/dashboard", h.dashboard)
	r.Post("/revenue", h.revenue)
	r.Get("/cashflow", h.cashflow)
}

type rangeRequest struct {
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	Granularity string `json:"granularity"`
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	rng, err := ParseRange(req.DateFrom, req.DateTo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), rng)
	if err != nil {
		h.logger.Error("finance dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": dashboard})
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	rng, err := ParseRange(req.DateFrom, req.DateTo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.Revenue(r.Context(), rng, req.Granularity)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("finance revenue", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": report})
}

func (h *Handler) cashflow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := ParseRange(q.Get("startDate"), q.Get("endDate"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.CashflowReport(r.Context(), rng)
	if err != nil {
		h.logger.Error("finance cashflow", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": report})
}
