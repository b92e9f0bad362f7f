package tax

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler manages tax compliance endpoints.
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

// MountRoutes registers tax routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/tax-records", h.list)
	r.Post("/tax-records", h.create)
	r.Get("/tax-records/{id}", h.get)
	r.Patch("/tax-records/{id}", h.updateStatus)
	r.Delete("/tax-records/{id}", h.delete)
	r.Get("/tax-compliance", h.compliance)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

type createRecordRequest struct {
	TaxType   string          `json:"tax_type"`
	Period    string          `json:"period"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Penalty   decimal.Decimal `json:"penalty"`
	DueDate   string          `json:"due_date"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	dueDate, err := time.Parse(dateLayout, req.DueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
		return
	}
	rec, err := h.service.Create(r.Context(), CreateRecordInput{
		TaxType: req.TaxType, Period: req.Period,
		AmountDue: req.AmountDue, Penalty: req.Penalty, DueDate: dueDate,
	})
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("create tax record", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := h.service.List(r.Context(), RecordFilter{
		TaxType: q.Get("taxType"),
		Status:  q.Get("status"),
		Period:  q.Get("period"),
	})
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("list tax records", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "data": records})
}

type updateStatusRequest struct {
	Status  string           `json:"status"`
	FiledAt string           `json:"filed_at"`
	Penalty *decimal.Decimal `json:"penalty"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	input := UpdateStatusInput{Status: req.Status, Penalty: req.Penalty}
	if req.FiledAt != "" {
		filedAt, err := time.Parse(dateLayout, req.FiledAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "filed_at must be YYYY-MM-DD")
			return
		}
		input.FiledAt = &filedAt
	}
	rec, err := h.service.UpdateStatus(r.Context(), id, input)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrConflict) && !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("update tax status", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) compliance(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.ComplianceStatus(r.Context())
	if err != nil {
		h.logger.Error("compliance status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}
