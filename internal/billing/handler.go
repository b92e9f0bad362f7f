package billing

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

// Handler manages invoice, payment and adjustment endpoints.
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

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/invoices", h.listInvoices)
	r.Post("/invoices", h.createInvoice)
	r.Get("/invoices/{id}", h.getInvoice)
}

// MountCustomerRoutes registers the per-customer finance routes. The caller
// mounts these inside the /customers subrouter.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/{id}/finance/payments", h.listPayments)
	r.Post("/{id}/finance/payments", h.recordPayment)
	r.Post("/{id}/finance/adjustments", h.recordAdjustment)
	r.Get("/{id}/billing-config", h.getBillingConfig)
	r.Put("/{id}/billing-config", h.updateBillingConfig)
}

func customerID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := InvoiceFilter{Status: q.Get("status")}
	if raw := q.Get("customerId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "customerId must be numeric")
			return
		}
		filter.CustomerID = id
	}
	var err error
	if filter.From, err = parseDate(q.Get("dateFrom")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateFrom must be YYYY-MM-DD")
		return
	}
	if filter.To, err = parseDate(q.Get("dateTo")); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "dateTo must be YYYY-MM-DD")
		return
	}
	if raw := q.Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}

	invoices, err := h.service.ListInvoices(r.Context(), filter)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("list invoices", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var input CreateInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("create invoice", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid invoice id")
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

type paymentRequest struct {
	InvoiceID *int64          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	PaidAt    string          `json:"paid_at"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	var req paymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	var paidAt time.Time
	if req.PaidAt != "" {
		var err error
		if paidAt, err = time.Parse(time.RFC3339, req.PaidAt); err != nil {
			if paidAt, err = time.Parse(dateLayout, req.PaidAt); err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paid_at must be RFC3339 or YYYY-MM-DD")
				return
			}
		}
	}

	payment, err := h.service.RecordPayment(r.Context(), r.Header.Get("Idempotency-Key"), CreatePaymentInput{
		CustomerID: custID,
		InvoiceID:  req.InvoiceID,
		Amount:     req.Amount,
		Method:     req.Method,
		Reference:  req.Reference,
		PaidAt:     paidAt,
	})
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrConflict) {
			h.logger.Error("record payment", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	payments, err := h.service.ListPayments(r.Context(), custID)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

type adjustmentRequest struct {
	InvoiceID *int64          `json:"invoice_id"`
	Type      string          `json:"adjustment_type"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference_number"`
}

func (h *Handler) recordAdjustment(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	var req adjustmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	adj, err := h.service.RecordAdjustment(r.Context(), r.Header.Get("Idempotency-Key"), CreateAdjustmentInput{
		CustomerID: custID,
		InvoiceID:  req.InvoiceID,
		Type:       req.Type,
		Amount:     req.Amount,
		Reason:     req.Reason,
		Reference:  req.Reference,
	})
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) && !errors.Is(err, shared.ErrConflict) {
			h.logger.Error("record adjustment", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, adj)
}

type billingConfigRequest struct {
	BillingDay   int    `json:"billing_day"`
	BillingCycle string `json:"billing_cycle"`
	AutoInvoice  bool   `json:"auto_invoice"`
	GraceDays    int    `json:"grace_days"`
}

func (h *Handler) updateBillingConfig(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	var req billingConfigRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	cfg, err := h.service.UpdateBillingConfig(r.Context(), BillingConfig{
		CustomerID:   custID,
		BillingDay:   req.BillingDay,
		BillingCycle: req.BillingCycle,
		AutoInvoice:  req.AutoInvoice,
		GraceDays:    req.GraceDays,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func (h *Handler) getBillingConfig(w http.ResponseWriter, r *http.Request) {
	custID, ok := customerID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid customer id")
		return
	}
	cfg, err := h.service.GetBillingConfig(r.Context(), custID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}
