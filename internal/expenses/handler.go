package expenses

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

// Handler manages expense and accounts payable endpoints.
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

// MountRoutes registers expense routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
	r.Get("/", h.listExpenses)
	r.Post("/", h.createExpense)
	r.Get("/{id}", h.getExpense)
	r.Put("/{id}", h.updateExpense)
	r.Delete("/{id}", h.deleteExpense)
	r.Get("/supplier-invoices", h.listSupplierInvoices)
	r.Post("/supplier-invoices", h.createSupplierInvoice)
	r.Post("/supplier-invoices/{id}/payments", h.paySupplierInvoice)
	r.Get("/payables", h.payables)
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("list categories", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"categories": categories})
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	cat, err := h.service.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, cat)
}

type expenseRequest struct {
	CategoryID        int64           `json:"category_id"`
	SupplierInvoiceID *int64          `json:"supplier_invoice_id"`
	Vendor            string          `json:"vendor"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	ExpenseDate       string          `json:"expense_date"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	ReceiptNo         string          `json:"receipt_no"`
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	expenseDate, err := parseDate(req.ExpenseDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expense_date must be YYYY-MM-DD")
		return
	}
	exp, err := h.service.CreateExpense(r.Context(), CreateExpenseInput{
		CategoryID:        req.CategoryID,
		SupplierInvoiceID: req.SupplierInvoiceID,
		Vendor:            req.Vendor,
		Description:       req.Description,
		Amount:            req.Amount,
		ExpenseDate:       expenseDate,
		PaymentMethod:     req.PaymentMethod,
		Status:            req.Status,
		ReceiptNo:         req.ReceiptNo,
	})
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("create expense", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, exp)
}

func (h *Handler) getExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	exp, err := h.service.GetExpense(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ExpenseFilter{Status: q.Get("status")}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "categoryId must be numeric")
			return
		}
		filter.CategoryID = id
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

	expensesList, err := h.service.ListExpenses(r.Context(), filter)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("list expenses", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"expenses": expensesList})
}

type updateExpenseRequest struct {
	CategoryID    *int64           `json:"category_id"`
	Vendor        *string          `json:"vendor"`
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	ExpenseDate   *string          `json:"expense_date"`
	PaymentMethod *string          `json:"payment_method"`
	Status        *string          `json:"status"`
	ReceiptNo     *string          `json:"receipt_no"`
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	var req updateExpenseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	input := UpdateExpenseInput{
		CategoryID:    req.CategoryID,
		Vendor:        req.Vendor,
		Description:   req.Description,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Status:        req.Status,
		ReceiptNo:     req.ReceiptNo,
	}
	if req.ExpenseDate != nil {
		date, err := time.Parse(dateLayout, *req.ExpenseDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expense_date must be YYYY-MM-DD")
			return
		}
		input.ExpenseDate = &date
	}
	exp, err := h.service.UpdateExpense(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, exp)
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid expense id")
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type supplierInvoiceRequest struct {
	Number    string          `json:"number"`
	Vendor    string          `json:"vendor"`
	Amount    decimal.Decimal `json:"amount"`
	IssueDate string          `json:"issue_date"`
	DueDate   string          `json:"due_date"`
}

func (h *Handler) createSupplierInvoice(w http.ResponseWriter, r *http.Request) {
	var req supplierInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	issueDate, err := parseDate(req.IssueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "issue_date must be YYYY-MM-DD")
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "due_date must be YYYY-MM-DD")
		return
	}
	si, err := h.service.CreateSupplierInvoice(r.Context(), CreateSupplierInvoiceInput{
		Number: req.Number, Vendor: req.Vendor, Amount: req.Amount,
		IssueDate: issueDate, DueDate: dueDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, si)
}

func (h *Handler) listSupplierInvoices(w http.ResponseWriter, r *http.Request) {
	unpaidOnly := r.URL.Query().Get("unpaid") == "true"
	invoices, err := h.service.ListSupplierInvoices(r.Context(), unpaidOnly)
	if err != nil {
		h.logger.Error("list supplier invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"supplier_invoices": invoices})
}

type supplierPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt string          `json:"paid_at"`
}

func (h *Handler) paySupplierInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier invoice id")
		return
	}
	var req supplierPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	var paidAt time.Time
	if req.PaidAt != "" {
		var err error
		if paidAt, err = time.Parse(time.RFC3339, req.PaidAt); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "paid_at must be RFC3339")
			return
		}
	}
	si, err := h.service.PaySupplierInvoice(r.Context(), id, req.Amount, req.Method, paidAt)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, si)
}

func (h *Handler) payables(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Payables(r.Context())
	if err != nil {
		h.logger.Error("payables", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}
