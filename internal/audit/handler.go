package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
)

// Handler serves the audit trail listing.
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

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Action:   strings.ToUpper(strings.TrimSpace(q.Get("action"))),
		Resource: q.Get("resource"),
	}
	if raw := q.Get("actorId"); raw != "" {
		filter.ActorID, _ = strconv.ParseInt(raw, 10, 64)
	}
	if raw := q.Get("startDate"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "startDate must be YYYY-MM-DD")
			return
		}
		filter.From = &from
	}
	if raw := q.Get("endDate"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "endDate must be YYYY-MM-DD")
			return
		}
		// endDate is inclusive; the repository filters with occurred_at < $to.
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}
	if raw := q.Get("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("pageSize"); raw != "" {
		filter.PageSize, _ = strconv.Atoi(raw)
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
