package reports

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// Handler serves the financial report export endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers export routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/reports/export", h.export)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var in ExportInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}

	out, err := h.service.Export(r.Context(), in)
	if err != nil {
		if !errors.Is(err, shared.ErrValidation) {
			h.logger.Error("report export failed", "type", in.ReportType, "format", in.Format, "error", err)
		}
		httpx.RespondError(w, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", out.Filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}
