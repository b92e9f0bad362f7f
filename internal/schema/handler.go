package schema

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// Handler exposes the administrative one-shot migration trigger.
type Handler struct {
	logger      *slog.Logger
	provisioner *Provisioner
	audit       *shared.AuditLogger
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, provisioner *Provisioner, audit *shared.AuditLogger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, provisioner: provisioner, audit: audit}
}

// MountRoutes registers schema administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Post("/migrate", h.handleMigrate)
}

func (h *Handler) handleMigrate(w http.ResponseWriter, r *http.Request) {
	report, err := h.provisioner.Run(r.Context())
	actor := shared.ActorFromContext(r.Context())
	if h.audit != nil {
		result := "ok"
		if err != nil {
			result = "failed"
		}
		auditErr := h.audit.Record(r.Context(), shared.AuditLog{
			ActorID:  actor.ID,
			Action:   shared.AuditUpdate,
			Resource: "schema",
			Entity:   "schema",
			EntityID: "migration",
			Details: map[string]any{
				"tablesUpdated":  report.TablesUpdated,
				"fieldsAdded":    report.FieldsAdded,
				"indexesCreated": report.IndexesCreated,
				"statementsRun":  report.StatementsRun,
			},
			IP:     actor.IP,
			Result: result,
		})
		if auditErr != nil {
			h.logger.Warn("audit schema migration", slog.Any("error", auditErr))
		}
	}
	if err != nil {
		h.logger.Error("schema migration", slog.Any("error", err),
			slog.String("failed_statement", report.FailedStatement),
			slog.Int("succeeded", report.StatementsRun))
		httpx.JSON(w, http.StatusInternalServerError, map[string]any{
			"success":         false,
			"error":           fmt.Sprintf("statement %s failed after %d succeeded", report.FailedStatement, report.StatementsRun),
			"failedStatement": report.FailedStatement,
			"statementsRun":   report.StatementsRun,
		})
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
