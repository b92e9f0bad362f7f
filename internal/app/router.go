package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fiberdesk/fiberdesk/internal/audit"
	"github.com/fiberdesk/fiberdesk/internal/billing"
	"github.com/fiberdesk/fiberdesk/internal/budgets"
	"github.com/fiberdesk/fiberdesk/internal/customers"
	"github.com/fiberdesk/fiberdesk/internal/expenses"
	"github.com/fiberdesk/fiberdesk/internal/finance"
	"github.com/fiberdesk/fiberdesk/internal/ledger"
	"github.com/fiberdesk/fiberdesk/internal/observability"
	"github.com/fiberdesk/fiberdesk/internal/plans"
	"github.com/fiberdesk/fiberdesk/internal/reports"
	"github.com/fiberdesk/fiberdesk/internal/roles"
	"github.com/fiberdesk/fiberdesk/internal/schema"
	"github.com/fiberdesk/fiberdesk/internal/tax"
	"github.com/fiberdesk/fiberdesk/internal/users"
	"github.com/fiberdesk/fiberdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	FinanceHandler   *finance.Handler
	ReportsHandler   *reports.Handler
	BillingHandler   *billing.Handler
	ExpensesHandler  *expenses.Handler
	TaxHandler       *tax.Handler
	BudgetsHandler   *budgets.Handler
	CustomersHandler *customers.Handler
	PlansHandler     *plans.Handler
	LedgerHandler    *ledger.Handler
	SchemaHandler    *schema.Handler
	UsersHandler     *users.Handler
	RolesHandler     *roles.Handler
	AuditHandler     *audit.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with FiberDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}
	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/finance", func(r chi.Router) {
		if params.FinanceHandler != nil {
			params.FinanceHandler.MountRoutes(r)
		}
		if params.ReportsHandler != nil {
			params.ReportsHandler.MountRoutes(r)
		}
		if params.TaxHandler != nil {
			params.TaxHandler.MountRoutes(r)
		}
		if params.LedgerHandler != nil {
			params.LedgerHandler.MountReportRoutes(r)
		}
		if params.ExpensesHandler != nil {
			r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		}
		if params.BudgetsHandler != nil {
			r.Route("/budgets", params.BudgetsHandler.MountRoutes)
		}
	})

	if params.BillingHandler != nil {
		params.BillingHandler.MountRoutes(r)
	}
	r.Route("/customers", func(r chi.Router) {
		if params.CustomersHandler != nil {
			params.CustomersHandler.MountRoutes(r)
		}
		if params.BillingHandler != nil {
			params.BillingHandler.MountCustomerRoutes(r)
		}
	})
	if params.PlansHandler != nil {
		r.Route("/services", params.PlansHandler.MountRoutes)
	}
	if params.LedgerHandler != nil {
		r.Route("/ledger", params.LedgerHandler.MountRoutes)
	}
	if params.SchemaHandler != nil {
		r.Route("/admin/schema", params.SchemaHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
