package schema

// StatementKind classifies a provisioning statement for reporting.
type StatementKind string

// Statement kinds surfaced in the migration report.
const (
	KindTable    StatementKind = "table"
	KindColumn   StatementKind = "column"
	KindIndex    StatementKind = "index"
	KindSequence StatementKind = "sequence"
)

// Statement is a single idempotent DDL step. Object names the table, column
// (table.column), or index the statement creates so existence can be probed
// before execution.
type Statement struct {
	Kind   StatementKind
	Object string
	SQL    string
}

// Statements returns the full provisioning batch in dependency order: parent
// tables before child tables, tables before column additions and indexes.
// Every statement is safely re-runnable.
func Statements() []Statement {
	return []Statement{
		// --- parent tables ---
		{KindTable, "customers", `
			CREATE TABLE IF NOT EXISTS customers (
				id BIGSERIAL PRIMARY KEY,
				account_no TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				email TEXT NOT NULL DEFAULT '',
				address TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "service_plans", `
			CREATE TABLE IF NOT EXISTS service_plans (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'active',
				billing_cycle TEXT NOT NULL DEFAULT 'monthly',
				monthly_price NUMERIC(14,2) NOT NULL DEFAULT 0,
				setup_fee NUMERIC(14,2) NOT NULL DEFAULT 0,
				promo_price NUMERIC(14,2),
				tax_rate NUMERIC(6,3) NOT NULL DEFAULT 0,
				tax_inclusive BOOLEAN NOT NULL DEFAULT FALSE,
				speed_config JSONB NOT NULL DEFAULT '{}',
				fup_config JSONB NOT NULL DEFAULT '{}',
				qos_config JSONB NOT NULL DEFAULT '{}',
				advanced_features JSONB NOT NULL DEFAULT '{}',
				restrictions JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "expense_categories", `
			CREATE TABLE IF NOT EXISTS expense_categories (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT ''
			)`},
		{KindTable, "supplier_invoices", `
			CREATE TABLE IF NOT EXISTS supplier_invoices (
				id BIGSERIAL PRIMARY KEY,
				number TEXT NOT NULL UNIQUE,
				vendor TEXT NOT NULL,
				amount NUMERIC(14,2) NOT NULL,
				paid_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'pending',
				issue_date DATE NOT NULL,
				due_date DATE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "ledger_accounts", `
			CREATE TABLE IF NOT EXISTS ledger_accounts (
				id BIGSERIAL PRIMARY KEY,
				code TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				type TEXT NOT NULL
			)`},
		{KindTable, "users", `
			CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				email TEXT NOT NULL UNIQUE,
				name TEXT NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "roles", `
			CREATE TABLE IF NOT EXISTS roles (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				description TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},

		// --- child tables ---
		{KindTable, "customer_phone_numbers", `
			CREATE TABLE IF NOT EXISTS customer_phone_numbers (
				id BIGSERIAL PRIMARY KEY,
				customer_id BIGINT NOT NULL REFERENCES customers(id),
				phone TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT 'mobile',
				is_primary BOOLEAN NOT NULL DEFAULT FALSE
			)`},
		{KindTable, "customer_emergency_contacts", `
			CREATE TABLE IF NOT EXISTS customer_emergency_contacts (
				id BIGSERIAL PRIMARY KEY,
				customer_id BIGINT NOT NULL REFERENCES customers(id),
				name TEXT NOT NULL,
				phone TEXT NOT NULL,
				relationship TEXT NOT NULL DEFAULT ''
			)`},
		{KindTable, "billing_configs", `
			CREATE TABLE IF NOT EXISTS billing_configs (
				customer_id BIGINT PRIMARY KEY REFERENCES customers(id),
				billing_day INT NOT NULL DEFAULT 1,
				billing_cycle TEXT NOT NULL DEFAULT 'monthly',
				auto_invoice BOOLEAN NOT NULL DEFAULT TRUE,
				grace_days INT NOT NULL DEFAULT 7,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "invoices", `
			CREATE TABLE IF NOT EXISTS invoices (
				id BIGSERIAL PRIMARY KEY,
				number TEXT NOT NULL UNIQUE,
				customer_id BIGINT NOT NULL REFERENCES customers(id),
				service_plan_id BIGINT REFERENCES service_plans(id),
				subtotal NUMERIC(14,2) NOT NULL DEFAULT 0,
				tax_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
				discount NUMERIC(14,2) NOT NULL DEFAULT 0,
				total NUMERIC(14,2) NOT NULL DEFAULT 0,
				paid_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'pending',
				issue_date DATE NOT NULL,
				due_date DATE NOT NULL,
				period_start DATE,
				period_end DATE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT invoices_paid_within_total CHECK (status = 'cancelled' OR paid_amount <= total)
			)`},
		{KindTable, "invoice_lines", `
			CREATE TABLE IF NOT EXISTS invoice_lines (
				id BIGSERIAL PRIMARY KEY,
				invoice_id BIGINT NOT NULL REFERENCES invoices(id),
				description TEXT NOT NULL,
				quantity NUMERIC(10,2) NOT NULL DEFAULT 1,
				unit_price NUMERIC(14,2) NOT NULL DEFAULT 0,
				total NUMERIC(14,2) NOT NULL DEFAULT 0
			)`},
		{KindTable, "payments", `
			CREATE TABLE IF NOT EXISTS payments (
				id BIGSERIAL PRIMARY KEY,
				reference TEXT NOT NULL UNIQUE,
				customer_id BIGINT REFERENCES customers(id),
				invoice_id BIGINT REFERENCES invoices(id),
				supplier_invoice_id BIGINT REFERENCES supplier_invoices(id),
				amount NUMERIC(14,2) NOT NULL,
				method TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'completed',
				paid_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "financial_adjustments", `
			CREATE TABLE IF NOT EXISTS financial_adjustments (
				id BIGSERIAL PRIMARY KEY,
				customer_id BIGINT NOT NULL REFERENCES customers(id),
				invoice_id BIGINT REFERENCES invoices(id),
				adjustment_type TEXT NOT NULL,
				amount NUMERIC(14,2) NOT NULL,
				reason TEXT NOT NULL,
				reference TEXT,
				created_by BIGINT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "expenses", `
			CREATE TABLE IF NOT EXISTS expenses (
				id BIGSERIAL PRIMARY KEY,
				category_id BIGINT NOT NULL REFERENCES expense_categories(id),
				supplier_invoice_id BIGINT REFERENCES supplier_invoices(id),
				vendor TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL,
				amount NUMERIC(14,2) NOT NULL,
				expense_date DATE NOT NULL,
				payment_method TEXT NOT NULL DEFAULT 'bank',
				status TEXT NOT NULL DEFAULT 'paid',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "tax_records", `
			CREATE TABLE IF NOT EXISTS tax_records (
				id BIGSERIAL PRIMARY KEY,
				tax_type TEXT NOT NULL,
				period TEXT NOT NULL,
				amount_due NUMERIC(14,2) NOT NULL,
				penalty NUMERIC(14,2) NOT NULL DEFAULT 0,
				due_date DATE NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				filed_at DATE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "budgets", `
			CREATE TABLE IF NOT EXISTS budgets (
				id BIGSERIAL PRIMARY KEY,
				category_id BIGINT NOT NULL REFERENCES expense_categories(id),
				period TEXT NOT NULL,
				budgeted_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				UNIQUE (category_id, period)
			)`},
		{KindTable, "ledger_transactions", `
			CREATE TABLE IF NOT EXISTS ledger_transactions (
				id BIGSERIAL PRIMARY KEY,
				posting_id UUID NOT NULL,
				occurred_on DATE NOT NULL,
				account_id BIGINT NOT NULL REFERENCES ledger_accounts(id),
				customer_id BIGINT REFERENCES customers(id),
				debit NUMERIC(14,2) NOT NULL DEFAULT 0,
				credit NUMERIC(14,2) NOT NULL DEFAULT 0,
				memo TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				CONSTRAINT ledger_transactions_one_side CHECK (debit = 0 OR credit = 0)
			)`},
		{KindTable, "audit_logs", `
			CREATE TABLE IF NOT EXISTS audit_logs (
				id BIGSERIAL PRIMARY KEY,
				actor_id BIGINT NOT NULL DEFAULT 0,
				action TEXT NOT NULL,
				resource TEXT NOT NULL DEFAULT '',
				entity TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				details JSONB NOT NULL DEFAULT '{}',
				ip TEXT NOT NULL DEFAULT '',
				result TEXT NOT NULL DEFAULT 'ok',
				occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "idempotency_keys", `
			CREATE TABLE IF NOT EXISTS idempotency_keys (
				key TEXT PRIMARY KEY,
				module TEXT NOT NULL,
				entity_id BIGINT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`},
		{KindTable, "role_permissions", `
			CREATE TABLE IF NOT EXISTS role_permissions (
				role_id BIGINT NOT NULL REFERENCES roles(id),
				permission TEXT NOT NULL,
				PRIMARY KEY (role_id, permission)
			)`},
		{KindTable, "user_roles", `
			CREATE TABLE IF NOT EXISTS user_roles (
				user_id BIGINT NOT NULL REFERENCES users(id),
				role_id BIGINT NOT NULL REFERENCES roles(id),
				PRIMARY KEY (user_id, role_id)
			)`},

		// --- sequences ---
		{KindSequence, "invoice_number_seq", `CREATE SEQUENCE IF NOT EXISTS invoice_number_seq`},

		// --- column evolution (fields added after initial rollout) ---
		{KindColumn, "customers.portal_username", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS portal_username TEXT NOT NULL DEFAULT ''`},
		{KindColumn, "customers.connection_type", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS connection_type TEXT NOT NULL DEFAULT 'fiber'`},
		{KindColumn, "customers.gps_lat", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS gps_lat NUMERIC(9,6)`},
		{KindColumn, "customers.gps_lng", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS gps_lng NUMERIC(9,6)`},
		{KindColumn, "customers.service_plan_id", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS service_plan_id BIGINT REFERENCES service_plans(id)`},
		{KindColumn, "invoices.notes", `ALTER TABLE invoices ADD COLUMN IF NOT EXISTS notes TEXT NOT NULL DEFAULT ''`},
		{KindColumn, "expenses.receipt_no", `ALTER TABLE expenses ADD COLUMN IF NOT EXISTS receipt_no TEXT NOT NULL DEFAULT ''`},

		// --- indexes ---
		{KindIndex, "idx_invoices_customer", `CREATE INDEX IF NOT EXISTS idx_invoices_customer ON invoices (customer_id)`},
		{KindIndex, "idx_invoices_due_date", `CREATE INDEX IF NOT EXISTS idx_invoices_due_date ON invoices (due_date)`},
		{KindIndex, "idx_invoices_status", `CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices (status)`},
		{KindIndex, "idx_payments_invoice", `CREATE INDEX IF NOT EXISTS idx_payments_invoice ON payments (invoice_id)`},
		{KindIndex, "idx_payments_paid_at", `CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments (paid_at)`},
		{KindIndex, "idx_expenses_date", `CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses (expense_date)`},
		{KindIndex, "idx_tax_records_due", `CREATE INDEX IF NOT EXISTS idx_tax_records_due ON tax_records (due_date)`},
		{KindIndex, "idx_ledger_tx_account_date", `CREATE INDEX IF NOT EXISTS idx_ledger_tx_account_date ON ledger_transactions (account_id, occurred_on)`},
		{KindIndex, "idx_audit_logs_occurred", `CREATE INDEX IF NOT EXISTS idx_audit_logs_occurred ON audit_logs (occurred_at)`},
		{KindIndex, "idx_phone_numbers_customer", `CREATE INDEX IF NOT EXISTS idx_phone_numbers_customer ON customer_phone_numbers (customer_id)`},
	}
}
