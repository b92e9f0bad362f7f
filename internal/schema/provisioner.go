// Package schema applies idempotent DDL to evolve the relational layout
// without destructive migration. Statements run in dependency order; the first
// failure aborts the batch and the report records how far the run got, since
// the engine offers no transactional DDL guarantee across the whole batch.
package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the provisioner needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Report summarises a provisioning run.
type Report struct {
	Success          bool   `json:"success"`
	TablesUpdated    int    `json:"tablesUpdated"`
	FieldsAdded      int    `json:"fieldsAdded"`
	IndexesCreated   int    `json:"indexesCreated"`
	SequencesCreated int    `json:"sequencesCreated"`
	StatementsRun    int    `json:"statementsRun"`
	FailedStatement  string `json:"failedStatement,omitempty"`
}

// Provisioner runs the DDL batch.
type Provisioner struct {
	db         DB
	statements []Statement
}

// NewProvisioner builds a provisioner over the default statement set.
func NewProvisioner(db DB) *Provisioner {
	return &Provisioner{db: db, statements: Statements()}
}

// NewProvisionerWithStatements is used by tests to inject a custom batch.
func NewProvisionerWithStatements(db DB, statements []Statement) *Provisioner {
	return &Provisioner{db: db, statements: statements}
}

// Run executes the batch in order. Counters reflect objects that actually came
// into existence during this run, so a second run reports zeros across the
// board while still succeeding.
func (p *Provisioner) Run(ctx context.Context) (Report, error) {
	var report Report
	for _, stmt := range p.statements {
		existed, err := p.exists(ctx, stmt)
		if err != nil {
			report.FailedStatement = stmt.Object
			return report, fmt.Errorf("schema: probe %s: %w", stmt.Object, err)
		}
		if _, err := p.db.Exec(ctx, stmt.SQL); err != nil {
			report.FailedStatement = stmt.Object
			return report, fmt.Errorf("schema: apply %s (after %d statements): %w", stmt.Object, report.StatementsRun, err)
		}
		report.StatementsRun++
		if existed {
			continue
		}
		switch stmt.Kind {
		case KindTable:
			report.TablesUpdated++
		case KindColumn:
			report.FieldsAdded++
		case KindIndex:
			report.IndexesCreated++
		case KindSequence:
			report.SequencesCreated++
		}
	}
	report.Success = true
	return report, nil
}

func (p *Provisioner) exists(ctx context.Context, stmt Statement) (bool, error) {
	switch stmt.Kind {
	case KindTable, KindIndex, KindSequence:
		var found bool
		err := p.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, stmt.Object).Scan(&found)
		return found, err
	case KindColumn:
		table, column, ok := strings.Cut(stmt.Object, ".")
		if !ok {
			return false, fmt.Errorf("column object %q must be table.column", stmt.Object)
		}
		var found bool
		err := p.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = $1 AND column_name = $2)`,
			table, column).Scan(&found)
		return found, err
	default:
		return false, fmt.Errorf("unknown statement kind %q", stmt.Kind)
	}
}
