package schema

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	_ "github.com/fiberdesk/fiberdesk/testing"
)

// fakeDB simulates a catalog: objects exist once their statement ran.
type fakeDB struct {
	existing map[string]bool
	probed   string
	execs    []string
	failOn   string
}

type fakeRow struct {
	found bool
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if b, ok := dest[0].(*bool); ok {
		*b = r.found
	}
	return nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, sql)
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	f.existing[f.probed] = true
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	name, _ := args[0].(string)
	if len(args) == 2 {
		table, _ := args[0].(string)
		column, _ := args[1].(string)
		name = table + "." + column
	}
	f.probed = name
	return fakeRow{found: f.existing[name]}
}

func newFakeDB() *fakeDB {
	return &fakeDB{existing: map[string]bool{}}
}

func TestStatementsDependencyOrder(t *testing.T) {
	created := map[string]bool{}
	for _, stmt := range Statements() {
		switch stmt.Kind {
		case KindTable:
			// Every referenced parent must already be declared.
			for _, ref := range referencedTables(stmt.SQL) {
				if ref == stmt.Object {
					continue
				}
				require.Truef(t, created[ref], "table %s references %s before it exists", stmt.Object, ref)
			}
			created[stmt.Object] = true
		case KindColumn:
			table, _, ok := strings.Cut(stmt.Object, ".")
			require.True(t, ok)
			require.Truef(t, created[table], "column %s added before table %s", stmt.Object, table)
		case KindIndex:
			require.Contains(t, stmt.SQL, "IF NOT EXISTS")
		}
	}
}

func referencedTables(sql string) []string {
	var refs []string
	rest := sql
	for {
		idx := strings.Index(rest, "REFERENCES ")
		if idx < 0 {
			return refs
		}
		rest = rest[idx+len("REFERENCES "):]
		end := strings.IndexAny(rest, "(")
		if end < 0 {
			return refs
		}
		refs = append(refs, strings.TrimSpace(rest[:end]))
	}
}

func TestStatementsAreRerunnable(t *testing.T) {
	for _, stmt := range Statements() {
		require.Containsf(t, stmt.SQL, "IF NOT EXISTS", "statement %s is not idempotent", stmt.Object)
	}
}

func TestRunCountsNewObjectsOnly(t *testing.T) {
	db := newFakeDB()
	p := NewProvisioner(db)

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, first.Success)
	require.Equal(t, len(Statements()), first.StatementsRun)
	require.Positive(t, first.TablesUpdated)
	require.Positive(t, first.FieldsAdded)
	require.Positive(t, first.IndexesCreated)
	require.Positive(t, first.SequencesCreated)

	// Second run: everything exists already, nothing is created, no errors.
	second, err := p.Run(context.Background())
	require.NoError(t, err)
	require.True(t, second.Success)
	require.Zero(t, second.TablesUpdated)
	require.Zero(t, second.FieldsAdded)
	require.Zero(t, second.IndexesCreated)
	require.Zero(t, second.SequencesCreated)
}

func TestStatementsIncludeInvoiceNumberSequence(t *testing.T) {
	var found bool
	for _, stmt := range Statements() {
		if stmt.Kind == KindSequence && stmt.Object == "invoice_number_seq" {
			found = true
			require.Contains(t, stmt.SQL, "CREATE SEQUENCE IF NOT EXISTS invoice_number_seq")
		}
	}
	require.True(t, found, "invoice number sequence missing from the batch")
}

func TestRunAbortsOnFirstFailure(t *testing.T) {
	db := newFakeDB()
	db.failOn = "CREATE TABLE IF NOT EXISTS invoices"
	p := NewProvisioner(db)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	require.False(t, report.Success)
	require.Equal(t, "invoices", report.FailedStatement)
	require.Positive(t, report.StatementsRun, "statements before the failure must be reported")
	require.Less(t, report.StatementsRun, len(Statements()))
}
