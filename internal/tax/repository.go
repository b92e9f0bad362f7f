package tax

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for tax records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("tax: record not found")

// Overdue is derived against the due date so a pending record flips the day
// after its deadline without a background writer.
const derivedStatusExpr = `CASE WHEN status = 'pending' AND due_date < CURRENT_DATE THEN 'overdue' ELSE status END`

const recordColumns = `id, tax_type, period, amount_due, penalty, due_date, ` +
	derivedStatusExpr + ` AS status, filed_at, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.TaxType, &rec.Period, &rec.AmountDue, &rec.Penalty,
		&rec.DueDate, &rec.Status, &rec.FiledAt, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Create inserts a tax record as pending.
func (r *Repository) Create(ctx context.Context, input CreateRecordInput) (*Record, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tax_records (tax_type, period, amount_due, penalty, due_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		input.TaxType, input.Period, input.AmountDue, input.Penalty, input.DueDate).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("tax: insert: %w", err)
	}
	return r.Get(ctx, id)
}

// Get fetches one record.
func (r *Repository) Get(ctx context.Context, id int64) (*Record, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM tax_records WHERE id = $1`, id))
}

// List returns records matching the filter, soonest deadline first.
func (r *Repository) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.TaxType != "" {
		conditions = append(conditions, "tax_type = "+arg(filter.TaxType))
	}
	if filter.Status != "" {
		conditions = append(conditions, derivedStatusExpr+" = "+arg(filter.Status))
	}
	if filter.Period != "" {
		conditions = append(conditions, "period = "+arg(filter.Period))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM tax_records WHERE `+
			strings.Join(conditions, " AND ")+` ORDER BY due_date, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("tax: list: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateStatus moves the record through its lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*Record, error) {
	sets := []string{"status = $2", "updated_at = NOW()"}
	args := []any{id, input.Status}
	if input.FiledAt != nil {
		args = append(args, *input.FiledAt)
		sets = append(sets, fmt.Sprintf("filed_at = $%d", len(args)))
	}
	if input.Penalty != nil {
		args = append(args, *input.Penalty)
		sets = append(sets, fmt.Sprintf("penalty = $%d", len(args)))
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE tax_records SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("tax: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Delete removes a record.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tax_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("tax: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// OpenObligations returns records still owed.
func (r *Repository) OpenObligations(ctx context.Context) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM tax_records
		 WHERE status IN ('pending', 'overdue') OR (status = 'filed' AND filed_at IS NULL)
		 ORDER BY due_date, id`)
	if err != nil {
		return nil, fmt.Errorf("tax: open obligations: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// MarkOverdue promotes pending records past their due date to the stored
// overdue status. Unlike invoices, tax status is an explicit workflow state, so
// the scan persists it.
func (r *Repository) MarkOverdue(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tax_records SET status = 'overdue', updated_at = NOW()
		  WHERE status = 'pending' AND due_date < CURRENT_DATE`)
	if err != nil {
		return 0, fmt.Errorf("tax: mark overdue: %w", err)
	}
	return tag.RowsAffected(), nil
}
