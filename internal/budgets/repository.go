package budgets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository provides PostgreSQL backed persistence for budgets.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound is returned when a budget does not exist.
var ErrNotFound = errors.New("budgets: not found")

// Upsert sets the plan for one category and period.
func (r *Repository) Upsert(ctx context.Context, input UpsertBudgetInput) (*Budget, error) {
	var b Budget
	err := r.pool.QueryRow(ctx,
		`INSERT INTO budgets (category_id, period, budgeted_amount)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (category_id, period) DO UPDATE SET
			budgeted_amount = EXCLUDED.budgeted_amount,
			updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		input.CategoryID, input.Period, input.BudgetedAmount,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("budgets: upsert: %w", err)
	}
	b.CategoryID = input.CategoryID
	b.Period = input.Period
	b.BudgetedAmount = input.BudgetedAmount
	return &b, nil
}

// ListByPeriod returns all budgets for a period with category names.
func (r *Repository) ListByPeriod(ctx context.Context, period string) ([]Budget, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT b.id, b.category_id, c.name, b.period, b.budgeted_amount, b.created_at, b.updated_at
		 FROM budgets b JOIN expense_categories c ON c.id = b.category_id
		 WHERE b.period = $1 ORDER BY c.name`, period)
	if err != nil {
		return nil, fmt.Errorf("budgets: list: %w", err)
	}
	defer rows.Close()

	budgets := make([]Budget, 0)
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.CategoryName, &b.Period,
			&b.BudgetedAmount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

// Delete removes a budget row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM budgets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("budgets: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ActualsByCategory sums paid expenses per category for a period. The period
// key matches the budgets table, YYYY-MM.
func (r *Repository) ActualsByCategory(ctx context.Context, period string) (map[int64]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id, COALESCE(SUM(amount), 0)
		 FROM expenses
		 WHERE to_char(expense_date, 'YYYY-MM') = $1
		 GROUP BY category_id`, period)
	if err != nil {
		return nil, fmt.Errorf("budgets: actuals: %w", err)
	}
	defer rows.Close()

	actuals := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var categoryID int64
		var total decimal.Decimal
		if err := rows.Scan(&categoryID, &total); err != nil {
			return nil, err
		}
		actuals[categoryID] = total
	}
	return actuals, rows.Err()
}
