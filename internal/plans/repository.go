package plans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for service plans. The
// nested configs live in JSONB columns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound is returned when a plan does not exist.
var ErrNotFound = errors.New("plans: not found")

const planColumns = `id, name, description, status, billing_cycle, monthly_price, setup_fee,
	promo_price, tax_rate, tax_inclusive, speed_config, fup_config, qos_config,
	advanced_features, restrictions, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	var speed, fup, qos, advanced, restrictions []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &p.BillingCycle,
		&p.MonthlyPrice, &p.SetupFee, &p.PromoPrice, &p.TaxRate, &p.TaxInclusive,
		&speed, &fup, &qos, &advanced, &restrictions, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for _, pair := range []struct {
		raw []byte
		dst any
	}{
		{speed, &p.Speed},
		{fup, &p.FUP},
		{qos, &p.QoS},
		{advanced, &p.Advanced},
		{restrictions, &p.Restrictions},
	} {
		if len(pair.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("plans: decode config: %w", err)
		}
	}
	return &p, nil
}

func marshalConfigs(p *Plan) (speed, fup, qos, advanced, restrictions []byte, err error) {
	if speed, err = json.Marshal(p.Speed); err != nil {
		return
	}
	if fup, err = json.Marshal(p.FUP); err != nil {
		return
	}
	if qos, err = json.Marshal(p.QoS); err != nil {
		return
	}
	if advanced, err = json.Marshal(p.Advanced); err != nil {
		return
	}
	restrictions, err = json.Marshal(p.Restrictions)
	return
}

// Create inserts a plan.
func (r *Repository) Create(ctx context.Context, p *Plan) (*Plan, error) {
	p.stampVersions()
	speed, fup, qos, advanced, restrictions, err := marshalConfigs(p)
	if err != nil {
		return nil, err
	}
	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO service_plans (name, description, status, billing_cycle, monthly_price,
			setup_fee, promo_price, tax_rate, tax_inclusive, speed_config, fup_config,
			qos_config, advanced_features, restrictions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		p.Name, p.Description, p.Status, p.BillingCycle, p.MonthlyPrice, p.SetupFee,
		p.PromoPrice, p.TaxRate, p.TaxInclusive, speed, fup, qos, advanced, restrictions).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("plans: insert: %w", err)
	}
	return r.Get(ctx, id)
}

// Get fetches one plan.
func (r *Repository) Get(ctx context.Context, id int64) (*Plan, error) {
	return scanPlan(r.pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM service_plans WHERE id = $1`, id))
}

// List returns plans, optionally only active ones.
func (r *Repository) List(ctx context.Context, activeOnly bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM service_plans`
	if activeOnly {
		query += ` WHERE status = 'active'`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("plans: list: %w", err)
	}
	defer rows.Close()

	plansList := make([]Plan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plansList = append(plansList, *p)
	}
	return plansList, rows.Err()
}

// Update replaces a plan's fields and configs.
func (r *Repository) Update(ctx context.Context, id int64, p *Plan) (*Plan, error) {
	p.stampVersions()
	speed, fup, qos, advanced, restrictions, err := marshalConfigs(p)
	if err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE service_plans SET name = $2, description = $3, status = $4, billing_cycle = $5,
			monthly_price = $6, setup_fee = $7, promo_price = $8, tax_rate = $9,
			tax_inclusive = $10, speed_config = $11, fup_config = $12, qos_config = $13,
			advanced_features = $14, restrictions = $15, updated_at = NOW()
		 WHERE id = $1`,
		id, p.Name, p.Description, p.Status, p.BillingCycle, p.MonthlyPrice, p.SetupFee,
		p.PromoPrice, p.TaxRate, p.TaxInclusive, speed, fup, qos, advanced, restrictions)
	if err != nil {
		return nil, fmt.Errorf("plans: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetStatus toggles a plan without touching its configuration.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE service_plans SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("plans: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
