package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for subscriber accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound is returned when a customer does not exist.
var ErrNotFound = errors.New("customers: not found")

const customerColumns = `id, account_no, name, email, address, status, portal_username,
	connection_type, gps_lat, gps_lng, service_plan_id, created_at, updated_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.AccountNo, &c.Name, &c.Email, &c.Address, &c.Status,
		&c.PortalUsername, &c.ConnectionType, &c.GPSLat, &c.GPSLng, &c.ServicePlanID,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a customer with its phone numbers.
func (r *Repository) Create(ctx context.Context, accountNo string, input CreateCustomerInput) (*Customer, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (account_no, name, email, address, portal_username,
			connection_type, gps_lat, gps_lng, service_plan_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		accountNo, input.Name, input.Email, input.Address, input.PortalUsername,
		input.ConnectionType, input.GPSLat, input.GPSLng, input.ServicePlanID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("customers: insert: %w", err)
	}
	for _, phone := range input.PhoneNumbers {
		if _, err := r.AddPhoneNumber(ctx, id, phone); err != nil {
			return nil, err
		}
	}
	return r.Get(ctx, id)
}

// Get fetches one customer with contact details.
func (r *Repository) Get(ctx context.Context, id int64) (*Customer, error) {
	c, err := scanCustomer(r.pool.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_id, phone, label, is_primary
		 FROM customer_phone_numbers WHERE customer_id = $1 ORDER BY is_primary DESC, id`, id)
	if err != nil {
		return nil, fmt.Errorf("customers: phone numbers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p PhoneNumber
		if err := rows.Scan(&p.ID, &p.CustomerID, &p.Phone, &p.Label, &p.IsPrimary); err != nil {
			return nil, err
		}
		c.PhoneNumbers = append(c.PhoneNumbers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	contacts, err := r.pool.Query(ctx,
		`SELECT id, customer_id, name, phone, relationship
		 FROM customer_emergency_contacts WHERE customer_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("customers: emergency contacts: %w", err)
	}
	defer contacts.Close()
	for contacts.Next() {
		var ec EmergencyContact
		if err := contacts.Scan(&ec.ID, &ec.CustomerID, &ec.Name, &ec.Phone, &ec.Relationship); err != nil {
			return nil, err
		}
		c.EmergencyContacts = append(c.EmergencyContacts, ec)
	}
	return c, contacts.Err()
}

// List returns customers matching the filter.
func (r *Repository) List(ctx context.Context, filter CustomerFilter) ([]Customer, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(filter.Status))
	}
	if filter.ConnectionType != "" {
		conditions = append(conditions, "connection_type = "+arg(filter.ConnectionType))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		p := arg(pattern)
		conditions = append(conditions, "(name ILIKE "+p+" OR account_no ILIKE "+p+" OR email ILIKE "+p+")")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE `+strings.Join(conditions, " AND ")+
			` ORDER BY name LIMIT `+arg(limit)+` OFFSET `+arg(filter.Offset), args...)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()

	out := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields and returns the updated row.
func (r *Repository) Update(ctx context.Context, id int64, input UpdateCustomerInput) (*Customer, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if input.Name != nil {
		set("name", *input.Name)
	}
	if input.Email != nil {
		set("email", *input.Email)
	}
	if input.Address != nil {
		set("address", *input.Address)
	}
	if input.Status != nil {
		set("status", *input.Status)
	}
	if input.PortalUsername != nil {
		set("portal_username", *input.PortalUsername)
	}
	if input.ConnectionType != nil {
		set("connection_type", *input.ConnectionType)
	}
	if input.GPSLat != nil {
		set("gps_lat", *input.GPSLat)
	}
	if input.GPSLng != nil {
		set("gps_lng", *input.GPSLng)
	}
	if input.ServicePlanID != nil {
		set("service_plan_id", *input.ServicePlanID)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Deactivate soft-deletes by flipping status, history stays queryable.
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET status = $2, updated_at = NOW() WHERE id = $1`, id, StatusInactive)
	if err != nil {
		return fmt.Errorf("customers: deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPhoneNumber attaches a contact number; a new primary demotes the old one.
func (r *Repository) AddPhoneNumber(ctx context.Context, customerID int64, phone PhoneNumber) (*PhoneNumber, error) {
	if phone.IsPrimary {
		if _, err := r.pool.Exec(ctx,
			`UPDATE customer_phone_numbers SET is_primary = FALSE WHERE customer_id = $1`, customerID); err != nil {
			return nil, fmt.Errorf("customers: demote primary: %w", err)
		}
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customer_phone_numbers (customer_id, phone, label, is_primary)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		customerID, phone.Phone, phone.Label, phone.IsPrimary).Scan(&phone.ID)
	if err != nil {
		return nil, fmt.Errorf("customers: add phone: %w", err)
	}
	phone.CustomerID = customerID
	return &phone, nil
}

// RemovePhoneNumber detaches a contact number.
func (r *Repository) RemovePhoneNumber(ctx context.Context, customerID, phoneID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM customer_phone_numbers WHERE id = $1 AND customer_id = $2`, phoneID, customerID)
	if err != nil {
		return fmt.Errorf("customers: remove phone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEmergencyContact attaches an out-of-band contact.
func (r *Repository) AddEmergencyContact(ctx context.Context, customerID int64, contact EmergencyContact) (*EmergencyContact, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customer_emergency_contacts (customer_id, name, phone, relationship)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		customerID, contact.Name, contact.Phone, contact.Relationship).Scan(&contact.ID)
	if err != nil {
		return nil, fmt.Errorf("customers: add emergency contact: %w", err)
	}
	contact.CustomerID = customerID
	return &contact, nil
}

// RemoveEmergencyContact detaches an out-of-band contact.
func (r *Repository) RemoveEmergencyContact(ctx context.Context, customerID, contactID int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM customer_emergency_contacts WHERE id = $1 AND customer_id = $2`, contactID, customerID)
	if err != nil {
		return fmt.Errorf("customers: remove emergency contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextAccountNo allocates a subscriber account number.
func (r *Repository) NextAccountNo(ctx context.Context) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("ACC-%s-%05d", time.Now().UTC().Format("2006"), count+1), nil
}
