package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads audit_logs. Writes happen through shared.AuditLogger only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns at most limit entries matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	where := []string{"1=1"}
	args := []any{}
	arg := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.From != nil {
		arg("occurred_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		arg("occurred_at < $%d", *filter.To)
	}
	if filter.ActorID > 0 {
		arg("actor_id = $%d", filter.ActorID)
	}
	if filter.Action != "" {
		arg("action = $%d", filter.Action)
	}
	if filter.Resource != "" {
		arg("resource = $%d", filter.Resource)
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT id, actor_id, action, resource, entity, entity_id, details, ip, result, occurred_at
		  FROM audit_logs
		 WHERE %s
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.Resource,
			&entry.Entity, &entry.EntityID, &entry.Details, &entry.IP, &entry.Result, &entry.OccurredAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
