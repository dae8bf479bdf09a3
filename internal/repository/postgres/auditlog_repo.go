// internal/repository/postgres/auditlog_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/auditlog"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditLogRepository struct {
	db *pgxpool.Pool
}

func NewAuditLogRepository(db *pgxpool.Pool) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, e *auditlog.Entry) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO logs (user_id, action, content) VALUES ($1, $2, $3) RETURNING id, created_at`,
		e.UserID, e.Action, e.Content,
	).Scan(&e.ID, &e.CreatedAt)
	return wrapErr(err, "write audit log")
}

func (r *AuditLogRepository) Latest(ctx context.Context, limit int) ([]*auditlog.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id::text, action, content, created_at FROM logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr(err, "list audit logs")
	}
	defer rows.Close()

	entries := []*auditlog.Entry{}
	for rows.Next() {
		var e auditlog.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
