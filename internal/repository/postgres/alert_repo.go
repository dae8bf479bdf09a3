// internal/repository/postgres/alert_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/alert"
	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const alertColumns = `id, title, content, alert_level, created_at, updated_at, deleted_at`

type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{db: db}
}

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var a alert.Alert
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.AlertLevel, &a.CreatedAt, &a.UpdatedAt, &a.DeletedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepository) Create(ctx context.Context, a *alert.Alert) error {
	query := `
		INSERT INTO alert (title, content, alert_level)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, a.Title, a.Content, a.AlertLevel).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return wrapErr(err, "create alert")
}

// List returns non-deleted alerts, newest first.
func (r *AlertRepository) List(ctx context.Context, f alert.ListFilters) ([]*alert.Alert, error) {
	var w whereBuilder
	w.raw("deleted_at IS NULL")
	if f.AlertLevel != "" {
		w.add("alert_level = $%d", f.AlertLevel)
	}
	if f.Search != "" {
		w.add("(title ILIKE $%[1]d OR content ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	query := `SELECT ` + alertColumns + ` FROM alert` + w.clause() + ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr(err, "list alerts")
	}
	defer rows.Close()

	alerts := []*alert.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func (r *AlertRepository) FindByID(ctx context.Context, id int64) (*alert.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alert WHERE id = $1 AND deleted_at IS NULL`
	a, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "find alert")
	}
	return a, nil
}

func (r *AlertRepository) Update(ctx context.Context, id int64, req *alert.UpdateAlertRequest) (*alert.Alert, error) {
	var s setBuilder
	if req.Title != nil {
		s.set("title", *req.Title)
	}
	if req.Content != nil {
		s.set("content", *req.Content)
	}
	if req.AlertLevel != nil {
		s.set("alert_level", *req.AlertLevel)
	}
	if s.empty() {
		return r.FindByID(ctx, id)
	}
	s.raw("updated_at = now()")

	query := fmt.Sprintf(`UPDATE alert SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s`,
		s.assignments(), len(s.args)+1, alertColumns)
	a, err := scanAlert(r.db.QueryRow(ctx, query, append(s.args, id)...))
	if err != nil {
		return nil, wrapErr(err, "update alert")
	}
	return a, nil
}

// SoftDelete stamps deleted_at once; a second call reports not found.
func (r *AlertRepository) SoftDelete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE alert SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return wrapErr(err, "delete alert")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
