// internal/repository/postgres/rescue_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/rescue"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const rescueColumns = `id, user_id::text, title, description, latitude, longitude, status, priority,
	emergency_type, contact_phone, contact_email, notes, created_at, updated_at, completed_at`

type RescueRepository struct {
	db *pgxpool.Pool
}

func NewRescueRepository(db *pgxpool.Pool) *RescueRepository {
	return &RescueRepository{db: db}
}

func scanRescue(row pgx.Row) (*rescue.Rescue, error) {
	var r rescue.Rescue
	err := row.Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Latitude, &r.Longitude,
		&r.Status, &r.Priority, &r.EmergencyType, &r.ContactPhone, &r.ContactEmail,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *RescueRepository) List(ctx context.Context, f rescue.ListFilters) ([]*rescue.Rescue, error) {
	var w whereBuilder
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.UserID != "" {
		w.add("user_id = $%d", f.UserID)
	}

	query := `SELECT ` + rescueColumns + ` FROM rescues` + w.clause() + ` ORDER BY priority DESC, created_at DESC`
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr(err, "list rescues")
	}
	defer rows.Close()

	rescues := []*rescue.Rescue{}
	for rows.Next() {
		item, err := scanRescue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rescue: %w", err)
		}
		rescues = append(rescues, item)
	}
	return rescues, rows.Err()
}

func (r *RescueRepository) FindByID(ctx context.Context, id int64) (*rescue.Rescue, error) {
	item, err := scanRescue(r.db.QueryRow(ctx, `SELECT `+rescueColumns+` FROM rescues WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "find rescue")
	}
	return item, nil
}

// Update persists status, priority, notes and completed_at.
func (r *RescueRepository) Update(ctx context.Context, item *rescue.Rescue) error {
	query := `
		UPDATE rescues SET status = $1, priority = $2, notes = $3, completed_at = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, item.Status, item.Priority, item.Notes, item.CompletedAt, item.ID).
		Scan(&item.UpdatedAt)
	return wrapErr(err, "update rescue")
}
