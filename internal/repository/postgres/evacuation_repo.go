// internal/repository/postgres/evacuation_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/evacuation"
	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const centerColumns = `id, name, address, latitude, longitude, capacity, current_occupancy, status,
	contact_name, contact_phone, photo_url, created_by::text, created_at, updated_at`

type EvacuationRepository struct {
	db *pgxpool.Pool
}

func NewEvacuationRepository(db *pgxpool.Pool) *EvacuationRepository {
	return &EvacuationRepository{db: db}
}

func scanCenter(row pgx.Row) (*evacuation.Center, error) {
	var c evacuation.Center
	err := row.Scan(
		&c.ID, &c.Name, &c.Address, &c.Latitude, &c.Longitude, &c.Capacity,
		&c.CurrentOccupancy, &c.Status, &c.ContactName, &c.ContactPhone,
		&c.PhotoURL, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *EvacuationRepository) List(ctx context.Context, f evacuation.ListFilters) ([]*evacuation.Center, error) {
	var w whereBuilder
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}
	if f.Search != "" {
		w.add("(name ILIKE $%[1]d OR address ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	query := `SELECT ` + centerColumns + ` FROM evacuation_centers` + w.clause() + ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr(err, "list evacuation centers")
	}
	defer rows.Close()

	centers := []*evacuation.Center{}
	for rows.Next() {
		c, err := scanCenter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evacuation center: %w", err)
		}
		centers = append(centers, c)
	}
	return centers, rows.Err()
}

func (r *EvacuationRepository) FindByID(ctx context.Context, id int64) (*evacuation.Center, error) {
	c, err := scanCenter(r.db.QueryRow(ctx, `SELECT `+centerColumns+` FROM evacuation_centers WHERE id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "find evacuation center")
	}
	return c, nil
}

func (r *EvacuationRepository) Create(ctx context.Context, c *evacuation.Center) error {
	query := `
		INSERT INTO evacuation_centers
			(name, address, latitude, longitude, capacity, current_occupancy, status,
			 contact_name, contact_phone, photo_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.Name, c.Address, c.Latitude, c.Longitude, c.Capacity, c.CurrentOccupancy, c.Status,
		c.ContactName, c.ContactPhone, c.PhotoURL, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return wrapErr(err, "create evacuation center")
}

// Update overwrites every editable column.
func (r *EvacuationRepository) Update(ctx context.Context, c *evacuation.Center) error {
	query := `
		UPDATE evacuation_centers SET
			name = $1, address = $2, latitude = $3, longitude = $4, capacity = $5,
			current_occupancy = $6, status = $7, contact_name = $8, contact_phone = $9,
			photo_url = $10, updated_at = now()
		WHERE id = $11
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		c.Name, c.Address, c.Latitude, c.Longitude, c.Capacity, c.CurrentOccupancy,
		c.Status, c.ContactName, c.ContactPhone, c.PhotoURL, c.ID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return wrapErr(err, "update evacuation center")
}

func (r *EvacuationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM evacuation_centers WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete evacuation center")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
