// internal/repository/postgres/wordfilter_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/wordfilter"
	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

type WordFilterRepository struct {
	db *pgxpool.Pool
}

func NewWordFilterRepository(db *pgxpool.Pool) *WordFilterRepository {
	return &WordFilterRepository{db: db}
}

func (r *WordFilterRepository) List(ctx context.Context) ([]*wordfilter.WordFilter, error) {
	rows, err := r.db.Query(ctx, `SELECT id, word, created_at FROM word_filters ORDER BY word ASC`)
	if err != nil {
		return nil, wrapErr(err, "list word filters")
	}
	defer rows.Close()

	filters := []*wordfilter.WordFilter{}
	for rows.Next() {
		var f wordfilter.WordFilter
		if err := rows.Scan(&f.ID, &f.Word, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan word filter: %w", err)
		}
		filters = append(filters, &f)
	}
	return filters, rows.Err()
}

func (r *WordFilterRepository) Create(ctx context.Context, f *wordfilter.WordFilter) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO word_filters (word) VALUES ($1) RETURNING id, created_at`, f.Word,
	).Scan(&f.ID, &f.CreatedAt)
	return wrapErr(err, "create word filter")
}

func (r *WordFilterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM word_filters WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete word filter")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
