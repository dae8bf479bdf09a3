// internal/repository/postgres/db.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

type DB struct {
	pool *pgxpool.Pool
}

func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Ping is used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// wrapErr maps driver errors onto the application sentinels.
func wrapErr(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return xerrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", action, xerrors.ErrConflict)
		case invalidTextRepresentation:
			return fmt.Errorf("%s: %w", action, xerrors.ErrInvalidInput)
		}
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

// whereBuilder accumulates AND conditions with numbered placeholders.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conditions = append(w.conditions, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) raw(cond string) {
	w.conditions = append(w.conditions, cond)
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	out := " WHERE " + w.conditions[0]
	for _, c := range w.conditions[1:] {
		out += " AND " + c
	}
	return out
}

// setBuilder accumulates UPDATE assignments for partial updates.
type setBuilder struct {
	sets []string
	args []interface{}
}

func (s *setBuilder) set(column string, value interface{}) {
	s.args = append(s.args, value)
	s.sets = append(s.sets, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setBuilder) raw(assignment string) {
	s.sets = append(s.sets, assignment)
}

func (s *setBuilder) empty() bool {
	return len(s.sets) == 0
}

func (s *setBuilder) assignments() string {
	out := ""
	for i, a := range s.sets {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
