package postgres

import (
	"errors"
	"testing"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapErrMapsPostgresCodes(t *testing.T) {
	assert.NoError(t, wrapErr(nil, "find user"))
	assert.ErrorIs(t, wrapErr(pgx.ErrNoRows, "find user"), xerrors.ErrNotFound)

	dup := wrapErr(&pgconn.PgError{Code: "23505", Message: "duplicate key"}, "create user")
	assert.ErrorIs(t, dup, xerrors.ErrConflict)

	badUUID := wrapErr(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}, "find user")
	assert.ErrorIs(t, badUUID, xerrors.ErrInvalidInput)
	assert.False(t, errors.Is(badUUID, xerrors.ErrNotFound))

	other := wrapErr(errors.New("connection reset"), "list alerts")
	assert.EqualError(t, other, "failed to list alerts: connection reset")
	assert.False(t, errors.Is(other, xerrors.ErrInvalidInput))
}
