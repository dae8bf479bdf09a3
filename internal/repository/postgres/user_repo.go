// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"fmt"

	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id::text, email, phone_number, full_name, role, password_hash, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PhoneNumber, &u.FullName, &u.Role,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]*user.User, error) {
	defer rows.Close()
	users := []*user.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListRecipients returns every end-user account, the broadcast audience.
func (r *UserRepository) ListRecipients(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = 'user' ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr(err, "list recipients")
	}
	return collectUsers(rows)
}

// ListWithEmail returns every account that has an email address.
func (r *UserRepository) ListWithEmail(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email IS NOT NULL AND email <> '' ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, wrapErr(err, "list users with email")
	}
	return collectUsers(rows)
}

func (r *UserRepository) List(ctx context.Context, f user.ListFilters) ([]*user.User, error) {
	var w whereBuilder
	if f.Role != "" {
		w.add("role = $%d", f.Role)
	}
	if f.Search != "" {
		w.add("(full_name ILIKE $%[1]d OR email ILIKE $%[1]d OR phone_number ILIKE $%[1]d)", "%"+f.Search+"%")
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.clause() + ` ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, wrapErr(err, "list users")
	}
	return collectUsers(rows)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapErr(err, "find user")
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return nil, wrapErr(err, "find user by email")
	}
	return u, nil
}

// Create inserts the user and fills generated fields.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (email, phone_number, full_name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, u.Email, u.PhoneNumber, u.FullName, u.Role, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return wrapErr(err, "create user")
}

// Update applies the non-nil fields of req; passwordHash replaces the hash
// when set.
func (r *UserRepository) Update(ctx context.Context, id string, req *user.UpdateUserRequest, passwordHash *string) (*user.User, error) {
	var s setBuilder
	if req.Email != nil {
		s.set("email", *req.Email)
	}
	if req.PhoneNumber != nil {
		s.set("phone_number", *req.PhoneNumber)
	}
	if req.FullName != nil {
		s.set("full_name", *req.FullName)
	}
	if req.Role != nil {
		s.set("role", *req.Role)
	}
	if passwordHash != nil {
		s.set("password_hash", *passwordHash)
	}
	if s.empty() {
		return r.FindByID(ctx, id)
	}
	s.raw("updated_at = now()")

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		s.assignments(), len(s.args)+1, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, append(s.args, id)...))
	if err != nil {
		return nil, wrapErr(err, "update user")
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete user")
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}
