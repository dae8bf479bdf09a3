// internal/service/user/service.go
package user

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/service/email"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	temporaryPasswordLength = 8
	minPasswordLength       = 8
)

var validate = validator.New()

type Store interface {
	List(ctx context.Context, f user.ListFilters) ([]*user.User, error)
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, id string, req *user.UpdateUserRequest, passwordHash *string) (*user.User, error)
	Delete(ctx context.Context, id string) error
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

type Service struct {
	store     Store
	email     email.Sender
	templates *email.Templates
	auditor   Auditor
	logger    *zap.Logger
	hashCost  int
}

func NewService(store Store, sender email.Sender, templates *email.Templates, auditor Auditor, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		email:     sender,
		templates: templates,
		auditor:   auditor,
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
}

func (s *Service) List(ctx context.Context, f user.ListFilters) ([]*user.User, error) {
	if f.Role != "" && !user.Role(f.Role).Valid() {
		return nil, xerrors.Invalid("role", "Invalid role")
	}
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*user.User, error) {
	return s.store.FindByID(ctx, id)
}

// Create registers an account with a generated password and mails the
// credentials. When the mail cannot be delivered the password is returned
// so an administrator can hand it over.
func (s *Service) Create(ctx context.Context, req *user.CreateUserRequest, actorID string) (*user.CreateUserResponse, error) {
	addr, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return nil, xerrors.Invalid("role", "Invalid role")
	}

	if _, err := s.store.FindByEmail(ctx, addr); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", xerrors.ErrConflict, addr)
	} else if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	password, err := generatePassword(temporaryPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashStr := string(hash)

	u := &user.User{
		Email:        &addr,
		PhoneNumber:  optional(req.PhoneNumber),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		PasswordHash: &hashStr,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	resp := &user.CreateUserResponse{User: u, EmailSent: true}
	if err := s.email.Send(ctx, s.templates.Credentials(addr, u.FullName, password)); err != nil {
		s.logger.Warn("failed to send credentials email", zap.String("user_id", u.ID), zap.Error(err))
		resp.EmailSent = false
		resp.Password = password
	}

	s.auditor.Record(ctx, actorID, "create", fmt.Sprintf("Created %s account %s", role, addr))
	return resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req *user.UpdateUserRequest, actorID string) (*user.User, error) {
	if req.Email != nil {
		addr, err := normalizeEmail(*req.Email)
		if err != nil {
			return nil, err
		}
		req.Email = &addr
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, xerrors.Required("full_name", "Full name")
		}
		req.FullName = &name
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		req.PhoneNumber = &phone
	}
	if req.Role != nil && !req.Role.Valid() {
		return nil, xerrors.Invalid("role", "Invalid role")
	}

	var passwordHash *string
	if req.Password != nil {
		if utf8.RuneCountInString(*req.Password) < minPasswordLength {
			return nil, xerrors.Invalid("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.hashCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		h := string(hash)
		passwordHash = &h
	}

	u, err := s.store.Update(ctx, id, req, passwordHash)
	if err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, actorID, "update", fmt.Sprintf("Updated account %s", u.ID))
	return u, nil
}

func (s *Service) Delete(ctx context.Context, id, actorID string) error {
	if id == actorID {
		return xerrors.Invalid("id", "You cannot delete your own account")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Record(ctx, actorID, "delete", fmt.Sprintf("Deleted account %s", id))
	return nil
}

func normalizeEmail(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" {
		return "", xerrors.Required("email", "Email")
	}
	if err := validate.Var(addr, "email"); err != nil {
		return "", xerrors.Invalid("email", "Invalid email address")
	}
	return addr, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// generatePassword returns a random alphanumeric password.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	password := make([]byte, length)
	for i := range password {
		password[i] = charset[int(b[i])%len(charset)]
	}
	return string(password), nil
}
