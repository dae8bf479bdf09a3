// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"amayalert-service/internal/domain/auth"
	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	Create(ctx context.Context, u *user.User) error
}

type Sessions interface {
	CreateSession(ctx context.Context, s *session.SessionData) error
	GetSession(ctx context.Context, userID, jti string) (*session.SessionData, error)
	InvalidateSession(ctx context.Context, userID, jti string, remaining time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
}

type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

type Auditor interface {
	Record(ctx context.Context, actorID, action, content string)
}

type AuthService struct {
	users       UserStore
	jwtManager  *jwt.Manager
	sessions    Sessions
	rateLimiter LoginLimiter
	auditor     Auditor
	logger      *zap.Logger
}

func NewAuthService(
	users UserStore,
	jwtManager *jwt.Manager,
	sessions Sessions,
	rateLimiter LoginLimiter,
	auditor Auditor,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		auditor:     auditor,
		logger:      logger,
	}
}

// ========== Login / Logout ==========

// Login authenticates a staff account. End-user accounts are rejected.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	addr := strings.ToLower(strings.TrimSpace(req.Email))

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, addr)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: too many login attempts, please try again in 15 minutes", xerrors.ErrRateLimited)
	}

	u, err := s.users.FindByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
		}
		return nil, err
	}

	if u.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("%w: invalid credentials (attempts remaining: %d)", xerrors.ErrUnauthorized, remaining)
	}

	if !u.Role.IsStaff() {
		return nil, fmt.Errorf("%w: admin access required", xerrors.ErrForbidden)
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, addr); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	token, jti, err := s.jwtManager.Generator.Generate(u.ID, addr, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	ttl := s.jwtManager.Generator.Ttl
	sessionData := &session.SessionData{
		JTI:       jti,
		UserID:    u.ID,
		Email:     addr,
		Role:      string(u.Role),
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		LoginAt:   now,
		ExpiresAt: now.Add(ttl),
	}
	if err := s.sessions.CreateSession(ctx, sessionData); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
		zap.String("ip", req.IPAddress),
	)
	s.auditor.Record(ctx, u.ID, "login", fmt.Sprintf("Signed in from %s", req.IPAddress))

	return &auth.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(ttl.Seconds()),
		ExpiresAt:   sessionData.ExpiresAt,
		User:        u,
	}, nil
}

// Logout drops the session and blacklists the token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	remaining := s.jwtManager.Generator.Ttl
	if claims.ExpiresAt != nil {
		remaining = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.sessions.InvalidateSession(ctx, claims.UserID, claims.ID, remaining); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	s.logger.Info("user logged out", zap.String("user_id", claims.UserID), zap.String("jti", claims.ID))
	s.auditor.Record(ctx, claims.UserID, "logout", "Signed out")
	return nil
}

// ========== Token validation ==========

// ValidateToken verifies the token, rejects blacklisted or expired
// sessions and requires a staff role.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	blacklisted, err := s.sessions.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: token has been revoked", xerrors.ErrUnauthorized)
	}

	sess, err := s.sessions.GetSession(ctx, claims.UserID, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session expired or invalid", xerrors.ErrUnauthorized)
	}

	if !user.Role(claims.Role).IsStaff() {
		return nil, fmt.Errorf("%w: admin access required", xerrors.ErrForbidden)
	}
	return claims, nil
}

// Me returns the signed-in account.
func (s *AuthService) Me(ctx context.Context, userID string) (*user.User, error) {
	return s.users.FindByID(ctx, userID)
}

// ========== Bootstrap ==========

// EnsureBootstrapAdmin creates the first admin account from configuration
// (called on startup).
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, email, password, fullName string) error {
	addr := strings.ToLower(strings.TrimSpace(email))
	if addr == "" || password == "" {
		s.logger.Info("bootstrap admin not configured, skipping")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, addr)
	if err == nil {
		if existing.Role != user.RoleAdmin {
			s.logger.Warn("bootstrap admin email belongs to a non-admin account", zap.String("email", addr))
		} else {
			s.logger.Info("bootstrap admin already exists, skipping creation")
		}
		return nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return fmt.Errorf("failed to check bootstrap admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashed)

	u := &user.User{
		Email:        &addr,
		FullName:     fullName,
		Role:         user.RoleAdmin,
		PasswordHash: &hash,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", zap.String("email", addr), zap.String("user_id", u.ID))
	return nil
}
