// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager keeps admin sessions and revoked token ids in Redis.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// CreateSession stores a new session in Redis until it expires.
func (m *Manager) CreateSession(ctx context.Context, session *SessionData) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	if err := m.client.Set(ctx, sessionKey(session.UserID, session.JTI), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}
	return nil
}

// GetSession returns the stored session or nil if it is gone.
func (m *Manager) GetSession(ctx context.Context, userID, jti string) (*SessionData, error) {
	data, err := m.client.Get(ctx, sessionKey(userID, jti)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// InvalidateSession removes the session and blacklists its token id for
// the rest of its lifetime.
func (m *Manager) InvalidateSession(ctx context.Context, userID, jti string, remaining time.Duration) error {
	if err := m.client.Del(ctx, sessionKey(userID, jti)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if remaining <= 0 {
		return nil
	}
	return m.BlacklistToken(ctx, jti, remaining)
}

// IsTokenBlacklisted checks if a token is blacklisted
func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	exists, err := m.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists > 0, nil
}

// BlacklistToken adds a token to the blacklist
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	return m.client.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func sessionKey(userID, jti string) string {
	return fmt.Sprintf("session:%s:%s", userID, jti)
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}
