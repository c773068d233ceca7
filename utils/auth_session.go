package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrAuthSessionNotFound = errors.New("auth session not found or expired")

// AuthSession represents the progress of a registration or login flow that is
// waiting for OTP verification.
type AuthSession struct {
	Kind          string    `json:"kind"` // "register" or "login"
	UserID        string    `json:"userId,omitempty"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phoneNumber"`
	Company       string    `json:"company,omitempty"`
	PasswordHash  string    `json:"passwordHash,omitempty"`
	Status        string    `json:"status"` // "pending_otp" or "otp_verified"
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// RedisAuthSessionStore persists AuthSessions with a TTL.
type RedisAuthSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAuthSessionStore(client *redis.Client) *RedisAuthSessionStore {
	return &RedisAuthSessionStore{client: client, ttl: AuthSessionTTL}
}

// Save saves the authentication session in Redis with a TTL.
func (s *RedisAuthSessionStore) Save(ctx context.Context, sessionID string, session AuthSession) error {
	session.LastUpdatedAt = time.Now()
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal auth session: %w", err)
	}
	if err := s.client.Set(ctx, AuthSessionPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save auth session: %w", err)
	}
	return nil
}

// Get retrieves the authentication session from Redis.
func (s *RedisAuthSessionStore) Get(ctx context.Context, sessionID string) (*AuthSession, error) {
	data, err := s.client.Get(ctx, AuthSessionPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrAuthSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session AuthSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth session: %w", err)
	}
	return &session, nil
}

// Delete removes an authentication session from Redis.
func (s *RedisAuthSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, AuthSessionPrefix+sessionID).Err()
}
