package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"giftkit/models"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "wizard:session:"
	submitLockPrefix = "wizard:submit:"
)

// Store persists wizard sessions between requests.
type Store interface {
	Get(ctx context.Context, id string) (*models.WizardSession, error)
	// Create stores a new session.
	Create(ctx context.Context, session *models.WizardSession) error
	// Update replaces a stored session only while its revision is still prevRevision,
	// otherwise it returns ErrStaleResponse.
	Update(ctx context.Context, session *models.WizardSession, prevRevision int) error
	Delete(ctx context.Context, id string) error
	// Lock takes the submission lock of a session. It returns false when the lock is
	// already held.
	Lock(ctx context.Context, id string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id string) error
}

// RedisStore keeps each session as a JSON blob that expires after TTL of inactivity.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.WizardSession, error) {
	data, err := s.Client.Get(ctx, sessionKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wizard session: %w", err)
	}

	var session models.WizardSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse wizard session %s: %w", id, err)
	}
	return &session, nil
}

func (s *RedisStore) Create(ctx context.Context, session *models.WizardSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := s.Client.Set(ctx, sessionKeyPrefix+session.ID, data, s.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store wizard session: %w", err)
	}
	return nil
}

// Update is a compare-and-set on the stored revision. The key is watched so a
// concurrent write between the check and the SET aborts the transaction.
func (s *RedisStore) Update(ctx context.Context, session *models.WizardSession, prevRevision int) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	key := sessionKeyPrefix + session.ID

	txf := func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load wizard session: %w", err)
		}
		var current struct {
			Revision int `json:"revision"`
		}
		if err := json.Unmarshal(stored, &current); err != nil {
			return fmt.Errorf("failed to parse wizard session %s: %w", session.ID, err)
		}
		if current.Revision != prevRevision {
			return ErrStaleResponse
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.TTL)
			return nil
		})
		return err
	}

	err = s.Client.Watch(ctx, txf, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrStaleResponse
	case errors.Is(err, ErrStaleResponse), errors.Is(err, ErrSessionNotFound):
		return err
	}
	return fmt.Errorf("failed to store wizard session: %w", err)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.Client.Del(ctx, sessionKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete wizard session: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.Client.SetNX(ctx, submitLockPrefix+id, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to take submit lock: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Unlock(ctx context.Context, id string) error {
	return s.Client.Del(ctx, submitLockPrefix+id).Err()
}
