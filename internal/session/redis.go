package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/josh-kwaku/community-bank/internal/domain"
)

const sessionKeyPrefix = "registration:session:"

// RedisStore keeps each session as a JSON value whose key TTL is refreshed
// on every write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, applicantID string) (*domain.RegistrationSession, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+applicantID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("Get: %w", domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}

	var sess domain.RegistrationSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *domain.RegistrationSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("Put: encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+sess.ApplicantID, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, applicantID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+applicantID).Err(); err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	return nil
}
