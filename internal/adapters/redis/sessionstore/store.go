// Package sessionstore is a Redis implementation of sessionstore.Store.
// Tokens share a key prefix and expire through Redis TTLs, so sessions
// survive process restarts and can be shared across instances.
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

const keyPrefix = "session:"

type sessionBlob struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Store holds sessions in Redis keyed by token.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Put(ctx context.Context, token string, sess domain.Session, ttl time.Duration) error {
	blob, err := json.Marshal(sessionBlob{
		ID:    string(sess.ID),
		Email: sess.Email,
		Role:  string(sess.Role),
	})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+token, blob, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, token string) (domain.Session, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, sessionstore.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("redis get session: %w", err)
	}

	var blob sessionBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		// A corrupt blob is unusable; treat it the same as absent.
		return domain.Session{}, sessionstore.ErrNotFound
	}
	return domain.Session{
		ID:    domain.MemberID(blob.ID),
		Email: blob.Email,
		Role:  domain.ParseRole(blob.Role),
	}, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
