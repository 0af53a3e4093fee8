package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	clockport "github.com/ifiscoder/CommunityApp/internal/ports/out/clock"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

type entry struct {
	session   domain.Session
	expiresAt time.Time
}

// Store is an in-memory implementation of sessionstore.Store with TTL-based
// expiry checked on read.
// It is safe for concurrent use.
type Store struct {
	clk clockport.Clock

	mu      sync.RWMutex
	byToken map[string]entry
}

func NewStore(clk clockport.Clock) *Store {
	return &Store{
		clk:     clk,
		byToken: make(map[string]entry),
	}
}

func (s *Store) Put(ctx context.Context, token string, sess domain.Session, ttl time.Duration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[token] = entry{session: sess, expiresAt: s.clk.Now().Add(ttl)}
	return nil
}

func (s *Store) Get(ctx context.Context, token string) (domain.Session, error) {
	_ = ctx
	s.mu.RLock()
	e, ok := s.byToken[token]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, sessionstore.ErrNotFound
	}
	if !s.clk.Now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.byToken, token)
		s.mu.Unlock()
		return domain.Session{}, sessionstore.ErrNotFound
	}
	return e.session, nil
}

func (s *Store) Delete(ctx context.Context, token string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}
