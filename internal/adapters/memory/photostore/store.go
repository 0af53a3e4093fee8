package photostore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// Store is an in-memory implementation of photostore.Store. Objects are held
// per member and addressed by synthetic URLs.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byURL map[string][]byte
}

func NewStore() *Store {
	return &Store{byURL: make(map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, id domain.MemberID, data []byte, contentType string) (string, error) {
	_ = ctx
	_ = contentType
	url := fmt.Sprintf("mem://photos/%s/%s", id, uuid.NewString())

	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.byURL[url] = cp
	return url, nil
}

func (s *Store) Remove(ctx context.Context, id domain.MemberID, url string) error {
	_ = ctx
	_ = id
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byURL, url)
	return nil
}

// Object returns the stored bytes for a URL; tests use it to assert uploads.
func (s *Store) Object(url string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byURL[url]
	return b, ok
}
