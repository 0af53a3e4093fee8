package accountstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

type account struct {
	id           domain.MemberID
	email        string
	passwordHash []byte
	roleMetadata string
}

// Store is an in-memory implementation of accountstore.Store. Issued tokens
// live in the injected session store so the same token persistence backs both
// the memory and postgres account adapters.
// It is safe for concurrent use.
type Store struct {
	sessions   sessionstore.Store
	sessionTTL time.Duration

	mu      sync.RWMutex
	byEmail map[string]account
}

func NewStore(sessions sessionstore.Store, sessionTTL time.Duration) *Store {
	return &Store{
		sessions:   sessions,
		sessionTTL: sessionTTL,
		byEmail:    make(map[string]account),
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) (accountstore.Account, string, error) {
	s.mu.RLock()
	a, ok := s.byEmail[domain.NormalizeEmail(email)]
	s.mu.RUnlock()
	if !ok {
		return accountstore.Account{}, "", accountstore.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return accountstore.Account{}, "", accountstore.ErrInvalidCredentials
	}
	return s.issue(ctx, a)
}

func (s *Store) SignUp(ctx context.Context, email, password string) (accountstore.Account, string, error) {
	norm := domain.NormalizeEmail(email)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return accountstore.Account{}, "", err
	}

	s.mu.Lock()
	if _, ok := s.byEmail[norm]; ok {
		s.mu.Unlock()
		return accountstore.Account{}, "", accountstore.ErrEmailTaken
	}
	a := account{
		id:           domain.MemberID(uuid.NewString()),
		email:        norm,
		passwordHash: hash,
	}
	s.byEmail[norm] = a
	s.mu.Unlock()

	return s.issue(ctx, a)
}

func (s *Store) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Store) Session(ctx context.Context, token string) (accountstore.Account, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return accountstore.Account{}, accountstore.ErrNoSession
	}
	return accountstore.Account{
		ID:           sess.ID,
		Email:        sess.Email,
		RoleMetadata: string(sess.Role),
	}, nil
}

// SetRoleMetadata attaches role metadata to an existing account. Tests and
// dev seeding use it to create admin principals.
func (s *Store) SetRoleMetadata(email, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.byEmail[domain.NormalizeEmail(email)]; ok {
		a.roleMetadata = role
		s.byEmail[a.email] = a
	}
}

// Remove deletes an account. It is not part of accountstore.Store; the memory
// deletion adapter uses it to implement the privileged cascade.
func (s *Store) Remove(id domain.MemberID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, a := range s.byEmail {
		if a.id == id {
			delete(s.byEmail, email)
			return
		}
	}
}

func (s *Store) issue(ctx context.Context, a account) (accountstore.Account, string, error) {
	token := uuid.NewString()
	sess := domain.Session{
		ID:    a.id,
		Email: a.email,
		Role:  domain.ParseRole(a.roleMetadata),
	}
	if err := s.sessions.Put(ctx, token, sess, s.sessionTTL); err != nil {
		return accountstore.Account{}, "", err
	}
	return accountstore.Account{
		ID:           a.id,
		Email:        a.email,
		RoleMetadata: a.roleMetadata,
	}, token, nil
}
