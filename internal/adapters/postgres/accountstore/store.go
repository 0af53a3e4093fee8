package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	postgres "github.com/ifiscoder/CommunityApp/internal/adapters/postgres"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

// Store is a Postgres implementation of accountstore.Store. Credentials live
// in the accounts table; issued tokens live in the session store so they can
// be shared and expired independently of the database.
type Store struct {
	pool       *pgxpool.Pool
	sessions   sessionstore.Store
	sessionTTL time.Duration
}

func NewStore(pool *pgxpool.Pool, sessions sessionstore.Store, sessionTTL time.Duration) *Store {
	return &Store{pool: pool, sessions: sessions, sessionTTL: sessionTTL}
}

func (s *Store) SignIn(ctx context.Context, email, password string) (accountstore.Account, string, error) {
	if s.pool == nil {
		return accountstore.Account{}, "", errors.New("nil postgres pool")
	}
	email = domain.NormalizeEmail(email)

	var (
		id           string
		storedEmail  string
		passwordHash string
		roleMetadata string
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, role_metadata
		FROM accounts
		WHERE lower(email) = $1
	`, email).Scan(&id, &storedEmail, &passwordHash, &roleMetadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accountstore.Account{}, "", accountstore.ErrInvalidCredentials
		}
		return accountstore.Account{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) != nil {
		return accountstore.Account{}, "", accountstore.ErrInvalidCredentials
	}

	acct := accountstore.Account{
		ID:           domain.MemberID(id),
		Email:        storedEmail,
		RoleMetadata: roleMetadata,
	}
	token, err := s.issueToken(ctx, acct)
	if err != nil {
		return accountstore.Account{}, "", err
	}
	return acct, token, nil
}

func (s *Store) SignUp(ctx context.Context, email, password string) (accountstore.Account, string, error) {
	if s.pool == nil {
		return accountstore.Account{}, "", errors.New("nil postgres pool")
	}
	email = domain.NormalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return accountstore.Account{}, "", err
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, password_hash, role_metadata)
		VALUES ($1, $2, $3, '')
	`, id, email, string(hash))
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return accountstore.Account{}, "", accountstore.ErrEmailTaken
		}
		return accountstore.Account{}, "", err
	}

	acct := accountstore.Account{ID: domain.MemberID(id), Email: email}
	token, err := s.issueToken(ctx, acct)
	if err != nil {
		return accountstore.Account{}, "", err
	}
	return acct, token, nil
}

func (s *Store) SignOut(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

func (s *Store) Session(ctx context.Context, token string) (accountstore.Account, error) {
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, sessionstore.ErrNotFound) {
			return accountstore.Account{}, accountstore.ErrNoSession
		}
		return accountstore.Account{}, err
	}

	// Re-read role metadata so a promotion takes effect on the next resolve,
	// not only after a fresh sign-in.
	var roleMetadata string
	err = s.pool.QueryRow(ctx, `
		SELECT role_metadata FROM accounts WHERE id = $1
	`, string(sess.ID)).Scan(&roleMetadata)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accountstore.Account{}, accountstore.ErrNoSession
		}
		return accountstore.Account{}, err
	}
	return accountstore.Account{
		ID:           sess.ID,
		Email:        sess.Email,
		RoleMetadata: roleMetadata,
	}, nil
}

// SetRoleMetadata overwrites the role attached to an account. Exposed for
// operational promotion of admins.
func (s *Store) SetRoleMetadata(ctx context.Context, email, role string) error {
	ct, err := s.pool.Exec(ctx, `
		UPDATE accounts SET role_metadata = $2 WHERE lower(email) = $1
	`, domain.NormalizeEmail(email), role)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return accountstore.ErrInvalidCredentials
	}
	return nil
}

// Remove deletes the account row; the privileged deletion cascade uses it.
func (s *Store) Remove(ctx context.Context, id domain.MemberID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, string(id))
	return err
}

func (s *Store) issueToken(ctx context.Context, acct accountstore.Account) (string, error) {
	token := uuid.NewString()
	sess := domain.Session{
		ID:    acct.ID,
		Email: acct.Email,
		Role:  domain.ParseRole(acct.RoleMetadata),
	}
	if err := s.sessions.Put(ctx, token, sess, s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}
