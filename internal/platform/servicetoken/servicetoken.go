// Package servicetoken mints and verifies the short-lived HS256 tokens the
// gateway presents to the privileged deletion function. Member session tokens
// never reach that function; it only trusts this service credential.
package servicetoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid service token")

// Claims name the acting identity for audit logging at the function side.
type Claims struct {
	ActorID string `json:"actor_id"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 2 * time.Minute
	}
	return c
}

// Minter signs service tokens.
type Minter struct {
	cfg Config
}

func NewMinter(cfg Config) *Minter {
	return &Minter{cfg: cfg.withDefaults()}
}

func (m *Minter) Mint(actorID string, now time.Time) (string, error) {
	now = now.UTC()
	claims := Claims{
		ActorID: actorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign service token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, and expiry, and returns the claims.
func Verify(cfg Config, tokenString string) (*Claims, error) {
	cfg = cfg.withDefaults()
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(t *jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
