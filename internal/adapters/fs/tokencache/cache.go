// Package tokencache persists the session token to a file so a session
// survives process restarts, the way a device keychain would.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cache stores the token at a fixed path with owner-only permissions.
type Cache struct {
	path string
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

func (c *Cache) Load(ctx context.Context) (string, bool, error) {
	_ = ctx
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read token cache: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", false, nil
	}
	return token, true, nil
}

func (c *Cache) Save(ctx context.Context, token string) error {
	_ = ctx
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("token cache dir: %w", err)
	}

	// Write-then-rename so a crash never leaves a truncated token behind.
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("commit token cache: %w", err)
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	_ = ctx
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear token cache: %w", err)
	}
	return nil
}
