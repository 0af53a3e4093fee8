// Package photostore keeps photo objects on local disk under a per-member
// directory and serves them from a configured base URL.
package photostore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	photostoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/photostore"
)

// Store writes objects under dir/<member-id>/<uuid>.<ext> and returns
// baseURL-relative URLs. Every Put yields a fresh URL so stale cached
// renditions are never served after a replacement.
type Store struct {
	dir     string
	baseURL string
}

func NewStore(dir, baseURL string) *Store {
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *Store) Put(ctx context.Context, id domain.MemberID, data []byte, contentType string) (string, error) {
	_ = ctx
	name := uuid.NewString() + extensionFor(contentType)
	memberDir := filepath.Join(s.dir, string(id))
	if err := os.MkdirAll(memberDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", photostoreport.ErrUploadFailed, err)
	}
	if err := os.WriteFile(filepath.Join(memberDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("%w: %v", photostoreport.ErrUploadFailed, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.baseURL, id, name), nil
}

func (s *Store) Remove(ctx context.Context, id domain.MemberID, url string) error {
	_ = ctx
	name := path.Base(url)
	if name == "" || name == "." || name == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, string(id), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
