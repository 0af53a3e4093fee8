package photos

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	photostoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/photostore"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Defaults for photo constraints; overridable via Config.
const (
	DefaultMaxBytes = 500 * 1024
)

var DefaultAllowedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Config carries the client-side upload constraints. These are recognized
// options, not core logic: the store enforces nothing.
type Config struct {
	MaxBytes     int64
	AllowedTypes []string
}

func (c Config) withDefaults() Config {
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if len(c.AllowedTypes) == 0 {
		c.AllowedTypes = DefaultAllowedTypes
	}
	return c
}

// Service validates and uploads profile photos for the signed-in member,
// then records the resulting URL on the profile.
type Service struct {
	store  photostoreport.Store
	ctl    *authctl.Controller
	cfg    Config
	logger *log.Logger
}

func NewService(store photostoreport.Store, ctl *authctl.Controller, cfg Config, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{store: store, ctl: ctl, cfg: cfg.withDefaults(), logger: logger}
}

// Validate applies the size and format gates without touching the network.
func (s *Service) Validate(data []byte, contentType string) error {
	if int64(len(data)) > s.cfg.MaxBytes {
		return &authctl.Error{
			Status:  422,
			Code:    authctl.CodeValidationError,
			Message: fmt.Sprintf("Image is too large (%dKB). Maximum size is %dKB.", len(data)/1024, s.cfg.MaxBytes/1024),
		}
	}
	if !slices.Contains(s.cfg.AllowedTypes, normalizeContentType(contentType)) {
		return &authctl.Error{
			Status:  422,
			Code:    authctl.CodeValidationError,
			Message: "Invalid image format. Please use JPEG, PNG, or WebP.",
		}
	}
	return nil
}

// Upload validates, stores the photo, and sets photo_url on the member's
// profile. The previous object, if any, is removed best-effort afterward.
func (s *Service) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	state := s.ctl.Snapshot()
	if state.User == nil {
		return "", &authctl.Error{Status: 401, Code: authctl.CodeNotSignedIn, Message: "Not signed in."}
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	contentType = normalizeContentType(contentType)
	if err := s.Validate(data, contentType); err != nil {
		return "", err
	}

	var previous *string
	if state.Profile != nil {
		previous = state.Profile.PhotoURL
	}

	url, err := s.store.Put(ctx, state.User.ID, data, contentType)
	if err != nil {
		return "", err
	}
	if _, err := s.ctl.UpdateProfile(ctx, profilestore.Patch{PhotoURL: profilestore.Some(url)}); err != nil {
		return "", err
	}

	if previous != nil && *previous != url {
		s.removeQuietly(ctx, state.User.ID, *previous)
	}
	return url, nil
}

// Remove clears the member's photo: the profile field first, then the object.
func (s *Service) Remove(ctx context.Context) error {
	state := s.ctl.Snapshot()
	if state.User == nil {
		return &authctl.Error{Status: 401, Code: authctl.CodeNotSignedIn, Message: "Not signed in."}
	}
	if state.Profile == nil || state.Profile.PhotoURL == nil {
		return nil
	}
	url := *state.Profile.PhotoURL

	if _, err := s.ctl.UpdateProfile(ctx, profilestore.Patch{PhotoURL: profilestore.Null[string]()}); err != nil {
		return err
	}
	s.removeQuietly(ctx, state.User.ID, url)
	return nil
}

func (s *Service) removeQuietly(ctx context.Context, id domain.MemberID, url string) {
	if err := s.store.Remove(ctx, id, url); err != nil {
		s.logger.Printf("photos: remove %s: %v", url, err)
	}
}

func normalizeContentType(ct string) string {
	ct = strings.TrimSpace(strings.ToLower(ct))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}
