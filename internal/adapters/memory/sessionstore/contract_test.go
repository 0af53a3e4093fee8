package sessionstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/adapters/contracttest"
	memclock "github.com/ifiscoder/CommunityApp/internal/adapters/memory/clock"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	sessionstoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

func TestContract_MemorySessionStore(t *testing.T) {
	contracttest.RunSessionStore(t, func(t *testing.T) (sessionstoreport.Store, func()) {
		t.Helper()
		return NewStore(memclock.NewManualClock(time.Unix(2000, 0).UTC())), nil
	})
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(2000, 0).UTC())
	store := NewStore(clk)
	ctx := context.Background()

	sess := domain.Session{ID: "m-1", Email: "alice@example.com", Role: domain.RoleMember}
	if err := store.Put(ctx, "tok", sess, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.Advance(59 * time.Minute)
	if _, err := store.Get(ctx, "tok"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	clk.Advance(2 * time.Minute)
	if _, err := store.Get(ctx, "tok"); !errors.Is(err, sessionstoreport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}
