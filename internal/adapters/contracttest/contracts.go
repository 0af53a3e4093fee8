// Package contracttest holds behavioral suites every implementation of a
// storage port must pass. Backend packages run them through small factory
// functions so memory, Postgres, and Redis stay interchangeable.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	accountstoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/accountstore"
	idempotencyport "github.com/ifiscoder/CommunityApp/internal/ports/out/idempotency"
	profilestoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
	sessionstoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/sessionstore"
)

type CleanupFunc = func()

type ProfileStoreFactory func(t *testing.T) (profilestoreport.Store, CleanupFunc)
type AccountStoreFactory func(t *testing.T) (accountstoreport.Store, CleanupFunc)
type SessionStoreFactory func(t *testing.T) (sessionstoreport.Store, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunProfileStore(t *testing.T, newStore ProfileStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	aID := domain.MemberID(uuid.NewString())
	aPhone := "+1 555 010 0001"
	a := domain.Profile{
		ID:            aID,
		Email:         "alice@example.com",
		Role:          domain.RoleMember,
		FullName:      "Alice Johnson",
		Phone:         aPhone,
		AddressStreet: "1 Main St",
		AddressCity:   "Oakland",
		AddressState:  "CA",
		AddressPostal: "94601",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := store.Create(ctx, a); err != nil {
		t.Fatalf("Create a: %v", err)
	}

	// Get returns the stored row; absence is (nil, nil), not an error.
	got, err := store.Get(ctx, aID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.FullName != "Alice Johnson" || got.IsApproved {
		t.Fatalf("unexpected profile: %+v", got)
	}
	missing, err := store.Get(ctx, domain.MemberID(uuid.NewString()))
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing profile, got %+v", missing)
	}

	// ID uniqueness.
	dup := a
	dup.Phone = "+1 555 010 9999"
	if _, err := store.Create(ctx, dup); !errors.Is(err, profilestoreport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Phone uniqueness.
	b := a
	b.ID = domain.MemberID(uuid.NewString())
	b.Email = "bob@example.com"
	b.FullName = "Bob Marsh"
	if _, err := store.Create(ctx, b); !errors.Is(err, profilestoreport.ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	taken, err := store.PhoneInUse(ctx, aPhone)
	if err != nil || !taken {
		t.Fatalf("PhoneInUse(%q)=%v,%v, want true", aPhone, taken, err)
	}
	free, err := store.PhoneInUse(ctx, "+1 555 010 8888")
	if err != nil || free {
		t.Fatalf("PhoneInUse(free)=%v,%v, want false", free, err)
	}

	// Empty phones are exempt from uniqueness: two phoneless profiles
	// coexist and never report the empty string as taken.
	for _, email := range []string{"carol@example.com", "dave@example.com"} {
		p := a
		p.ID = domain.MemberID(uuid.NewString())
		p.Email = email
		p.Phone = ""
		if _, err := store.Create(ctx, p); err != nil {
			t.Fatalf("Create phoneless %s: %v", email, err)
		}
	}
	emptyTaken, err := store.PhoneInUse(ctx, "")
	if err != nil || emptyTaken {
		t.Fatalf("PhoneInUse(\"\")=%v,%v, want false", emptyTaken, err)
	}

	// Patch semantics: unspecified leaves alone, Some overwrites, Null clears.
	photo := "https://photos.test/a.jpg"
	if _, err := store.Update(ctx, aID, profilestoreport.Patch{
		PhotoURL:   profilestoreport.Some(photo),
		Occupation: profilestoreport.Some("Teacher"),
	}); err != nil {
		t.Fatalf("Update set: %v", err)
	}
	updated, err := store.Update(ctx, aID, profilestoreport.Patch{
		FullName: profilestoreport.Some("Alice J. Johnson"),
		PhotoURL: profilestoreport.Null[string](),
	})
	if err != nil {
		t.Fatalf("Update clear: %v", err)
	}
	if updated.FullName != "Alice J. Johnson" {
		t.Fatalf("FullName=%q", updated.FullName)
	}
	if updated.PhotoURL != nil {
		t.Fatalf("PhotoURL must be cleared, got %q", *updated.PhotoURL)
	}
	if updated.Occupation == nil || *updated.Occupation != "Teacher" {
		t.Fatalf("unspecified field must survive, got %+v", updated.Occupation)
	}
	if !updated.UpdatedAt.After(now) {
		t.Fatalf("UpdatedAt=%v must advance past %v", updated.UpdatedAt, now)
	}

	// Approval flips via patch.
	approved, err := store.Update(ctx, aID, profilestoreport.Patch{IsApproved: profilestoreport.Some(true)})
	if err != nil || !approved.IsApproved {
		t.Fatalf("approve: %+v err=%v", approved, err)
	}

	// Update of a missing profile reports ErrNotFound.
	if _, err := store.Update(ctx, domain.MemberID(uuid.NewString()), profilestoreport.Patch{
		FullName: profilestoreport.Some("Ghost"),
	}); !errors.Is(err, profilestoreport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// ListAll is newest first.
	later := now.Add(time.Hour)
	c := domain.Profile{
		ID:        domain.MemberID(uuid.NewString()),
		Email:     "carla@example.com",
		Role:      domain.RoleMember,
		FullName:  "Carla Marshall",
		Phone:     "+1 555 010 7777",
		CreatedAt: later,
		UpdatedAt: later,
	}
	if _, err := store.Create(ctx, c); err != nil {
		t.Fatalf("Create c: %v", err)
	}
	all, err := store.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("ListAll len=%d, want 4", len(all))
	}
	if all[0].ID != c.ID {
		t.Fatalf("ListAll[0]=%s, want newest %s", all[0].ID, c.ID)
	}
}

func RunAccountStore(t *testing.T, newStore AccountStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	email := "alice@example.com"
	acct, token, err := store.SignUp(ctx, email, "hunter22")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if acct.ID == "" || token == "" {
		t.Fatalf("SignUp returned empty identity: %+v token=%q", acct, token)
	}
	if acct.Email != email {
		t.Fatalf("Email=%q, want %q", acct.Email, email)
	}

	// The issued token resolves to the account.
	resolved, err := store.Session(ctx, token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if resolved.ID != acct.ID {
		t.Fatalf("Session resolved %s, want %s", resolved.ID, acct.ID)
	}

	// Email uniqueness is case-insensitive.
	if _, _, err := store.SignUp(ctx, "ALICE@example.com", "other-pass"); !errors.Is(err, accountstoreport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	// Credential checks.
	if _, _, err := store.SignIn(ctx, email, "wrong"); !errors.Is(err, accountstoreport.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := store.SignIn(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, accountstoreport.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	again, token2, err := store.SignIn(ctx, email, "hunter22")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if again.ID != acct.ID {
		t.Fatalf("SignIn resolved %s, want %s", again.ID, acct.ID)
	}
	if token2 == token {
		t.Fatalf("each sign-in must issue a fresh token")
	}

	// SignOut invalidates exactly the presented token.
	if err := store.SignOut(ctx, token); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := store.Session(ctx, token); !errors.Is(err, accountstoreport.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := store.Session(ctx, token2); err != nil {
		t.Fatalf("other session must survive: %v", err)
	}

	// Signing out an unknown token is not an error.
	if err := store.SignOut(ctx, "bogus"); err != nil {
		t.Fatalf("SignOut bogus: %v", err)
	}
}

func RunSessionStore(t *testing.T, newStore SessionStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	sess := domain.Session{
		ID:    domain.MemberID(uuid.NewString()),
		Email: "alice@example.com",
		Role:  domain.RoleAdmin,
	}
	if err := store.Put(ctx, "tok-1", sess, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, "tok-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID || got.Email != sess.Email || got.Role != domain.RoleAdmin {
		t.Fatalf("unexpected session: %+v", got)
	}

	if _, err := store.Get(ctx, "tok-unknown"); !errors.Is(err, sessionstoreport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "tok-1"); !errors.Is(err, sessionstoreport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Delete is idempotent.
	if err := store.Delete(ctx, "tok-1"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		WizardID: uuid.NewString(),
		BodyHash: "hash-abc",
	}
	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"m-1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || got.StatusCode != 201 || string(got.Body) != `{"id":"m-1"}` {
		t.Fatalf("unexpected record: ok=%v %+v", ok, got)
	}

	// A different body hash is a different submission.
	other := fp
	other.BodyHash = "hash-def"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("expected miss for different hash, ok=%v err=%v", ok, err)
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.StatusCode = 409
	rec2.Body = []byte(`{"error":"conflict"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || got.StatusCode != 409 {
		t.Fatalf("expected overwritten record, got ok=%v err=%v rec=%+v", ok, err, got)
	}
}
