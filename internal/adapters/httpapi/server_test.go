package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	memaccountstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/accountstore"
	memclock "github.com/ifiscoder/CommunityApp/internal/adapters/memory/clock"
	memdeletion "github.com/ifiscoder/CommunityApp/internal/adapters/memory/deletion"
	memfeed "github.com/ifiscoder/CommunityApp/internal/adapters/memory/feed"
	memidempotency "github.com/ifiscoder/CommunityApp/internal/adapters/memory/idempotency"
	memphotostore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/photostore"
	memprofilestore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/profilestore"
	memsessionstore "github.com/ifiscoder/CommunityApp/internal/adapters/memory/sessionstore"
	memtokencache "github.com/ifiscoder/CommunityApp/internal/adapters/memory/tokencache"
	"github.com/ifiscoder/CommunityApp/internal/app/adminflow"
	"github.com/ifiscoder/CommunityApp/internal/app/authctl"
	"github.com/ifiscoder/CommunityApp/internal/app/photos"
	"github.com/ifiscoder/CommunityApp/internal/domain"
)

type harness struct {
	handler  http.Handler
	accounts *memaccountstore.Store
	profiles *memprofilestore.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	sessions := memsessionstore.NewStore(clk)
	accounts := memaccountstore.NewStore(sessions, time.Hour)
	profiles := memprofilestore.NewStore(clk)
	photoStore := memphotostore.NewStore()
	feed := memfeed.NewFeed()
	logger := log.New(io.Discard, "", 0)

	ctl := authctl.NewController(accounts, profiles, memtokencache.NewCache(), feed, clk, logger)
	actions := adminflow.NewActions(profiles, memdeletion.NewDeleter(accounts, profiles), feed, logger)
	directory := adminflow.NewDirectory(profiles, logger)
	photoSvc := photos.NewService(photoStore, ctl, photos.Config{}, logger)

	srv := NewServer(ctl, actions, directory, photoSvc, profiles, memidempotency.NewStore(), logger)
	return &harness{
		handler:  NewRouter(srv),
		accounts: accounts,
		profiles: profiles,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

var registrationFields = map[string]map[string]string{
	"account": {
		"email":    "alice@example.com",
		"password": "hunter22",
	},
	"personalInfo": {
		"fullName": "Alice Johnson",
		"phone":    "+1 555 010 0001",
	},
	"address": {
		"addressStreet": "1 Main St",
		"addressCity":   "Oakland",
		"addressState":  "CA",
		"addressPostal": "94601",
	},
}

// registerMember drives the full wizard over HTTP and returns the final
// submit response.
func (h *harness) registerMember(t *testing.T, email, phone string) *httptest.ResponseRecorder {
	t.Helper()

	start := h.do(t, http.MethodPost, "/register", nil)
	if start.Code != http.StatusCreated {
		t.Fatalf("start: status=%d body=%s", start.Code, start.Body)
	}
	state := decodeBody[wizardStateDTO](t, start)
	id := state.WizardID

	account := map[string]string{"email": email, "password": "hunter22"}
	personal := map[string]string{"fullName": "Alice Johnson", "phone": phone}
	for _, fields := range []map[string]string{account, personal} {
		rec := h.do(t, http.MethodPost, "/register/"+id+"/next", map[string]any{"fields": fields})
		if rec.Code != http.StatusOK {
			t.Fatalf("next: status=%d body=%s", rec.Code, rec.Body)
		}
		state = decodeBody[wizardStateDTO](t, rec)
		if len(state.Errors) != 0 {
			t.Fatalf("next: unvalidated errors %v", state.Errors)
		}
	}
	return h.do(t, http.MethodPost, "/register/"+id+"/submit", map[string]any{
		"fields": registrationFields["address"],
	})
}

func TestRegistrationFlowOverHTTP(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	submit := h.registerMember(t, "alice@example.com", "+1 555 010 0001")
	if submit.Code != http.StatusCreated {
		t.Fatalf("submit: status=%d body=%s", submit.Code, submit.Body)
	}
	state := decodeBody[wizardStateDTO](t, submit)
	if state.Submission != "done" {
		t.Fatalf("submission=%q", state.Submission)
	}
	if _, ok := state.Draft["password"]; ok {
		t.Fatalf("password must never be echoed back")
	}

	// The process is now signed in with the fresh profile.
	st := decodeBody[stateDTO](t, h.do(t, http.MethodGet, "/state", nil))
	if st.User == nil || st.Profile == nil {
		t.Fatalf("state=%+v, want session and profile together", st)
	}
	if st.Profile.IsApproved || st.Profile.IsVerified {
		t.Fatalf("fresh profile must start unapproved: %+v", st.Profile)
	}
}

func TestRegistrationStepGateOverHTTP(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	start := decodeBody[wizardStateDTO](t, h.do(t, http.MethodPost, "/register", nil))
	rec := h.do(t, http.MethodPost, "/register/"+start.WizardID+"/next", map[string]any{
		"fields": map[string]string{"email": "not-an-email", "password": "123"},
	})
	state := decodeBody[wizardStateDTO](t, rec)
	if state.Step != "account" {
		t.Fatalf("step=%q, want account to hold", state.Step)
	}
	if state.Errors["email"] == "" || state.Errors["password"] == "" {
		t.Fatalf("errors=%v, want both fields flagged", state.Errors)
	}
}

func TestSubmitBeforeFinalStepIsRejectedOverHTTP(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	start := decodeBody[wizardStateDTO](t, h.do(t, http.MethodPost, "/register", nil))
	rec := h.do(t, http.MethodPost, "/register/"+start.WizardID+"/submit", map[string]any{
		"fields": registrationFields["account"],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	state := decodeBody[wizardStateDTO](t, rec)
	if state.Submission != "idle" || state.Step != "account" {
		t.Fatalf("submission=%q step=%q, want an untouched account step", state.Submission, state.Step)
	}
	if all, _ := h.profiles.ListAll(context.Background()); len(all) != 0 {
		t.Fatalf("no profile may exist after a premature submit: %v", all)
	}
}

func TestUnknownWizardFieldIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	start := decodeBody[wizardStateDTO](t, h.do(t, http.MethodPost, "/register", nil))
	rec := h.do(t, http.MethodPost, "/register/"+start.WizardID+"/next", map[string]any{
		"fields": map[string]string{"email": "alice@example.com", "serialNumber": "x"},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%q body=%s", resp.Error.Code, rec.Body)
	}
}

func TestSubmitReplayIsIdempotent(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	start := decodeBody[wizardStateDTO](t, h.do(t, http.MethodPost, "/register", nil))
	id := start.WizardID

	fields := map[string]any{"fields": map[string]string{
		"email": "alice@example.com", "password": "hunter22",
		"fullName": "Alice Johnson", "phone": "+1 555 010 0001",
		"addressStreet": "1 Main St", "addressCity": "Oakland",
		"addressState": "CA", "addressPostal": "94601",
	}}
	h.do(t, http.MethodPost, "/register/"+id+"/next", fields)
	h.do(t, http.MethodPost, "/register/"+id+"/next", nil)

	first := h.do(t, http.MethodPost, "/register/"+id+"/submit", fields)
	if first.Code != http.StatusCreated {
		t.Fatalf("first submit: status=%d body=%s", first.Code, first.Body)
	}

	// Same wizard, same body: the recorded response replays instead of
	// reaching the account store again.
	second := h.do(t, http.MethodPost, "/register/"+id+"/submit", fields)
	if second.Code != http.StatusCreated {
		t.Fatalf("replay: status=%d body=%s", second.Code, second.Body)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replay body differs:\n%s\n%s", first.Body, second.Body)
	}
	all, _ := h.profiles.ListAll(context.Background())
	if len(all) != 1 {
		t.Fatalf("profiles=%d, want exactly one", len(all))
	}
}

func TestSignInRejectionUsesEnvelope(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/signin", map[string]string{
		"email": "nobody@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error.Code != "AUTHENTICATION_FAILED" {
		t.Fatalf("code=%q", resp.Error.Code)
	}
	if rid, err := resp.Error.RequestId.Get(); err != nil || rid == "" {
		t.Fatalf("requestId missing: %v", err)
	}
}

func TestPatchMeTriState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if rec := h.registerMember(t, "alice@example.com", "+1 555 010 0001"); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}

	set := h.do(t, http.MethodPatch, "/me", map[string]any{"occupation": "Teacher"})
	if set.Code != http.StatusOK {
		t.Fatalf("set: status=%d body=%s", set.Code, set.Body)
	}
	p := decodeBody[profileDTO](t, set)
	if p.Occupation == nil || *p.Occupation != "Teacher" {
		t.Fatalf("occupation=%v", p.Occupation)
	}

	clear := h.do(t, http.MethodPatch, "/me", json.RawMessage(`{"occupation":null}`))
	p = decodeBody[profileDTO](t, clear)
	if p.Occupation != nil {
		t.Fatalf("null must clear the field, got %q", *p.Occupation)
	}

	// An absent field stays untouched.
	again := decodeBody[profileDTO](t, h.do(t, http.MethodPatch, "/me", map[string]any{"addressCity": "Berkeley"}))
	if again.FullName != "Alice Johnson" || again.AddressCity != "Berkeley" {
		t.Fatalf("profile=%+v", again)
	}
}

func TestPatchMeValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if rec := h.registerMember(t, "alice@example.com", "+1 555 010 0001"); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}

	rec := h.do(t, http.MethodPatch, "/me", map[string]any{"phone": "123"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("code=%q", resp.Error.Code)
	}
}

func TestAdminGuard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	// Signed out: 401.
	if rec := h.do(t, http.MethodGet, "/admin/members", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("signed out: status=%d", rec.Code)
	}

	// Signed in as plain member: 403.
	if rec := h.registerMember(t, "alice@example.com", "+1 555 010 0001"); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}
	if rec := h.do(t, http.MethodGet, "/admin/members", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("member: status=%d", rec.Code)
	}
}

func (h *harness) signInAsAdmin(t *testing.T) {
	t.Helper()
	if rec := h.registerMember(t, "admin@example.com", "+1 555 010 0009"); rec.Code != http.StatusCreated {
		t.Fatalf("register admin: %d %s", rec.Code, rec.Body)
	}
	h.accounts.SetRoleMetadata("admin@example.com", "admin")
	rec := h.do(t, http.MethodPost, "/auth/signin", map[string]string{
		"email": "admin@example.com", "password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin signin: %d %s", rec.Code, rec.Body)
	}
}

func TestAdminApproveAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signInAsAdmin(t)

	// Seed one pending member directly in the store.
	now := time.Unix(500, 0).UTC()
	seeded := "m-pending"
	if _, err := h.profiles.Create(context.Background(), profileFixture(seeded, "Bob Marsh", "bob@example.com", "+1 555 010 0002", now)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	list := decodeBody[directoryResponse](t, h.do(t, http.MethodGet, "/admin/members?filter=pending", nil))
	if list.Stats.Pending != 2 || list.Stats.Total != 2 {
		t.Fatalf("stats=%+v", list.Stats)
	}

	// Approve requires explicit confirmation.
	if rec := h.do(t, http.MethodPost, "/admin/members/"+seeded+"/approve", map[string]any{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("unconfirmed approve: status=%d", rec.Code)
	}
	if p, _ := h.profiles.Get(context.Background(), "m-pending"); p.IsApproved {
		t.Fatalf("no status change may fire before confirmation")
	}

	approve := h.do(t, http.MethodPost, "/admin/members/"+seeded+"/approve", map[string]any{"confirm": true})
	if approve.Code != http.StatusOK {
		t.Fatalf("approve: status=%d body=%s", approve.Code, approve.Body)
	}
	if p := decodeBody[profileDTO](t, approve); !p.IsApproved {
		t.Fatalf("approve response not re-fetched: %+v", p)
	}

	del := h.do(t, http.MethodDelete, "/admin/members/"+seeded, map[string]any{"confirm": true})
	if del.Code != http.StatusNoContent {
		t.Fatalf("delete: status=%d body=%s", del.Code, del.Body)
	}
	if p, _ := h.profiles.Get(context.Background(), "m-pending"); p != nil {
		t.Fatalf("member must be gone after privileged delete")
	}
	if rec := h.do(t, http.MethodGet, "/admin/members/"+seeded, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("detail after delete: status=%d", rec.Code)
	}
}

func TestPhotoUploadOverHTTP(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if rec := h.registerMember(t, "alice@example.com", "+1 555 010 0001"); rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", "me.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/me/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: status=%d body=%s", rec.Code, rec.Body)
	}
	resp := decodeBody[map[string]string](t, rec)
	url := resp["photoUrl"]
	if !strings.HasPrefix(url, "mem://photos/") {
		t.Fatalf("photoUrl=%q", url)
	}

	st := decodeBody[stateDTO](t, h.do(t, http.MethodGet, "/state", nil))
	if st.Profile == nil || st.Profile.PhotoURL == nil || *st.Profile.PhotoURL != url {
		t.Fatalf("profile photo url not republished: %+v", st.Profile)
	}

	if rec := h.do(t, http.MethodDelete, "/me/photo", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("photo delete: status=%d", rec.Code)
	}
}

func profileFixture(id, name, email, phone string, now time.Time) domain.Profile {
	return domain.Profile{
		ID:        domain.MemberID(id),
		Email:     email,
		Role:      domain.RoleMember,
		FullName:  name,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
