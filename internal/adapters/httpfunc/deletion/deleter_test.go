package deletion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ifiscoder/CommunityApp/internal/platform/servicetoken"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
)

func newDeleterTest(t *testing.T, handler http.HandlerFunc) (*Deleter, servicetoken.Config) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := servicetoken.Config{Secret: "test-secret", Issuer: "memberd.test"}
	return NewDeleter(srv.URL, "memberd", servicetoken.NewMinter(cfg), srv.Client()), cfg
}

func TestDeleteMemberSendsServiceTokenAndBody(t *testing.T) {
	t.Parallel()

	var gotAuth, gotBody string
	d, cfg := newDeleterTest(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		var req deleteRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotBody = req.MemberID
		w.WriteHeader(http.StatusOK)
	})

	if err := d.DeleteMember(context.Background(), "m-1"); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	if gotBody != "m-1" {
		t.Fatalf("member_id=%q", gotBody)
	}
	raw, ok := strings.CutPrefix(gotAuth, "Bearer ")
	if !ok {
		t.Fatalf("authorization=%q, want bearer token", gotAuth)
	}
	claims, err := servicetoken.Verify(cfg, raw)
	if err != nil {
		t.Fatalf("presented token does not verify: %v", err)
	}
	if claims.ActorID != "memberd" {
		t.Fatalf("actor=%q", claims.ActorID)
	}
}

func TestDeleteMemberMapsStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, deletionport.ErrUnauthorized},
		{http.StatusForbidden, deletionport.ErrUnauthorized},
		{http.StatusNotFound, deletionport.ErrNotFound},
	}
	for _, tc := range cases {
		d, _ := newDeleterTest(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		if err := d.DeleteMember(context.Background(), "m-1"); !errors.Is(err, tc.want) {
			t.Errorf("status %d: err=%v, want %v", tc.status, err, tc.want)
		}
	}

	d, _ := newDeleterTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := d.DeleteMember(context.Background(), "m-1")
	if err == nil || errors.Is(err, deletionport.ErrUnauthorized) || errors.Is(err, deletionport.ErrNotFound) {
		t.Fatalf("unexpected mapping for 500: %v", err)
	}
}
