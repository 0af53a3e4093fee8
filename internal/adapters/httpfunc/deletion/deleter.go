// Package deletion calls the privileged deletion function over HTTP. The
// function holds the only credential able to remove accounts; the gateway
// authenticates to it with a short-lived service token.
package deletion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	"github.com/ifiscoder/CommunityApp/internal/platform/servicetoken"
	deletionport "github.com/ifiscoder/CommunityApp/internal/ports/out/deletion"
)

// Deleter implements deletion.Deleter against a remote function endpoint.
type Deleter struct {
	url    string
	actor  string
	minter *servicetoken.Minter
	client *http.Client
}

// NewDeleter builds a client for the function at url. actor names the service
// identity placed in minted tokens for audit logging at the function side.
func NewDeleter(url, actor string, minter *servicetoken.Minter, client *http.Client) *Deleter {
	if actor == "" {
		actor = "memberd"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Deleter{url: url, actor: actor, minter: minter, client: client}
}

type deleteRequest struct {
	MemberID string `json:"member_id"`
}

func (d *Deleter) DeleteMember(ctx context.Context, id domain.MemberID) error {
	token, err := d.minter.Mint(d.actor, time.Now())
	if err != nil {
		return err
	}

	body, err := json.Marshal(deleteRequest{MemberID: string(id)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("deletion function: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return deletionport.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return deletionport.ErrNotFound
	default:
		return fmt.Errorf("deletion function: unexpected status %d", resp.StatusCode)
	}
}
