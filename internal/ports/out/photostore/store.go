package photostore

import (
	"context"
	"errors"

	"github.com/ifiscoder/CommunityApp/internal/domain"
)

// ErrUploadFailed indicates the object store rejected or lost the write.
var ErrUploadFailed = errors.New("photo upload failed")

// Store is the external object storage for member photos. Size and format
// validation happens before Put is called; the store only moves bytes.
type Store interface {
	// Put stores the photo under the member's prefix and returns a public URL.
	Put(ctx context.Context, id domain.MemberID, data []byte, contentType string) (string, error)

	// Remove deletes the object behind a previously returned URL. Removing an
	// unknown object is not an error.
	Remove(ctx context.Context, id domain.MemberID, url string) error
}
