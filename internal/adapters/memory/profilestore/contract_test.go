package profilestore

import (
	"testing"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/adapters/contracttest"
	memclock "github.com/ifiscoder/CommunityApp/internal/adapters/memory/clock"
	profilestoreport "github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

func TestContract_MemoryProfileStore(t *testing.T) {
	contracttest.RunProfileStore(t, func(t *testing.T) (profilestoreport.Store, func()) {
		t.Helper()
		return NewStore(memclock.NewManualClock(time.Unix(2000, 0).UTC())), nil
	})
}
