package adminflow

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/ifiscoder/CommunityApp/internal/domain"
	feedport "github.com/ifiscoder/CommunityApp/internal/ports/out/feed"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Filter narrows the directory by approval status.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterPending  Filter = "pending"
	FilterApproved Filter = "approved"
)

// ParseFilter maps a raw filter string to a Filter, defaulting to all.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPending:
		return FilterPending
	case FilterApproved:
		return FilterApproved
	default:
		return FilterAll
	}
}

// Stats are the dashboard counters derived from the same snapshot the
// projection reads.
type Stats struct {
	Total    int
	Approved int
	Pending  int
}

// Project recomputes the filtered, searched view over a profile snapshot.
// It is a pure function: filter by approval status, then intersect with a
// case-insensitive substring match across name, email, phone, and city.
// Input order is preserved.
func Project(all []domain.Profile, filter Filter, query string) []domain.Profile {
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]domain.Profile, 0, len(all))
	for _, p := range all {
		switch filter {
		case FilterPending:
			if p.IsApproved {
				continue
			}
		case FilterApproved:
			if !p.IsApproved {
				continue
			}
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p domain.Profile, q string) bool {
	return strings.Contains(strings.ToLower(p.FullName), q) ||
		strings.Contains(strings.ToLower(p.Email), q) ||
		strings.Contains(strings.ToLower(p.Phone), q) ||
		strings.Contains(strings.ToLower(p.AddressCity), q)
}

// Directory holds the admin member list: a wholesale re-fetched snapshot with
// no partial merges, so a refresh racing an in-flight action just replaces
// the displayed list with the latest server state.
// It is safe for concurrent use.
type Directory struct {
	profiles profilestore.Store
	logger   *log.Logger

	mu  sync.RWMutex
	all []domain.Profile
}

func NewDirectory(profiles profilestore.Store, logger *log.Logger) *Directory {
	if logger == nil {
		logger = log.Default()
	}
	return &Directory{profiles: profiles, logger: logger}
}

// Refresh replaces the snapshot from the store.
func (d *Directory) Refresh(ctx context.Context) error {
	all, err := d.profiles.ListAll(ctx)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.all = all
	d.mu.Unlock()
	return nil
}

// Snapshot returns the current profile list, newest first.
func (d *Directory) Snapshot() []domain.Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.Profile, len(d.all))
	copy(out, d.all)
	return out
}

// View projects the snapshot through filter+query and returns it with the
// stats for the unfiltered snapshot.
func (d *Directory) View(filter Filter, query string) ([]domain.Profile, Stats) {
	all := d.Snapshot()
	stats := Stats{Total: len(all)}
	for _, p := range all {
		if p.IsApproved {
			stats.Approved++
		} else {
			stats.Pending++
		}
	}
	return Project(all, filter, query), stats
}

// Watch funnels change-feed notifications into Refresh until ctx is done.
// The transport behind the subscription (push, polling, foreground events)
// is the feed adapter's concern; every event means the same thing here:
// invalidate and re-fetch.
func (d *Directory) Watch(ctx context.Context, sub feedport.Subscriber) error {
	events, stop, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				if err := d.Refresh(ctx); err != nil {
					d.logger.Printf("adminflow: directory refresh: %v", err)
				}
			}
		}
	}()
	return nil
}
