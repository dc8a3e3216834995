// Package store persists the channel subscriptions and the set of videos
// already surfaced to the user. Two backends implement the same contracts:
// plain JSON files (the default, editable out of process) and a bun-backed
// SQL database.
package store

import (
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("entity not found")

// Subscription is the local record of intent for one channel. The hub keeps
// its own subscription state; this is a best-effort cache, not the source of
// truth for it.
type Subscription struct {
	Keyword        string     `json:"keyword,omitempty"`
	CallbackURL    string     `json:"callback_url"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
}

// Subscriptions maps channel ids to their subscription records. Putting an
// existing channel overwrites; it never duplicates.
type Subscriptions interface {
	Load() (map[string]Subscription, error)
	Save(subs map[string]Subscription) error
	Put(channelId string, sub Subscription) error
	Remove(channelId string) error
	// Lookup reads fresh state so out-of-process edits are observed.
	Lookup(channelId string) (Subscription, error)
	// RecordLease stores the hub-granted lease expiry for a known channel.
	RecordLease(channelId string, expiresAt time.Time) error
	// LeaseExpiring lists channels whose lease ends before the deadline or
	// was never recorded.
	LeaseExpiring(deadline time.Time) (map[string]Subscription, error)
}

// SeenVideos tracks ids already notified about, across process restarts.
// Add must be durable before any notification is attempted: losing a write
// risks a duplicate, which is preferred over a silently skipped one.
type SeenVideos interface {
	Contains(videoId string) bool
	Add(videoId string)
}
