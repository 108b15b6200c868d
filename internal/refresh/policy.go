// Package refresh decides how often the polling web page should reload.
// With the mic live the page must stay fresh; with the mic muted it can idle
// on a slow interval unless a typed prompt is in flight.
package refresh

import (
	"time"

	"github.com/geauxailabs/glassprompt/internal/convo"
)

// Policy maps conversation flags to an advertised poll interval.
type Policy struct {
	Fast time.Duration
	Slow time.Duration
}

func NewPolicy(fast, slow time.Duration) Policy {
	if fast <= 0 {
		fast = 4 * time.Second
	}
	if slow <= 0 {
		slow = time.Hour
	}
	return Policy{Fast: fast, Slow: slow}
}

// Interval is the pure policy table: an unmuted mic always polls fast; a
// muted mic polls fast only while a turn is processing or pending.
func (p Policy) Interval(micMuted, processing, pending bool) time.Duration {
	if !micMuted {
		return p.Fast
	}
	if processing || pending {
		return p.Fast
	}
	return p.Slow
}

// ForUser evaluates the policy against live state. Reading the flags through
// RefreshSnapshot consumes the one-shot pendingRefresh signal once the turn
// is no longer processing.
func (p Policy) ForUser(store *convo.Store, userID string) time.Duration {
	micMuted, processing, pending := store.RefreshSnapshot(userID)
	return p.Interval(micMuted, processing, pending)
}
