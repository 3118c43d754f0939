package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Key identifies a cooldown scope. Unused fields stay zero: farm claims key
// by user only, leaderboard refreshes by chat, user and view.
type Key struct {
	Scope string
	Chat  int64
	User  int64
	View  string
}

// Table grants each key at most once per interval. A denied request never
// touches the recorded timestamp, so waiting out the original interval is
// always enough.
type Table struct {
	clock clockwork.Clock

	mu   sync.Mutex
	last map[Key]time.Time
}

func NewTable(clock clockwork.Clock) *Table {
	return &Table{
		clock: clock,
		last:  make(map[Key]time.Time),
	}
}

// Allow reports whether at least minInterval has elapsed since the previous
// grant for key (or no grant exists), recording the grant time when it has.
// Check and record happen under one lock acquisition, so two racing callers
// can never both be granted within a single interval.
func (t *Table) Allow(key Key, minInterval time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	if prev, ok := t.last[key]; ok && now.Sub(prev) < minInterval {
		return false
	}

	t.last[key] = now
	return true
}

// Remaining returns how long until key would be granted again, zero when the
// window is already open.
func (t *Table) Remaining(key Key, minInterval time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.last[key]
	if !ok {
		return 0
	}

	if left := minInterval - t.clock.Now().Sub(prev); left > 0 {
		return left
	}
	return 0
}
