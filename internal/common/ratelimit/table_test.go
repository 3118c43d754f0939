package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestTable_AllowOncePerInterval(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := NewTable(clock)
	key := Key{Scope: "farm", User: 42}

	assert.True(t, table.Allow(key, 3*time.Hour))
	assert.False(t, table.Allow(key, 3*time.Hour))

	clock.Advance(3 * time.Hour)
	assert.True(t, table.Allow(key, 3*time.Hour))
}

func TestTable_DenyDoesNotExtendWindow(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := NewTable(clock)
	key := Key{Scope: "lb", Chat: 100, User: 1, View: "daily"}

	assert.True(t, table.Allow(key, 15*time.Second))

	// Denied attempt at 14s must not move the timestamp.
	clock.Advance(14 * time.Second)
	assert.False(t, table.Allow(key, 15*time.Second))

	clock.Advance(2 * time.Second)
	assert.True(t, table.Allow(key, 15*time.Second))
}

func TestTable_KeysAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := NewTable(clock)

	daily := Key{Scope: "lb", Chat: 100, User: 1, View: "daily"}
	alltime := Key{Scope: "lb", Chat: 100, User: 1, View: "alltime"}
	otherUser := Key{Scope: "lb", Chat: 100, User: 2, View: "daily"}

	assert.True(t, table.Allow(daily, 15*time.Second))
	assert.True(t, table.Allow(alltime, 15*time.Second))
	assert.True(t, table.Allow(otherUser, 15*time.Second))
	assert.False(t, table.Allow(daily, 15*time.Second))
}

func TestTable_Remaining(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := NewTable(clock)
	key := Key{Scope: "farm", User: 7}

	assert.Equal(t, time.Duration(0), table.Remaining(key, 3*time.Hour))

	table.Allow(key, 3*time.Hour)
	clock.Advance(45 * time.Minute)
	assert.Equal(t, 2*time.Hour+15*time.Minute, table.Remaining(key, 3*time.Hour))

	clock.Advance(3 * time.Hour)
	assert.Equal(t, time.Duration(0), table.Remaining(key, 3*time.Hour))
}

func TestTable_NoDoubleGrantUnderConcurrency(t *testing.T) {
	clock := clockwork.NewFakeClock()
	table := NewTable(clock)
	key := Key{Scope: "farm", User: 9}

	var granted int64
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if table.Allow(key, time.Hour) {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&granted))
}
