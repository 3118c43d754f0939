package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_CapacityIsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := newChatHistory(rng)

	for i := 0; i < 250; i++ {
		h.append(fmt.Sprintf("msg %d", i))
	}

	assert.Len(t, h.entries, maxEntries)
	assert.Equal(t, "msg 50", h.entries[0])
	assert.Equal(t, "msg 249", h.entries[maxEntries-1])
}

func TestAppend_EvictionRemapsUsedIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := newChatHistory(rng)

	for i := 0; i < maxEntries; i++ {
		h.append(fmt.Sprintf("msg %d", i))
	}
	h.used = map[int]struct{}{0: {}, 5: {}, 150: {}}

	h.append("overflow")

	assert.Len(t, h.entries, maxEntries)
	assert.Equal(t, map[int]struct{}{4: {}, 149: {}}, h.used, "indices shift by one, negatives dropped")
}

func TestPick_ExcludesNewestEntry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	h := newChatHistory(rng)
	for _, e := range []string{"a", "b", "c", "d"} {
		h.append(e)
	}

	for i := 0; i < 100; i++ {
		h.used = make(map[int]struct{})
		picked, ok := h.pick(rng)
		require.True(t, ok)
		assert.NotEqual(t, "d", picked)
	}
}

func TestPick_NeedsAtLeastTwoEntries(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	h := newChatHistory(rng)
	_, ok := h.pick(rng)
	assert.False(t, ok)

	h.append("only")
	_, ok = h.pick(rng)
	assert.False(t, ok)

	h.append("second")
	picked, ok := h.pick(rng)
	require.True(t, ok)
	assert.Equal(t, "only", picked)
}

func TestPick_BiasedTowardRecentCandidates(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	counts := make(map[string]int)

	for i := 0; i < 6000; i++ {
		h := newChatHistory(rng)
		for _, e := range []string{"oldest", "middle", "recent", "newest"} {
			h.append(e)
		}
		picked, ok := h.pick(rng)
		require.True(t, ok)
		counts[picked]++
	}

	// Candidates are oldest/middle/recent with weights 1/2/3.
	assert.Zero(t, counts["newest"])
	assert.Greater(t, counts["recent"], counts["middle"])
	assert.Greater(t, counts["middle"], counts["oldest"])
}

func TestPick_WithoutReplacementUntilExhausted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := newChatHistory(rng)
	for _, e := range []string{"a", "b", "c", "d"} {
		h.append(e)
	}

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		picked, ok := h.pick(rng)
		require.True(t, ok)
		assert.False(t, seen[picked], "no repeats before exhaustion")
		seen[picked] = true
	}
	assert.Len(t, h.used, 3)

	// Pool exhausted: the next draw resets eligibility and still succeeds.
	picked, ok := h.pick(rng)
	require.True(t, ok)
	assert.True(t, seen[picked])
	assert.Len(t, h.used, 1)
}
