package service

import "math/rand"

const maxEntries = 200

// chatHistory is the bounded per-chat message log plus the two interval
// counters driving automatic echoes.
type chatHistory struct {
	entries []string
	used    map[int]struct{}

	msgCount  int
	msgTarget int

	reactCount  int
	reactTarget int
}

func newChatHistory(rng *rand.Rand) *chatHistory {
	return &chatHistory{
		used:        make(map[int]struct{}),
		msgTarget:   msgTargets[rng.Intn(len(msgTargets))],
		reactTarget: reactTargets[rng.Intn(len(reactTargets))],
	}
}

// append stores text, evicting the oldest entries beyond capacity. Used
// indices shift down with the eviction; indices that fall below zero vanish.
func (h *chatHistory) append(text string) {
	h.entries = append(h.entries, text)
	evicted := len(h.entries) - maxEntries
	if evicted <= 0 {
		return
	}

	copy(h.entries, h.entries[evicted:])
	h.entries = h.entries[:maxEntries]

	remapped := make(map[int]struct{}, len(h.used))
	for idx := range h.used {
		if idx-evicted >= 0 {
			remapped[idx-evicted] = struct{}{}
		}
	}
	h.used = remapped
}

// pick draws one entry, excluding the newest and all previously drawn
// indices. When every candidate has been drawn the pool resets, so a draw
// always succeeds while at least two entries exist. Weights decrease
// linearly with age: candidate k in ascending index order carries weight
// k+1, making the most recent eligible entry the most likely draw.
func (h *chatHistory) pick(rng *rand.Rand) (string, bool) {
	limit := len(h.entries) - 1
	if limit < 1 {
		return "", false
	}

	candidates := make([]int, 0, limit)
	for i := 0; i < limit; i++ {
		if _, drawn := h.used[i]; !drawn {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		h.used = make(map[int]struct{})
		for i := 0; i < limit; i++ {
			candidates = append(candidates, i)
		}
	}

	total := len(candidates)
	r := rng.Intn(total * (total + 1) / 2)
	chosen := candidates[total-1]
	for k, idx := range candidates {
		if r -= k + 1; r < 0 {
			chosen = idx
			break
		}
	}

	h.used[chosen] = struct{}{}
	return h.entries[chosen], true
}
