package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
	"monkeybot/internal/common/ratelimit"
	"monkeybot/internal/platform/telegram"
)

const (
	ViewDaily   = "daily"
	ViewAllTime = "alltime"

	// CallbackPrefix tags refresh buttons; the view type follows it.
	CallbackPrefix = "lb:refresh:"

	refreshInterval = 15 * time.Second
	dailyWindow     = 24 * time.Hour
	topSize         = 10
)

// Gateway is the slice of the messaging client the leaderboard needs.
type Gateway interface {
	SendWithKeyboard(ctx context.Context, chatID int64, text string, kb telegram.InlineKeyboardMarkup) (int64, error)
	EditWithKeyboard(ctx context.Context, chatID, messageID int64, text string, kb telegram.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// chatStats holds one chat's counters. allTime only ever grows; daily holds
// raw event timestamps pruned to the trailing window on every read.
type chatStats struct {
	allTime   map[int64]int
	daily     map[int64][]time.Time
	names     map[int64]string
	firstSeen map[int64]int
	seq       int
}

func newChatStats() *chatStats {
	return &chatStats{
		allTime:   make(map[int64]int),
		daily:     make(map[int64][]time.Time),
		names:     make(map[int64]string),
		firstSeen: make(map[int64]int),
	}
}

func (st *chatStats) pruneDaily(userID int64, now time.Time) {
	events := st.daily[userID]
	cutoff := now.Add(-dailyWindow)
	keep := events[:0]
	for _, ts := range events {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	st.daily[userID] = keep
}

type Service struct {
	gw      Gateway
	limiter *ratelimit.Table
	clock   clockwork.Clock
	log     zerolog.Logger

	mu    sync.Mutex
	chats map[int64]*chatStats
}

func New(gw Gateway, limiter *ratelimit.Table, clock clockwork.Clock, log zerolog.Logger) *Service {
	return &Service{
		gw:      gw,
		limiter: limiter,
		clock:   clock,
		log:     log.With().Str("component", "leaderboard").Logger(),
		chats:   make(map[int64]*chatStats),
	}
}

func (s *Service) stats(chatID int64) *chatStats {
	st, ok := s.chats[chatID]
	if !ok {
		st = newChatStats()
		s.chats[chatID] = st
	}
	return st
}

// ChatCount returns the number of chats with recorded activity.
func (s *Service) ChatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

// Record books one qualifying message for the user.
func (s *Service) Record(chatID, userID int64, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats(chatID)
	st.allTime[userID]++
	if _, seen := st.firstSeen[userID]; !seen {
		st.firstSeen[userID] = st.seq
		st.seq++
	}
	st.daily[userID] = append(st.daily[userID], s.clock.Now())
	if displayName != "" {
		st.names[userID] = displayName
	}
}

// DailyCount returns the user's message count over the trailing 24 hours.
func (s *Service) DailyCount(chatID, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.chats[chatID]
	if !ok {
		return 0
	}
	st.pruneDaily(userID, s.clock.Now())
	return len(st.daily[userID])
}

// ResolveName finds a display name for the user in any chat's records,
// first match wins. Best effort: the export path falls back to the raw id.
func (s *Service) ResolveName(userID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range s.chats {
		if name, ok := st.names[userID]; ok {
			return name, true
		}
	}
	return "", false
}

// ShowDaily sends the trailing-24h top list with a refresh button.
func (s *Service) ShowDaily(ctx context.Context, chatID int64) {
	s.show(ctx, chatID, ViewDaily)
}

// ShowAllTime sends the all-time top list with a refresh button.
func (s *Service) ShowAllTime(ctx context.Context, chatID int64) {
	s.show(ctx, chatID, ViewAllTime)
}

func (s *Service) show(ctx context.Context, chatID int64, view string) {
	text := s.render(chatID, view)
	if _, err := s.gw.SendWithKeyboard(ctx, chatID, text, keyboard(view)); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Str("view", view).Msg("failed to send leaderboard")
	}
}

// HandleRefresh re-renders a leaderboard message in place. At most one
// refresh per 15s per (chat, user, view); a denied request answers the
// callback with a transient notice and performs no edit, so the displayed
// content and the cooldown timestamp stay untouched.
func (s *Service) HandleRefresh(ctx context.Context, chatID, userID, messageID int64, callbackID, view string) {
	key := ratelimit.Key{Scope: "lb", Chat: chatID, User: userID, View: view}
	if !s.limiter.Allow(key, refreshInterval) {
		metrics.RefreshesTotal.WithLabelValues(view, "limited").Inc()
		if err := s.gw.AnswerCallback(ctx, callbackID, "Не так часто! Подожди немного.", true); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to answer callback")
		}
		return
	}

	metrics.RefreshesTotal.WithLabelValues(view, "granted").Inc()
	text := s.render(chatID, view)
	if err := s.gw.EditWithKeyboard(ctx, chatID, messageID, text, keyboard(view)); err != nil {
		// Commonly "message is not modified" when nothing changed.
		s.log.Debug().Err(err).Int64("chat", chatID).Str("view", view).Msg("leaderboard edit rejected")
	}
	if err := s.gw.AnswerCallback(ctx, callbackID, "", false); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to answer callback")
	}
}

type entry struct {
	userID int64
	count  int
	order  int
}

func (s *Service) render(chatID int64, view string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := "🏆 Топ активных за всё время:"
	if view == ViewDaily {
		header = "🏆 Топ активных за 24 часа:"
	}

	st, ok := s.chats[chatID]
	if !ok {
		return header + "\n\nПока пусто."
	}

	now := s.clock.Now()
	entries := make([]entry, 0, len(st.allTime))
	if view == ViewDaily {
		for userID := range st.daily {
			st.pruneDaily(userID, now)
			if n := len(st.daily[userID]); n > 0 {
				entries = append(entries, entry{userID, n, st.firstSeen[userID]})
			}
		}
	} else {
		for userID, n := range st.allTime {
			entries = append(entries, entry{userID, n, st.firstSeen[userID]})
		}
	}

	// Descending by count, ties broken by first-seen order.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].order < entries[j].order
	})
	if len(entries) > topSize {
		entries = entries[:topSize]
	}

	if len(entries) == 0 {
		return header + "\n\nПока пусто."
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for i, e := range entries {
		name, ok := st.names[e.userID]
		if !ok {
			name = strconv.FormatInt(e.userID, 10)
		}
		b.WriteString(fmt.Sprintf("\n%d. %s — %d", i+1, name, e.count))
	}
	return b.String()
}

func keyboard(view string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "🔄 Обновить", CallbackData: CallbackPrefix + view},
		}},
	}
}
