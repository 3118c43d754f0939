package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
	"monkeybot/internal/common/ratelimit"
	"monkeybot/internal/features/farm/models"
)

// Cooldown is the fixed claim interval, per user across all chats.
const Cooldown = 3 * time.Hour

// Gateway is the slice of the messaging client the farm needs.
type Gateway interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error
}

// ActivityStats is the read-only view of the leaderboard the farm uses for
// profile counts and export name resolution.
type ActivityStats interface {
	DailyCount(chatID, userID int64) int
	ResolveName(userID int64) (string, bool)
}

type Service struct {
	gw        Gateway
	cooldowns *ratelimit.Table
	stats     ActivityStats
	clock     clockwork.Clock
	log       zerolog.Logger

	mu       sync.Mutex
	rng      *rand.Rand // guarded by mu
	accounts map[int64]*models.Account
}

func New(gw Gateway, cooldowns *ratelimit.Table, stats ActivityStats, clock clockwork.Clock, rng *rand.Rand, log zerolog.Logger) *Service {
	return &Service{
		gw:        gw,
		cooldowns: cooldowns,
		stats:     stats,
		clock:     clock,
		log:       log.With().Str("component", "farm").Logger(),
		rng:       rng,
		accounts:  make(map[int64]*models.Account),
	}
}

// AccountCount returns the number of known farm accounts.
func (s *Service) AccountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// Balance returns the user's current balance, zero for unknown users.
func (s *Service) Balance(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acct, ok := s.accounts[userID]; ok {
		return acct.Balance
	}
	return 0
}

// Claim farms a reward for the user, or reports the remaining cooldown.
func (s *Service) Claim(ctx context.Context, chatID, userID, requestMsgID int64) {
	key := ratelimit.Key{Scope: "farm", User: userID}
	if !s.cooldowns.Allow(key, Cooldown) {
		metrics.FarmClaimsTotal.WithLabelValues("cooldown").Inc()
		left := s.cooldowns.Remaining(key, Cooldown)
		s.replyBestEffort(ctx, chatID, requestMsgID,
			fmt.Sprintf("⏳ Ты уже фармил! Возвращайся через %s.", formatCooldown(left)))
		return
	}

	s.mu.Lock()
	reward := drawReward(s.rng)
	acct, ok := s.accounts[userID]
	if !ok {
		acct = &models.Account{}
		s.accounts[userID] = acct
	}
	acct.Balance += reward
	acct.LastFarmAt = s.clock.Now()
	s.mu.Unlock()

	metrics.FarmClaimsTotal.WithLabelValues("granted").Inc()
	s.log.Info().Int64("user", userID).Int("reward", reward).Msg("farm claim granted")
	s.replyBestEffort(ctx, chatID, requestMsgID,
		fmt.Sprintf("🍌 Ты нафармил %d %s! Следующая фарма через 3 часа.",
			reward, pluralRu(reward, "банан", "банана", "бананов")))
}

// Profile reports balance and trailing-24h message count. Read-only: an
// unknown user gets a zero profile, no account is created.
func (s *Service) Profile(ctx context.Context, chatID, userID, requestMsgID int64) {
	balance := s.Balance(userID)
	daily := s.stats.DailyCount(chatID, userID)

	s.replyBestEffort(ctx, chatID, requestMsgID,
		fmt.Sprintf("👤 Твой профиль\n🍌 Бананов: %d\n✉️ Сообщений за 24 часа: %d", balance, daily))
}

// Export sends every known account as a "{name} - {balance}" text document.
// Admin only.
func (s *Service) Export(ctx context.Context, chatID, requesterID, requestMsgID int64) {
	status, err := s.gw.GetChatMember(ctx, chatID, requesterID)
	if err != nil || (status != "administrator" && status != "creator") {
		s.replyBestEffort(ctx, chatID, requestMsgID, "Выгрузка доступна только админам 🐒")
		return
	}

	s.mu.Lock()
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		name, ok := s.stats.ResolveName(id)
		if !ok {
			name = strconv.FormatInt(id, 10)
		}
		lines = append(lines, fmt.Sprintf("%s - %d", name, s.accounts[id].Balance))
	}
	s.mu.Unlock()

	data := []byte(strings.Join(lines, "\n"))
	if err := s.gw.SendDocument(ctx, chatID, "farm_export.txt", data); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send farm export")
	}
}

// drawReward picks a tier by cumulative probability, then a uniform value
// within it. The last tier absorbs floating point leftovers.
func drawReward(rng *rand.Rand) int {
	r := rng.Float64()
	cum := 0.0
	for _, tier := range models.RewardTiers {
		cum += tier.Probability
		if r < cum {
			return tier.Min + rng.Intn(tier.Max-tier.Min+1)
		}
	}
	last := models.RewardTiers[len(models.RewardTiers)-1]
	return last.Min + rng.Intn(last.Max-last.Min+1)
}

func (s *Service) replyBestEffort(ctx context.Context, chatID, replyTo int64, text string) {
	if _, err := s.gw.Reply(ctx, chatID, replyTo, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send reply")
	}
}
