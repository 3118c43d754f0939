package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
	"monkeybot/internal/features/giveaway/models"
)

const announcementText = "🎉 Розыгрыш начался! Отправь любое сообщение, чтобы участвовать."

// Gateway is the slice of the messaging client the giveaway needs.
type Gateway interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	Send(ctx context.Context, chatID int64, text string) (int64, error)
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	Edit(ctx context.Context, chatID, messageID int64, text string) error
	Delete(ctx context.Context, chatID, messageID int64) error
}

type Service struct {
	gw  Gateway
	log zerolog.Logger

	mu    sync.Mutex
	rng   *rand.Rand // guarded by mu
	chats map[int64]*models.State
}

func New(gw Gateway, rng *rand.Rand, log zerolog.Logger) *Service {
	return &Service{
		gw:    gw,
		log:   log.With().Str("component", "giveaway").Logger(),
		rng:   rng,
		chats: make(map[int64]*models.State),
	}
}

func (s *Service) state(chatID int64) *models.State {
	st, ok := s.chats[chatID]
	if !ok {
		st = models.NewState()
		s.chats[chatID] = st
	}
	return st
}

// Active reports whether a giveaway is running in chat.
func (s *Service) Active(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.chats[chatID]
	return ok && st.Active
}

// ActiveCount returns the number of chats with a running giveaway.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range s.chats {
		if st.Active {
			n++
		}
	}
	return n
}

// Start opens a giveaway in chat. Admin only; a second start while one is
// running is refused without touching participants.
func (s *Service) Start(ctx context.Context, chatID, requesterID, requestMsgID int64) {
	if !s.isAdmin(ctx, chatID, requesterID) {
		s.replyBestEffort(ctx, chatID, requestMsgID, "Розыгрыш может запустить только админ 🐒")
		return
	}

	s.mu.Lock()
	st := s.state(chatID)
	if st.Active {
		s.mu.Unlock()
		s.replyBestEffort(ctx, chatID, requestMsgID, "Розыгрыш уже идёт!")
		return
	}
	st.Reset()
	st.Active = true
	s.mu.Unlock()

	anchorID, err := s.gw.Send(ctx, chatID, anchorText(0))
	if err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send giveaway announcement")
		return
	}

	// An /итоги may have raced in while we were sending.
	s.mu.Lock()
	if st := s.state(chatID); st.Active {
		st.AnchorID = anchorID
	}
	s.mu.Unlock()

	metrics.GiveawaysTotal.WithLabelValues("started").Inc()
	s.log.Info().Int64("chat", chatID).Int64("admin", requesterID).Msg("giveaway started")
}

// Join adds a sender to the running giveaway. Bots and slash commands are
// filtered by the router; admins are excluded here. Joining twice is a no-op.
func (s *Service) Join(ctx context.Context, chatID int64, user models.Participant) {
	s.mu.Lock()
	st, ok := s.chats[chatID]
	if !ok || !st.Active {
		s.mu.Unlock()
		return
	}
	if _, joined := st.Participants[user.ID]; joined {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Admin status is checked at join time only; a later promotion does not
	// retroactively disqualify a participant.
	if s.isAdmin(ctx, chatID, user.ID) {
		return
	}

	s.mu.Lock()
	st = s.state(chatID)
	if !st.Active {
		s.mu.Unlock()
		return
	}
	if _, joined := st.Participants[user.ID]; joined {
		s.mu.Unlock()
		return
	}
	st.Participants[user.ID] = user
	st.Order = append(st.Order, user.ID)
	count := len(st.Participants)
	anchorID := st.AnchorID
	s.mu.Unlock()

	if anchorID == 0 {
		return
	}
	if err := s.gw.Edit(ctx, chatID, anchorID, anchorText(count)); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to update giveaway anchor")
	}
}

// End closes the giveaway and announces a uniformly drawn winner. A non-admin
// request is discarded the way moderation discards messages: deleted, no reply.
func (s *Service) End(ctx context.Context, chatID, requesterID, requestMsgID int64) {
	if !s.isAdmin(ctx, chatID, requesterID) {
		if err := s.gw.Delete(ctx, chatID, requestMsgID); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to delete non-admin end request")
		}
		return
	}

	s.mu.Lock()
	st, ok := s.chats[chatID]
	if !ok || !st.Active {
		s.mu.Unlock()
		s.replyBestEffort(ctx, chatID, requestMsgID, "Розыгрыш не запущен.")
		return
	}

	var winner models.Participant
	haveWinner := len(st.Order) > 0
	if haveWinner {
		winner = st.Participants[st.Order[s.rng.Intn(len(st.Order))]]
	}
	st.Reset()
	s.mu.Unlock()

	metrics.GiveawaysTotal.WithLabelValues("finished").Inc()

	if !haveWinner {
		if _, err := s.gw.Send(ctx, chatID, "Розыгрыш окончен, но никто не участвовал 😢"); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to announce empty giveaway")
		}
		return
	}

	name := winner.FirstName
	if winner.Username != "" {
		name = "@" + winner.Username
	}
	text := fmt.Sprintf("🎉 Победитель розыгрыша: %s (%d)", name, winner.ID)
	if _, err := s.gw.Send(ctx, chatID, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to announce winner")
	}
	s.log.Info().Int64("chat", chatID).Int64("winner", winner.ID).Msg("giveaway finished")
}

// isAdmin treats any gateway failure as "not admin".
func (s *Service) isAdmin(ctx context.Context, chatID, userID int64) bool {
	status, err := s.gw.GetChatMember(ctx, chatID, userID)
	if err != nil {
		s.log.Debug().Err(err).Int64("chat", chatID).Int64("user", userID).Msg("admin check failed")
		return false
	}
	return status == "administrator" || status == "creator"
}

func (s *Service) replyBestEffort(ctx context.Context, chatID, replyTo int64, text string) {
	if _, err := s.gw.Reply(ctx, chatID, replyTo, text); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send reply")
	}
}

func anchorText(count int) string {
	return fmt.Sprintf("%s\n\nУчастников: %d", announcementText, count)
}
