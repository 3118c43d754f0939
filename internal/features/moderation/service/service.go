package service

import (
	"context"

	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
)

// Gateway is the slice of the messaging client moderation needs.
type Gateway interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (string, error)
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	Delete(ctx context.Context, chatID, messageID int64) error
}

type Service struct {
	gw  Gateway
	log zerolog.Logger
}

func New(gw Gateway, log zerolog.Logger) *Service {
	return &Service{
		gw:  gw,
		log: log.With().Str("component", "moderation").Logger(),
	}
}

// Handle runs link moderation for one message. Gift links get a formatted
// caption reply; any link from a non-admin is then deleted. Reports whether
// the message was removed and should not be processed further.
func (s *Service) Handle(ctx context.Context, chatID, messageID, userID int64, senderLink, text string) bool {
	gift, isGift := detectGiftLink(text)
	if !isGift && !hasLink(text) {
		return false
	}

	if isGift {
		if _, err := s.gw.Reply(ctx, chatID, messageID, giftCaption(senderLink, text, gift)); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send gift caption")
		}
	}

	if s.isAdmin(ctx, chatID, userID) {
		return false
	}

	if err := s.gw.Delete(ctx, chatID, messageID); err != nil {
		s.log.Warn().Err(err).Int64("chat", chatID).Int64("message", messageID).Msg("failed to delete link message")
		return false
	}

	metrics.DeletedLinksTotal.Inc()
	s.log.Info().Int64("chat", chatID).Int64("user", userID).Msg("link message removed")
	return true
}

// isAdmin treats any gateway failure as "not admin".
func (s *Service) isAdmin(ctx context.Context, chatID, userID int64) bool {
	status, err := s.gw.GetChatMember(ctx, chatID, userID)
	if err != nil {
		return false
	}
	return status == "administrator" || status == "creator"
}
