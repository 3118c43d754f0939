package service

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
)

var (
	msgTargets     = []int{5, 6, 7}
	reactTargets   = []int{9, 13, 16, 20}
	reactionEmojis = []string{"👍", "🔥", "😁", "🎉"}
)

// Delivery coin biases: probability of delivering an echo as a reply to the
// triggering message rather than a standalone message. The two paths use
// different constants on purpose.
const (
	replyToBotBias = 0.4
	intervalBias   = 0.5
)

// Gateway is the slice of the messaging client the echo feature needs.
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string) (int64, error)
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	React(ctx context.Context, chatID, messageID int64, emoji string) error
}

type Service struct {
	gw  Gateway
	log zerolog.Logger

	mu    sync.Mutex
	rng   *rand.Rand // guarded by mu
	chats map[int64]*chatHistory
}

func New(gw Gateway, rng *rand.Rand, log zerolog.Logger) *Service {
	return &Service{
		gw:    gw,
		log:   log.With().Str("component", "history").Logger(),
		rng:   rng,
		chats: make(map[int64]*chatHistory),
	}
}

func (s *Service) chat(chatID int64) *chatHistory {
	h, ok := s.chats[chatID]
	if !ok {
		h = newChatHistory(s.rng)
		s.chats[chatID] = h
	}
	return h
}

// ChatCount returns the number of chats with recorded history.
func (s *Service) ChatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

type echo struct {
	text    string
	asReply bool
	trigger string
}

// HandleMessage runs the echo triggers for one inbound non-bot text message.
// archive is false for command keywords and giveaway joins; such messages
// still feed the reaction counter. replyToBot marks a direct reply to one of
// the bot's own messages and fires an echo without touching either counter.
// Sampling happens before the triggering message lands in the log, so the
// just-arrived text can never echo itself.
func (s *Service) HandleMessage(ctx context.Context, chatID, messageID int64, text string, archive, replyToBot bool) {
	s.mu.Lock()
	h := s.chat(chatID)

	var echoes []echo
	if replyToBot {
		if picked, ok := h.pick(s.rng); ok {
			echoes = append(echoes, echo{picked, s.rng.Float64() < replyToBotBias, "reply"})
		}
	}

	if archive {
		h.msgCount++
		if h.msgCount >= h.msgTarget {
			if picked, ok := h.pick(s.rng); ok {
				echoes = append(echoes, echo{picked, s.rng.Float64() < intervalBias, "interval"})
			}
			h.msgCount = 0
			h.msgTarget = msgTargets[s.rng.Intn(len(msgTargets))]
		}
		h.append(text)
	}

	h.reactCount++
	var emoji string
	if h.reactCount >= h.reactTarget {
		emoji = reactionEmojis[s.rng.Intn(len(reactionEmojis))]
		h.reactCount = 0
		h.reactTarget = reactTargets[s.rng.Intn(len(reactTargets))]
	}
	s.mu.Unlock()

	for _, e := range echoes {
		metrics.EchoesTotal.WithLabelValues(e.trigger).Inc()
		var err error
		if e.asReply {
			_, err = s.gw.Reply(ctx, chatID, messageID, e.text)
		} else {
			_, err = s.gw.Send(ctx, chatID, e.text)
		}
		if err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Str("trigger", e.trigger).Msg("failed to deliver echo")
		}
	}

	if emoji != "" {
		metrics.ReactionsTotal.Inc()
		if err := s.gw.React(ctx, chatID, messageID, emoji); err != nil {
			s.log.Warn().Err(err).Int64("chat", chatID).Msg("failed to react")
		}
	}
}
