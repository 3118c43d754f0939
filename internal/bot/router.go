package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"monkeybot/internal/common/metrics"
	farmservice "monkeybot/internal/features/farm/service"
	giveawaymodels "monkeybot/internal/features/giveaway/models"
	giveawayservice "monkeybot/internal/features/giveaway/service"
	historyservice "monkeybot/internal/features/history/service"
	leaderboardservice "monkeybot/internal/features/leaderboard/service"
	moderationservice "monkeybot/internal/features/moderation/service"
	"monkeybot/internal/platform/telegram"
)

// Router dispatches inbound updates through the processing pipeline:
// moderation, then history/leaderboard bookkeeping, then giveaway join,
// then command dispatch. Callback queries go straight to the leaderboard.
type Router struct {
	gw    Gateway
	botID int64
	log   zerolog.Logger

	moderation  *moderationservice.Service
	history     *historyservice.Service
	farm        *farmservice.Service
	leaderboard *leaderboardservice.Service
	giveaway    *giveawayservice.Service
}

func NewRouter(
	gw Gateway,
	botID int64,
	moderation *moderationservice.Service,
	history *historyservice.Service,
	farm *farmservice.Service,
	leaderboard *leaderboardservice.Service,
	giveaway *giveawayservice.Service,
	log zerolog.Logger,
) *Router {
	return &Router{
		gw:          gw,
		botID:       botID,
		log:         log.With().Str("component", "router").Logger(),
		moderation:  moderation,
		history:     history,
		farm:        farm,
		leaderboard: leaderboard,
		giveaway:    giveaway,
	}
}

// Status is the ops-endpoint snapshot of the in-memory state.
type Status struct {
	ActiveGiveaways int `json:"active_giveaways"`
	FarmAccounts    int `json:"farm_accounts"`
	TrackedChats    int `json:"tracked_chats"`
	HistoryChats    int `json:"history_chats"`
}

func (r *Router) Snapshot() Status {
	return Status{
		ActiveGiveaways: r.giveaway.ActiveCount(),
		FarmAccounts:    r.farm.AccountCount(),
		TrackedChats:    r.leaderboard.ChatCount(),
		HistoryChats:    r.history.ChatCount(),
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd telegram.Update) {
	switch {
	case upd.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		r.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		r.handleMessage(ctx, upd.Message)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.From.IsBot || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID
	from := msg.From
	log := r.log.With().
		Str("correlation_id", uuid.NewString()).
		Int64("chat", chatID).
		Int64("user", from.ID).
		Logger()
	log.Debug().Msg("processing message")

	if strings.EqualFold(strings.TrimSpace(msg.Text), "/start") {
		if _, err := r.gw.Reply(ctx, chatID, msg.MessageID, "🐒"); err != nil {
			log.Warn().Err(err).Msg("failed to reply to /start")
		}
		return
	}

	if removed := r.moderation.Handle(ctx, chatID, msg.MessageID, from.ID, senderLink(from), msg.Text); removed {
		log.Debug().Msg("message removed by moderation")
		return
	}

	cmd := matchCommand(msg.Text)
	isSlash := strings.HasPrefix(msg.Text, "/")
	qualifying := cmd == cmdNone && !isSlash

	if qualifying {
		r.leaderboard.Record(chatID, from.ID, from.FirstName)
	}

	replyToBot := msg.ReplyToMessage != nil &&
		msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.ID == r.botID

	// Texts that count as giveaway joins are kept out of the echo log.
	archive := qualifying && !r.giveaway.Active(chatID)
	r.history.HandleMessage(ctx, chatID, msg.MessageID, msg.Text, archive, replyToBot)

	if !isSlash {
		r.giveaway.Join(ctx, chatID, giveawaymodels.Participant{
			ID:        from.ID,
			FirstName: from.FirstName,
			Username:  from.Username,
		})
	}

	switch cmd {
	case cmdFarm:
		r.farm.Claim(ctx, chatID, from.ID, msg.MessageID)
	case cmdProfile:
		r.farm.Profile(ctx, chatID, from.ID, msg.MessageID)
	case cmdTopAllTime:
		r.leaderboard.ShowAllTime(ctx, chatID)
	case cmdTopDaily:
		r.leaderboard.ShowDaily(ctx, chatID)
	case cmdGiveawayStart:
		r.giveaway.Start(ctx, chatID, from.ID, msg.MessageID)
	case cmdGiveawayEnd:
		r.giveaway.End(ctx, chatID, from.ID, msg.MessageID)
	case cmdExport:
		r.farm.Export(ctx, chatID, from.ID, msg.MessageID)
	}
}

func (r *Router) handleCallback(ctx context.Context, cb *telegram.CallbackQuery) {
	if cb.Message == nil || !strings.HasPrefix(cb.Data, leaderboardservice.CallbackPrefix) {
		// Unknown callback: acknowledge to stop the client spinner.
		if err := r.gw.AnswerCallback(ctx, cb.ID, "", false); err != nil {
			r.log.Warn().Err(err).Msg("failed to answer unknown callback")
		}
		return
	}

	view := strings.TrimPrefix(cb.Data, leaderboardservice.CallbackPrefix)
	if view != leaderboardservice.ViewDaily && view != leaderboardservice.ViewAllTime {
		r.log.Warn().Str("data", cb.Data).Msg("callback with unknown view tag")
		return
	}

	r.leaderboard.HandleRefresh(ctx, cb.Message.Chat.ID, cb.From.ID, cb.Message.MessageID, cb.ID, view)
}

func senderLink(u *telegram.User) string {
	if u.Username != "" {
		return u.FirstName + " (@" + u.Username + ")"
	}
	return u.FirstName
}
