package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpdatesTotal tracks inbound updates by kind (message/callback).
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monkeybot_updates_total",
			Help: "Inbound Telegram updates by kind",
		},
		[]string{"kind"},
	)

	// EchoesTotal tracks echoes by trigger path (interval/reply).
	EchoesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monkeybot_echoes_total",
			Help: "History echoes delivered by trigger path",
		},
		[]string{"trigger"},
	)

	// ReactionsTotal counts reaction attempts on interval triggers.
	ReactionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monkeybot_reactions_total",
			Help: "Reaction emoji attempts",
		},
	)

	// FarmClaimsTotal tracks farm claims by outcome (granted/cooldown).
	FarmClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monkeybot_farm_claims_total",
			Help: "Farm claims by outcome",
		},
		[]string{"outcome"},
	)

	// GiveawaysTotal tracks giveaway lifecycle events (started/finished).
	GiveawaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monkeybot_giveaways_total",
			Help: "Giveaway lifecycle events",
		},
		[]string{"event"},
	)

	// RefreshesTotal tracks leaderboard refreshes by view and outcome.
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monkeybot_leaderboard_refreshes_total",
			Help: "Leaderboard refresh requests by view and outcome",
		},
		[]string{"view", "outcome"},
	)

	// DeletedLinksTotal counts messages removed by link moderation.
	DeletedLinksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "monkeybot_deleted_links_total",
			Help: "Messages deleted by link moderation",
		},
	)
)
