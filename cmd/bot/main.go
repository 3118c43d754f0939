package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"monkeybot/internal/bot"
	"monkeybot/internal/common/config"
	"monkeybot/internal/common/logger"
	"monkeybot/internal/common/ratelimit"
	farmservice "monkeybot/internal/features/farm/service"
	giveawayservice "monkeybot/internal/features/giveaway/service"
	historyservice "monkeybot/internal/features/history/service"
	leaderboardservice "monkeybot/internal/features/leaderboard/service"
	moderationservice "monkeybot/internal/features/moderation/service"
	"monkeybot/internal/ops"
	"monkeybot/internal/platform/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Инициализируем конфигурацию и логгер
	cfg := config.Load()
	log := logger.Init("monkeybot", cfg.Debug)

	log.Info().Bool("debug", cfg.Debug).Msg("starting monkeybot")

	client := telegram.NewClient(
		cfg.Telegram.BotToken,
		time.Duration(cfg.Telegram.PollTimeoutSec)*time.Second,
		log,
	)

	clock := clockwork.NewRealClock()
	cooldowns := ratelimit.NewTable(clock)
	seed := time.Now().UnixNano()

	// Инициализируем сервисы
	leaderboard := leaderboardservice.New(client, cooldowns, clock, log)
	router := bot.NewRouter(
		client,
		client.BotID(),
		moderationservice.New(client, log),
		historyservice.New(client, rand.New(rand.NewSource(seed)), log),
		farmservice.New(client, cooldowns, leaderboard, clock, rand.New(rand.NewSource(seed+1)), log),
		leaderboard,
		giveawayservice.New(client, rand.New(rand.NewSource(seed+2)), log),
		log,
	)

	// Запускаем сервисный HTTP сервер в горутине
	opsServer := ops.NewServer(router, cfg.Ops.Port, cfg.Ops.Origin, cfg.Debug, log)
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	log.Info().Msg("polling for updates")
	if err := router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("update loop stopped")
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
