// Package main is the entry point for the gacha bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-gacha-bot/internal/bot"
	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/pkg/db"
	"telegram-gacha-bot/internal/pkg/lock"
	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	playerRepo := repository.NewPlayerRepository(dbPool.Pool)
	collectionRepo := repository.NewCollectionRepository(dbPool.Pool)
	questRepo := repository.NewQuestRepository(dbPool.Pool)
	paymentRepo := repository.NewPaymentRepository(dbPool.Pool)

	// Initialize the item generator and the per-player lock
	generator := gacha.NewGenerator()
	playerLock := lock.NewPlayerLock()

	// Initialize services
	playerService := service.NewPlayerService(playerRepo, playerLock, cfg)
	questService := service.NewQuestService(questRepo, collectionRepo, generator, playerLock)
	pullService := service.NewPullService(playerRepo, collectionRepo, questService, generator, playerLock, cfg)
	collectionService := service.NewCollectionService(collectionRepo)
	leaderboardService := service.NewLeaderboardService(playerRepo)
	shopService := service.NewShopService(paymentRepo)

	// Initialize bot
	telegramBot, err := bot.New(&bot.Dependencies{
		Config:             cfg,
		PlayerService:      playerService,
		PullService:        pullService,
		CollectionService:  collectionService,
		QuestService:       questService,
		LeaderboardService: leaderboardService,
		ShopService:        shopService,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Referral notifications go out through the bot transport.
	playerService.SetNotifier(telegramBot.Notifier())

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create players table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			gold BIGINT NOT NULL DEFAULT 0,
			stars BIGINT NOT NULL DEFAULT 0,
			free_pulls_today INT NOT NULL DEFAULT 0,
			free_pulls_reset_date DATE,
			total_pulls BIGINT NOT NULL DEFAULT 0,
			referrer_id BIGINT,
			daily_streak INT NOT NULL DEFAULT 0,
			last_daily_claim DATE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_referrer ON players(referrer_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: players table created")

	// Migration 2: Create collection_entries table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collection_entries (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
			unique_id VARCHAR(32) NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rarity VARCHAR(20) NOT NULL,
			theme VARCHAR(20) NOT NULL,
			power INT NOT NULL,
			luck DOUBLE PRECISION NOT NULL,
			magic INT NOT NULL,
			special_effects TEXT[] NOT NULL DEFAULT '{}',
			obtained_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (player_id, unique_id)
		);
		CREATE INDEX IF NOT EXISTS idx_collection_player_time ON collection_entries(player_id, obtained_at DESC);
		CREATE INDEX IF NOT EXISTS idx_collection_player_rarity ON collection_entries(player_id, rarity);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: collection_entries table created")

	// Migration 3: Create quests table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quests (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
			quest_date DATE NOT NULL,
			quest_type VARCHAR(30) NOT NULL,
			description TEXT NOT NULL,
			target INT NOT NULL,
			progress INT NOT NULL DEFAULT 0,
			reward_gold BIGINT NOT NULL DEFAULT 0,
			reward_stars BIGINT NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			is_claimed BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS idx_quests_player_date ON quests(player_id, quest_date);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: quests table created")

	// Migration 4: Create payments table. The charge ID key makes
	// purchase crediting idempotent across redelivered confirmations.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			charge_id VARCHAR(128) PRIMARY KEY,
			player_id BIGINT NOT NULL,
			sku VARCHAR(32) NOT NULL,
			stars BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: payments table created")

	// Migration 5: Create pull_requests table for pull idempotency tokens.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pull_requests (
			player_id BIGINT NOT NULL,
			request_token VARCHAR(128) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, request_token)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: pull_requests table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
