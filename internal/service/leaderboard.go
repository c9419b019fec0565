package service

import (
	"context"

	"telegram-gacha-bot/internal/model"
	"telegram-gacha-bot/internal/repository"
)

// LeaderboardService exposes collection rankings and bot-wide stats.
type LeaderboardService struct {
	playerRepo *repository.PlayerRepository
}

// NewLeaderboardService creates a new LeaderboardService instance.
func NewLeaderboardService(playerRepo *repository.PlayerRepository) *LeaderboardService {
	return &LeaderboardService{playerRepo: playerRepo}
}

// Top returns the best collectors ordered by collection size, with total
// pulls breaking ties.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	return s.playerRepo.Leaderboard(ctx, limit)
}

// Rank returns the player's 1-based position in the leaderboard order.
func (s *LeaderboardService) Rank(ctx context.Context, playerID int64) (int64, error) {
	return s.playerRepo.Rank(ctx, playerID)
}

// BotStats returns bot-wide aggregates for the admin report.
func (s *LeaderboardService) BotStats(ctx context.Context) (*model.BotStats, error) {
	return s.playerRepo.Stats(ctx)
}
