package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/service"
)

// topSize is how many players the leaderboard shows.
const topSize = 10

// LeaderboardHandler handles /top and the top callback.
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// HandleTop shows the best collectors and the caller's own position.
func (h *LeaderboardHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	entries, err := h.leaderboardService.Top(ctx, topSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to load leaderboard")
		return respondError(c, "❌ Не удалось загрузить топ")
	}

	text := "🏆 Топ коллекционеров\n\n" + FormatLeaderboard(entries)
	if rank, err := h.leaderboardService.Rank(ctx, sender.ID); err == nil {
		text += fmt.Sprintf("\n\n👤 Твоя позиция: #%d", rank)
	}
	return editOrSend(c, text, BuildBackMenu())
}
