package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/service"
)

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	leaderboardService *service.LeaderboardService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(leaderboardService *service.LeaderboardService) *AdminHandler {
	return &AdminHandler{leaderboardService: leaderboardService}
}

// HandleStats handles /stats with bot-wide totals.
func (h *AdminHandler) HandleStats(c tele.Context) error {
	stats, err := h.leaderboardService.BotStats(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("failed to load bot stats")
		return c.Send("❌ Не удалось загрузить статистику")
	}

	return c.Send(fmt.Sprintf(
		"📊 Статистика\n\n👥 Игроков: %d\n📦 Предметов: %d\n🎰 Тягов: %d",
		stats.TotalPlayers, stats.TotalItems, stats.TotalPulls,
	))
}
