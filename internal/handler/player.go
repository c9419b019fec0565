package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/service"
)

// referralPrefix is the deep-link payload prefix: t.me/<bot>?start=ref<id>.
const referralPrefix = "ref"

// PlayerHandler handles registration, profile, daily bonus and referrals.
type PlayerHandler struct {
	playerService     *service.PlayerService
	collectionService *service.CollectionService
	questService      *service.QuestService
	gachaCfg          config.GachaConfig
	refCfg            config.ReferralConfig
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(
	playerService *service.PlayerService,
	collectionService *service.CollectionService,
	questService *service.QuestService,
	cfg *config.Config,
) *PlayerHandler {
	return &PlayerHandler{
		playerService:     playerService,
		collectionService: collectionService,
		questService:      questService,
		gachaCfg:          cfg.Gacha,
		refCfg:            cfg.Referral,
	}
}

// HandleStart handles /start: registers the player (linking a referrer
// from the deep-link payload on first registration), auto-claims the
// daily bonus and shows the welcome screen.
func (h *PlayerHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	referrerID := parseReferralPayload(c.Message().Payload)

	player, created, err := h.playerService.EnsurePlayer(ctx, sender.ID, sender.Username, displayName(sender), referrerID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to ensure player")
		return c.Send("❌ Что-то пошло не так, попробуй ещё раз")
	}
	if created {
		log.Info().Int64("user_id", sender.ID).Msg("new player registered")
	}

	dailyText := ""
	if bonus, err := h.playerService.ClaimDaily(ctx, sender.ID); err == nil {
		dailyText = fmt.Sprintf(
			"\n🌅 Ежедневный бонус!\n💰 +%d золота  💎 +%d Stars\n📅 Дней подряд: %d\n",
			bonus.Gold, bonus.Stars, bonus.Streak,
		)
		player.Gold += bonus.Gold
		player.Stars += bonus.Stars
	} else if !errors.Is(err, repository.ErrAlreadyClaimedToday) {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("daily claim failed on start")
	}

	// Assigns today's quests on first contact of the day.
	if _, err := h.questService.DailyQuests(ctx, sender.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", sender.ID).Msg("failed to assign daily quests")
	}

	freeLeft, _ := h.playerService.FreePullsLeft(ctx, sender.ID)
	collectionCount, _ := h.collectionService.Count(ctx, sender.ID)

	text := fmt.Sprintf(
		"🎰 Добро пожаловать в Бесконечную гача!\n\n"+
			"👋 Привет, %s!\n\n"+
			"💰 Золото: %d\n"+
			"💎 Stars: %d\n"+
			"📦 Коллекция: %d предметов\n"+
			"🎰 Бесплатных тягов: %d/%d\n"+
			"%s\n"+
			"Каждый предмет уникален и генерируется процедурно!\n"+
			"Коллекция никогда не заканчивается! 🚀",
		displayName(sender), player.Gold, player.Stars, collectionCount, freeLeft, h.gachaCfg.FreePullsPerDay, dailyText,
	)
	return c.Send(text, BuildMainMenu())
}

// HandleMenu handles the main menu callback.
func (h *PlayerHandler) HandleMenu(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player, err := h.playerService.GetPlayer(ctx, sender.ID)
	if err != nil {
		return respondError(c, "Нажми /start чтобы начать!")
	}

	freeLeft, _ := h.playerService.FreePullsLeft(ctx, sender.ID)
	collectionCount, _ := h.collectionService.Count(ctx, sender.ID)

	text := fmt.Sprintf(
		"🎰 Бесконечная гача\n\n💰 %d  💎 %d\n📦 %d предметов\n🎰 %d/%d бесплатных\n\nВыбери действие:",
		player.Gold, player.Stars, collectionCount, freeLeft, h.gachaCfg.FreePullsPerDay,
	)
	return editOrSend(c, text, BuildMainMenu())
}

// HandleProfile handles /profile and the profile callback.
func (h *PlayerHandler) HandleProfile(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player, err := h.playerService.GetPlayer(ctx, sender.ID)
	if err != nil {
		return respondError(c, "Нажми /start чтобы начать!")
	}

	collectionCount, _ := h.collectionService.Count(ctx, sender.ID)
	freeLeft, _ := h.playerService.FreePullsLeft(ctx, sender.ID)
	referrals, _ := h.playerService.ReferralCount(ctx, sender.ID)

	text := fmt.Sprintf(
		"👤 Профиль\n\n"+
			"🆔 ID: %d\n"+
			"📅 В игре с: %s\n\n"+
			"💰 Золото: %d\n"+
			"💎 Stars: %d\n\n"+
			"📦 Коллекция: %d предметов\n"+
			"🎰 Всего тягов: %d\n"+
			"🎰 Бесплатных сегодня: %d/%d\n\n"+
			"👥 Приглашено друзей: %d\n"+
			"📅 Дней подряд: %d",
		player.ID, player.JoinedAt.Format("2006-01-02"),
		player.Gold, player.Stars,
		collectionCount, player.TotalPulls, freeLeft, h.gachaCfg.FreePullsPerDay,
		referrals, player.DailyStreak,
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("📦 Коллекция", CallbackCollection)),
		markup.Row(markup.Data("🏠 Меню", CallbackMenu)),
	)
	return editOrSend(c, text, markup)
}

// HandleDaily handles /daily for an explicit bonus claim.
func (h *PlayerHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	bonus, err := h.playerService.ClaimDaily(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyClaimedToday) {
			return c.Send("🌅 Бонус уже получен сегодня. Возвращайся завтра!")
		}
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return c.Send("👋 Нажми /start чтобы начать!")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("daily claim failed")
		return c.Send("❌ Что-то пошло не так, попробуй ещё раз")
	}

	return c.Send(fmt.Sprintf(
		"🌅 Ежедневный бонус!\n💰 +%d золота  💎 +%d Stars\n📅 Дней подряд: %d",
		bonus.Gold, bonus.Stars, bonus.Streak,
	), BuildBackMenu())
}

// HandleReferral handles the referral callback: link, share button and
// invite counter.
func (h *PlayerHandler) HandleReferral(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	referrals, _ := h.playerService.ReferralCount(ctx, sender.ID)
	refLink := fmt.Sprintf("https://t.me/%s?start=%s%d", c.Bot().Me.Username, referralPrefix, sender.ID)

	text := fmt.Sprintf(
		"🎁 Реферальная система\n\n"+
			"Приглашай друзей и получай бонусы!\n\n"+
			"👥 Приглашено: %d\n\n"+
			"За каждого друга:\n"+
			"• Ты получаешь: 💎%d⭐ + 💰%d\n"+
			"• Друг получает: 💎%d⭐ + 💰%d\n\n"+
			"🔗 Твоя ссылка:\n%s",
		referrals,
		h.refCfg.ReferrerStars, h.refCfg.ReferrerGold,
		h.refCfg.RefereeStars, h.refCfg.RefereeGold,
		refLink,
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL("📤 Поделиться", "https://t.me/share/url?url="+refLink)),
		markup.Row(markup.Data("🏠 Меню", CallbackMenu)),
	)
	return editOrSend(c, text, markup)
}

// HandleHelp handles /help.
func (h *PlayerHandler) HandleHelp(c tele.Context) error {
	text := "📋 Команды:\n\n" +
		"/start — Начать игру\n" +
		"/profile — Профиль\n" +
		"/daily — Ежедневный бонус\n" +
		"/top — Топ игроков\n" +
		"/help — Справка\n\n" +
		"🎰 Как играть:\n" +
		fmt.Sprintf("• Делай бесплатные тяги каждый день (%d/день)\n", h.gachaCfg.FreePullsPerDay) +
		"• Покупай премиум пакеты за Stars\n" +
		"• Собирай уникальную коллекцию\n" +
		"• Выполняй ежедневные квесты\n" +
		"• Приглашай друзей за бонусы\n\n" +
		"Каждый предмет генерируется процедурно и уникален!"
	return c.Send(text, BuildMainMenu())
}

// HandleText answers plain text messages with a nudge to the menu.
func (h *PlayerHandler) HandleText(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if _, err := h.playerService.GetPlayer(ctx, sender.ID); err != nil {
		return c.Send("👋 Нажми /start чтобы начать!")
	}
	return c.Send("🎰 Используй кнопки для игры!", BuildMainMenu())
}

// parseReferralPayload extracts the referrer ID from a /start payload.
// Returns nil for a missing or malformed payload.
func parseReferralPayload(payload string) *int64 {
	if !strings.HasPrefix(payload, referralPrefix) {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(payload, referralPrefix), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// editOrSend edits the callback's message in place and falls back to a
// new message when editing is not possible.
func editOrSend(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if c.Callback() == nil {
		return c.Send(text, markup)
	}
	if err := c.Edit(text, markup); err != nil {
		return c.Send(text, markup)
	}
	return nil
}

// respondError shows an alert for callbacks and a plain reply otherwise.
func respondError(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}
