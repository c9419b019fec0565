package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/service"
)

// PullHandler handles the gacha menu and pull callbacks.
type PullHandler struct {
	pullService   *service.PullService
	playerService *service.PlayerService
	gachaCfg      config.GachaConfig
}

// NewPullHandler creates a new PullHandler.
func NewPullHandler(
	pullService *service.PullService,
	playerService *service.PlayerService,
	cfg *config.Config,
) *PullHandler {
	return &PullHandler{
		pullService:   pullService,
		playerService: playerService,
		gachaCfg:      cfg.Gacha,
	}
}

// HandlePullMenu shows the pack list with the player's balances.
func (h *PullHandler) HandlePullMenu(c tele.Context) error {
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

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	if freeLeft > 0 {
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("🪙 Бесплатный тяг (%d осталось)", freeLeft),
			CallbackPullFree,
		)))
	}
	for _, pack := range gacha.AllPacks() {
		if pack.Free {
			continue
		}
		costText := fmt.Sprintf("%d💰", pack.Cost)
		if pack.Currency == gacha.CurrencyStars {
			costText = fmt.Sprintf("%d⭐", pack.Cost)
		}
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("%s — %s", pack.Name, costText),
			CallbackPullPack+pack.ID,
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🏠 Меню", CallbackMenu)))
	markup.Inline(rows...)

	text := fmt.Sprintf(
		"🎰 Тянуть гача\n\n"+
			"💰 Золото: %d\n"+
			"💎 Stars: %d\n\n"+
			"Доступные пакеты:\n"+
			"🪙 Бесплатно — %d/%d в день\n"+
			"💎 Премиум — лучшие шансы на редкие предметы\n"+
			"📦 Пакеты — выгоднее и с гарантиями!\n\n"+
			"Каждый предмет уникален!",
		player.Gold, player.Stars, freeLeft, h.gachaCfg.FreePullsPerDay,
	)
	return editOrSend(c, text, markup)
}

// HandleFreePull consumes one free pull and shows the item.
func (h *PullHandler) HandleFreePull(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	item, err := h.pullService.FreePull(ctx, sender.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoFreePulls) {
			return c.Respond(&tele.CallbackResponse{
				Text:      "Бесплатные тяги закончились! Завтра будет больше.",
				ShowAlert: true,
			})
		}
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return respondError(c, "Нажми /start чтобы начать!")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("free pull failed")
		return respondError(c, "❌ Что-то пошло не так, попробуй ещё раз")
	}

	freeLeft, _ := h.playerService.FreePullsLeft(ctx, sender.ID)
	text := fmt.Sprintf(
		"🎰 Бесплатный тяг!\n\n%s\n\n✅ Добавлено в коллекцию!\n🎰 Осталось: %d/%d",
		FormatItemFull(item), freeLeft, h.gachaCfg.FreePullsPerDay,
	)
	return editOrSend(c, text, BuildPullResultMenu())
}

// HandlePackPull charges a pack and shows the pulled items. The callback
// ID doubles as the idempotency token, so a redelivered press of the
// same button never double-charges.
func (h *PullHandler) HandlePackPull(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil {
		return nil
	}

	packID := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackPullPack)
	pack, ok := gacha.GetPack(packID)
	if !ok || pack.Free {
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка!", ShowAlert: true})
	}

	items, err := h.pullService.PackPull(ctx, sender.ID, packID, callback.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStars):
			return c.Respond(&tele.CallbackResponse{
				Text:      fmt.Sprintf("Не хватает Stars! Нужно %d⭐", pack.Cost),
				ShowAlert: true,
			})
		case errors.Is(err, repository.ErrInsufficientGold):
			return c.Respond(&tele.CallbackResponse{
				Text:      fmt.Sprintf("Не хватает золота! Нужно %d💰", pack.Cost),
				ShowAlert: true,
			})
		case errors.Is(err, repository.ErrDuplicateRequest):
			return c.Respond(&tele.CallbackResponse{Text: "Запрос уже обработан"})
		case errors.Is(err, repository.ErrPlayerNotFound):
			return respondError(c, "Нажми /start чтобы начать!")
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Str("pack", packID).Msg("pack pull failed")
		return respondError(c, "❌ Что-то пошло не так, попробуй ещё раз")
	}

	var text string
	if len(items) == 1 {
		text = fmt.Sprintf("🎰 %s\n\n%s\n\n✅ Добавлено в коллекцию!", pack.Name, FormatItemFull(items[0]))
	} else {
		lines := []string{fmt.Sprintf("🎰 %s\n\nПолучено %d предметов:\n", pack.Name, len(items))}
		for _, item := range items {
			lines = append(lines, FormatItemShort(item))
		}
		text = strings.Join(lines, "\n") + "\n\n✅ Все добавлены в коллекцию!"
	}
	return editOrSend(c, text, BuildPullResultMenu())
}
