package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/service"
)

// payloadPrefix marks invoice payloads issued by the star shop.
const payloadPrefix = "stars:"

// ShopHandler sells star bundles through Telegram Stars invoices.
type ShopHandler struct {
	shopService   *service.ShopService
	playerService *service.PlayerService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shopService *service.ShopService, playerService *service.PlayerService) *ShopHandler {
	return &ShopHandler{
		shopService:   shopService,
		playerService: playerService,
	}
}

// HandleShop shows the star bundle catalog.
func (h *ShopHandler) HandleShop(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player, err := h.playerService.GetPlayer(ctx, sender.ID)
	if err != nil {
		return respondError(c, "Нажми /start чтобы начать!")
	}

	lines := []string{
		"🏪 Магазин Stars\n",
		fmt.Sprintf("💰 Золото: %d", player.Gold),
		fmt.Sprintf("💎 Stars: %d\n", player.Stars),
		"Купить Stars:",
	}
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, sku := range h.shopService.Catalog() {
		lines = append(lines, fmt.Sprintf("💎 %s — %d ⭐", sku.Label, sku.Price))
		rows = append(rows, markup.Row(markup.Data(
			fmt.Sprintf("💎 %s (%d ⭐)", sku.Label, sku.Price),
			CallbackBuy+sku.ID,
		)))
	}
	rows = append(rows, markup.Row(markup.Data("🏠 Меню", CallbackMenu)))
	markup.Inline(rows...)

	return editOrSend(c, strings.Join(lines, "\n"), markup)
}

// HandleBuy sends a Telegram Stars invoice for the chosen bundle.
func (h *ShopHandler) HandleBuy(c tele.Context) error {
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil {
		return nil
	}

	skuID := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackBuy)
	sku, err := h.shopService.SKU(skuID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка!", ShowAlert: true})
	}

	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		log.Warn().Err(err).Msg("failed to answer buy callback")
	}

	invoice := &tele.Invoice{
		Title:       sku.Label,
		Description: "Покупка Stars для гача",
		Payload:     payloadPrefix + sku.ID,
		Currency:    "XTR",
		Prices: []tele.Price{
			{Label: sku.Label, Amount: sku.Price},
		},
	}
	return c.Send(invoice)
}

// HandleCheckout approves pre-checkout queries for known bundles.
func (h *ShopHandler) HandleCheckout(c tele.Context) error {
	query := c.PreCheckoutQuery()
	if query == nil {
		return nil
	}
	if _, err := h.shopService.SKU(skuFromPayload(query.Payload)); err != nil {
		return c.Accept("Этот товар больше недоступен")
	}
	return c.Accept()
}

// HandlePayment credits a confirmed purchase. The provider's charge ID
// keeps redelivered confirmations from crediting twice.
func (h *ShopHandler) HandlePayment(c tele.Context) error {
	sender := c.Sender()
	message := c.Message()
	if sender == nil || message == nil || message.Payment == nil {
		return nil
	}

	ctx := context.Background()
	payment := message.Payment

	sku, err := h.shopService.CreditPurchase(ctx, sender.ID, skuFromPayload(payment.Payload), payment.TelegramChargeID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentAlreadyProcessed) {
			log.Info().
				Int64("user_id", sender.ID).
				Str("charge_id", payment.TelegramChargeID).
				Msg("duplicate payment confirmation ignored")
			return nil
		}
		log.Error().Err(err).
			Int64("user_id", sender.ID).
			Str("payload", payment.Payload).
			Str("charge_id", payment.TelegramChargeID).
			Msg("failed to credit purchase")
		return c.Send("❌ Не удалось зачислить покупку, напиши в поддержку")
	}

	log.Info().
		Int64("user_id", sender.ID).
		Str("sku", sku.ID).
		Str("charge_id", payment.TelegramChargeID).
		Msg("purchase credited")

	return c.Send(fmt.Sprintf(
		"🎉 Покупка успешна!\n\n💎 +%d Stars\n\nИспользуй их для премиум тягов! 🎰",
		sku.Stars,
	), BuildMainMenu())
}

func skuFromPayload(payload string) string {
	return strings.TrimPrefix(payload, payloadPrefix)
}
