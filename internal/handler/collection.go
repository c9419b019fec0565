package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/service"
)

// itemsPerPage is the collection page size.
const itemsPerPage = 5

// CollectionHandler handles collection browsing callbacks.
type CollectionHandler struct {
	collectionService *service.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collectionService *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// HandleCollection shows the first collection page.
func (h *CollectionHandler) HandleCollection(c tele.Context) error {
	return h.showPage(c, 1)
}

// HandlePage shows the page named in the callback data.
func (h *CollectionHandler) HandlePage(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}
	data := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackColPage)
	page, err := strconv.Atoi(data)
	if err != nil || page < 1 {
		page = 1
	}
	return h.showPage(c, page)
}

func (h *CollectionHandler) showPage(c tele.Context, page int) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	entries, total, err := h.collectionService.Page(ctx, sender.ID, page, itemsPerPage)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to load collection")
		return respondError(c, "❌ Не удалось загрузить коллекцию")
	}

	if total == 0 {
		markup := &tele.ReplyMarkup{}
		markup.Inline(
			markup.Row(markup.Data("🎰 Тянуть гача", CallbackPullMenu)),
			markup.Row(markup.Data("🏠 Меню", CallbackMenu)),
		)
		return editOrSend(c, "📦 Коллекция пуста!\n\nСделай свой первый тяг! 🎰", markup)
	}

	totalPages := int((total + itemsPerPage - 1) / itemsPerPage)
	if page > totalPages {
		page = totalPages
		entries, _, err = h.collectionService.Page(ctx, sender.ID, page, itemsPerPage)
		if err != nil {
			return respondError(c, "❌ Не удалось загрузить коллекцию")
		}
	}

	stats, err := h.collectionService.Stats(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to load collection stats")
		return respondError(c, "❌ Не удалось загрузить коллекцию")
	}

	lines := []string{
		fmt.Sprintf("📦 Коллекция (%d предметов)\n", total),
		FormatCollectionStats(stats),
		"\nПоследние предметы:",
	}
	for _, entry := range entries {
		lines = append(lines, "\n"+FormatItemShort(entry.Item))
	}

	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, entry := range entries {
		rows = append(rows, markup.Row(markup.Data(
			"👆 "+entry.Item.Name,
			CallbackItem+strconv.FormatInt(entry.ID, 10),
		)))
	}

	var nav []tele.Btn
	if page > 1 {
		nav = append(nav, markup.Data("◀️", CallbackColPage+strconv.Itoa(page-1)))
	}
	if totalPages > 1 {
		nav = append(nav, markup.Data(fmt.Sprintf("%d/%d", page, totalPages), CallbackNoop))
	}
	if page < totalPages {
		nav = append(nav, markup.Data("▶️", CallbackColPage+strconv.Itoa(page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, markup.Row(nav...))
	}
	rows = append(rows, markup.Row(markup.Data("🏠 Меню", CallbackMenu)))
	markup.Inline(rows...)

	return editOrSend(c, strings.Join(lines, "\n"), markup)
}

// HandleItemDetail shows the full card of one owned item.
func (h *CollectionHandler) HandleItemDetail(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil {
		return nil
	}

	data := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackItem)
	entryID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Предмет не найден!", ShowAlert: true})
	}

	entry, err := h.collectionService.Get(ctx, sender.ID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrItemNotFound) {
			return c.Respond(&tele.CallbackResponse{Text: "Предмет не найден!", ShowAlert: true})
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("entry_id", entryID).Msg("failed to load item")
		return respondError(c, "❌ Что-то пошло не так, попробуй ещё раз")
	}

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("📦 Коллекция", CallbackCollection)),
		markup.Row(markup.Data("🏠 Меню", CallbackMenu)),
	)
	return editOrSend(c, FormatItemFull(entry.Item), markup)
}
