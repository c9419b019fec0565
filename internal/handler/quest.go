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

// QuestHandler handles the daily quest list and claims.
type QuestHandler struct {
	questService *service.QuestService
}

// NewQuestHandler creates a new QuestHandler.
func NewQuestHandler(questService *service.QuestService) *QuestHandler {
	return &QuestHandler{questService: questService}
}

// HandleQuests shows today's quests with claim buttons for the finished
// ones.
func (h *QuestHandler) HandleQuests(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	quests, err := h.questService.DailyQuests(ctx, sender.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to load quests")
		return respondError(c, "❌ Не удалось загрузить квесты")
	}

	lines := []string{"📜 Ежедневные квесты\n"}
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, q := range quests {
		lines = append(lines, FormatQuestLine(q))
		if q.Completed && !q.Claimed {
			rows = append(rows, markup.Row(markup.Data(
				"🎁 Забрать: "+q.Description,
				CallbackQuestClaim+strconv.FormatInt(q.ID, 10),
			)))
		}
	}
	rows = append(rows, markup.Row(markup.Data("🏠 Меню", CallbackMenu)))
	markup.Inline(rows...)

	return editOrSend(c, strings.Join(lines, "\n"), markup)
}

// HandleClaim pays out one quest and refreshes the list.
func (h *QuestHandler) HandleClaim(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	callback := c.Callback()
	if sender == nil || callback == nil {
		return nil
	}

	data := strings.TrimPrefix(strings.TrimPrefix(callback.Data, "\f"), CallbackQuestClaim)
	questID, err := strconv.ParseInt(data, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Ошибка!", ShowAlert: true})
	}

	quest, err := h.questService.Claim(ctx, sender.ID, questID)
	if err != nil {
		if errors.Is(err, repository.ErrQuestNotClaimable) {
			return c.Respond(&tele.CallbackResponse{
				Text:      "Уже забрано или не выполнено!",
				ShowAlert: true,
			})
		}
		log.Error().Err(err).Int64("user_id", sender.ID).Int64("quest_id", questID).Msg("quest claim failed")
		return respondError(c, "❌ Что-то пошло не так, попробуй ещё раз")
	}

	if err := c.Respond(&tele.CallbackResponse{
		Text:      fmt.Sprintf("🎁 +%d💰 +%d⭐", quest.RewardGold, quest.RewardStars),
		ShowAlert: true,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to answer claim callback")
	}
	return h.HandleQuests(c)
}
