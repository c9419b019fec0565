// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/model"
)

// Callback data values and prefixes. Prefixed entries carry an argument
// after the prefix (pack ID, page number, entry ID, quest ID, sku ID).
const (
	CallbackMenu       = "menu"
	CallbackPullMenu   = "pull"
	CallbackPullFree   = "pull_free"
	CallbackPullPack   = "pull_"   // pull_pack_10
	CallbackCollection = "collection"
	CallbackColPage    = "colp_" // colp_2
	CallbackItem       = "item_" // item_42
	CallbackQuests     = "quests"
	CallbackQuestClaim = "qcl_" // qcl_42
	CallbackProfile    = "profile"
	CallbackTop        = "top"
	CallbackReferral   = "referral"
	CallbackShop       = "shop"
	CallbackBuy        = "buy_" // buy_s50
	CallbackNoop       = "noop"
)

// BuildMainMenu creates the main menu keyboard.
func BuildMainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🎰 Тянуть гача", CallbackPullMenu)),
		markup.Row(
			markup.Data("📦 Коллекция", CallbackCollection),
			markup.Data("📜 Квесты", CallbackQuests),
		),
		markup.Row(
			markup.Data("👤 Профиль", CallbackProfile),
			markup.Data("🏆 Топ", CallbackTop),
		),
		markup.Row(
			markup.Data("🎁 Рефералка", CallbackReferral),
			markup.Data("🏪 Магазин", CallbackShop),
		),
	)
	return markup
}

// BuildBackMenu creates a keyboard with only the menu button.
func BuildBackMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🏠 Меню", CallbackMenu)))
	return markup
}

// BuildPullResultMenu creates the keyboard shown under pull results.
func BuildPullResultMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("🎰 Ещё тяг", CallbackPullMenu)),
		markup.Row(markup.Data("📦 Коллекция", CallbackCollection)),
		markup.Row(markup.Data("🏠 Меню", CallbackMenu)),
	)
	return markup
}

// FormatItemShort renders an item as a single line.
func FormatItemShort(item gacha.Item) string {
	return gacha.RarityEmoji[item.Rarity] + " " + item.Name
}

// FormatItemFull renders an item card with stats and effects.
func FormatItemFull(item gacha.Item) string {
	lines := []string{
		fmt.Sprintf("%s %s", gacha.RarityEmoji[item.Rarity], item.Name),
		fmt.Sprintf("📊 %s • %s", gacha.RarityNames[item.Rarity], item.Theme.DisplayName()),
		fmt.Sprintf("💪 Сила: %d", item.Power),
		fmt.Sprintf("🍀 Удача: %.1f", item.Luck),
		fmt.Sprintf("✨ Магия: %d", item.Magic),
	}
	if len(item.SpecialEffects) > 0 {
		lines = append(lines, "🌟 "+strings.Join(item.SpecialEffects, ", "))
	}
	if item.Description != "" {
		lines = append(lines, item.Description)
	}
	return strings.Join(lines, "\n")
}

// FormatCollectionStats renders the aggregate block of the collection view.
func FormatCollectionStats(stats *model.CollectionStats) string {
	lines := []string{
		"📊 Статистика:",
		fmt.Sprintf("💪 Сила: %d", stats.TotalPower),
		fmt.Sprintf("🍀 Удача: %.1f", stats.TotalLuck),
		fmt.Sprintf("✨ Магия: %d", stats.TotalMagic),
		"",
		"По редкости:",
	}
	for _, rarity := range gacha.RarityOrder {
		if count := stats.ByRarity[rarity]; count > 0 {
			lines = append(lines, fmt.Sprintf("  %s %s: %d", gacha.RarityEmoji[rarity], gacha.RarityNames[rarity], count))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatQuestLine renders one quest with its claim status.
func FormatQuestLine(q *model.Quest) string {
	status := "⬜"
	switch {
	case q.Claimed:
		status = "✅"
	case q.Completed:
		status = "🟢"
	}
	return fmt.Sprintf("%s %s [%d/%d]\n   💰%d 💎%d⭐", status, q.Description, q.Progress, q.Target, q.RewardGold, q.RewardStars)
}

// FormatLeaderboard renders the top collectors list with medals.
func FormatLeaderboard(entries []*model.LeaderboardEntry) string {
	if len(entries) == 0 {
		return "Пока пусто..."
	}
	medals := []string{"🥇", "🥈", "🥉"}
	lines := make([]string, 0, len(entries))
	for i, e := range entries {
		medal := fmt.Sprintf("#%d", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		name := e.FirstName
		if name == "" {
			name = e.Username
		}
		if name == "" {
			name = "???"
		}
		lines = append(lines, fmt.Sprintf("%s %s — %d предметов (%d тягов)", medal, name, e.CollectionSize, e.TotalPulls))
	}
	return strings.Join(lines, "\n")
}

// displayName picks the best available name for a Telegram user.
func displayName(u *tele.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "Игрок"
}
