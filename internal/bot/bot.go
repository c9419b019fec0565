// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/handler"
	"telegram-gacha-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	playerHandler      *handler.PlayerHandler
	pullHandler        *handler.PullHandler
	collectionHandler  *handler.CollectionHandler
	questHandler       *handler.QuestHandler
	leaderboardHandler *handler.LeaderboardHandler
	shopHandler        *handler.ShopHandler
	adminHandler       *handler.AdminHandler
}

// Dependencies holds the services needed by the bot handlers.
type Dependencies struct {
	Config             *config.Config
	PlayerService      *service.PlayerService
	PullService        *service.PullService
	CollectionService  *service.CollectionService
	QuestService       *service.QuestService
	LeaderboardService *service.LeaderboardService
	ShopService        *service.ShopService
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot: teleBot,
		cfg: deps.Config,
	}

	b.playerHandler = handler.NewPlayerHandler(deps.PlayerService, deps.CollectionService, deps.QuestService, deps.Config)
	b.pullHandler = handler.NewPullHandler(deps.PullService, deps.PlayerService, deps.Config)
	b.collectionHandler = handler.NewCollectionHandler(deps.CollectionService)
	b.questHandler = handler.NewQuestHandler(deps.QuestService)
	b.leaderboardHandler = handler.NewLeaderboardHandler(deps.LeaderboardService)
	b.shopHandler = handler.NewShopHandler(deps.ShopService, deps.PlayerService)
	b.adminHandler = handler.NewAdminHandler(deps.LeaderboardService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.playerHandler.HandleStart)
	b.bot.Handle("/profile", b.playerHandler.HandleProfile)
	b.bot.Handle("/daily", b.playerHandler.HandleDaily)
	b.bot.Handle("/top", b.leaderboardHandler.HandleTop)
	b.bot.Handle("/help", b.playerHandler.HandleHelp)

	// Admin handlers
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/stats", b.adminHandler.HandleStats)

	// Payments
	b.bot.Handle(tele.OnCheckout, b.shopHandler.HandleCheckout)
	b.bot.Handle(tele.OnPayment, b.shopHandler.HandlePayment)

	// Menu buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)

	// Plain text fallback
	b.bot.Handle(tele.OnText, b.playerHandler.HandleText)
}

// handleCallback routes inline button presses to the matching handler.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")

	switch {
	case data == handler.CallbackMenu:
		return b.playerHandler.HandleMenu(c)
	case data == handler.CallbackPullMenu:
		return b.pullHandler.HandlePullMenu(c)
	case data == handler.CallbackPullFree:
		return b.pullHandler.HandleFreePull(c)
	case strings.HasPrefix(data, handler.CallbackPullPack):
		return b.pullHandler.HandlePackPull(c)
	case data == handler.CallbackCollection:
		return b.collectionHandler.HandleCollection(c)
	case strings.HasPrefix(data, handler.CallbackColPage):
		return b.collectionHandler.HandlePage(c)
	case strings.HasPrefix(data, handler.CallbackItem):
		return b.collectionHandler.HandleItemDetail(c)
	case data == handler.CallbackQuests:
		return b.questHandler.HandleQuests(c)
	case strings.HasPrefix(data, handler.CallbackQuestClaim):
		return b.questHandler.HandleClaim(c)
	case data == handler.CallbackProfile:
		return b.playerHandler.HandleProfile(c)
	case data == handler.CallbackTop:
		return b.leaderboardHandler.HandleTop(c)
	case data == handler.CallbackReferral:
		return b.playerHandler.HandleReferral(c)
	case data == handler.CallbackShop:
		return b.shopHandler.HandleShop(c)
	case strings.HasPrefix(data, handler.CallbackBuy):
		return b.shopHandler.HandleBuy(c)
	case data == handler.CallbackNoop:
		return c.Respond(&tele.CallbackResponse{})
	}

	log.Debug().Str("data", data).Msg("Unknown callback ignored")
	return c.Respond(&tele.CallbackResponse{})
}

// Notifier returns a fire-and-forget sender for out-of-band messages,
// such as referral notifications.
func (b *Bot) Notifier() service.Notifier {
	return func(playerID int64, text string) {
		if _, err := b.bot.Send(&tele.User{ID: playerID}, text); err != nil {
			log.Warn().Err(err).Int64("user_id", playerID).Msg("failed to send notification")
		}
	}
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
