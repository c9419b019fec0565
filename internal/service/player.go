// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/model"
	"telegram-gacha-bot/internal/pkg/lock"
	"telegram-gacha-bot/internal/repository"
)

// Notifier delivers a fire-and-forget message to a player. Delivery
// failures are logged by the implementation and never propagated.
type Notifier func(playerID int64, text string)

// PlayerService handles player accounts, referrals and the daily bonus.
type PlayerService struct {
	playerRepo *repository.PlayerRepository
	locks      *lock.PlayerLock
	gachaCfg   config.GachaConfig
	dailyCfg   config.DailyConfig
	refCfg     config.ReferralConfig
	notify     Notifier
	now        func() time.Time
}

// NewPlayerService creates a new PlayerService instance.
func NewPlayerService(
	playerRepo *repository.PlayerRepository,
	locks *lock.PlayerLock,
	cfg *config.Config,
) *PlayerService {
	return &PlayerService{
		playerRepo: playerRepo,
		locks:      locks,
		gachaCfg:   cfg.Gacha,
		dailyCfg:   cfg.Daily,
		refCfg:     cfg.Referral,
		notify:     func(int64, string) {},
		now:        time.Now,
	}
}

// SetNotifier installs the transport's message sender. The bot is built
// after the services, so the notifier is wired in afterwards.
func (s *PlayerService) SetNotifier(notify Notifier) {
	if notify != nil {
		s.notify = notify
	}
}

// EnsurePlayer ensures a player exists, creating one if necessary.
// Returns the player and whether it was newly created.
//
// A referrer is only linked on first registration: the link is written
// together with the player row, so a later /start with a different deep
// link never rewrites it. Self-referrals are ignored.
func (s *PlayerService) EnsurePlayer(ctx context.Context, id int64, username, firstName string, referrerID *int64) (*model.Player, bool, error) {
	if referrerID != nil && *referrerID == id {
		referrerID = nil
	}
	if referrerID != nil {
		exists, err := s.playerRepo.Exists(ctx, *referrerID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to check referrer: %w", err)
		}
		if !exists {
			referrerID = nil
		}
	}

	created, err := s.playerRepo.Create(ctx, id, username, firstName, referrerID, s.gachaCfg.StartGold, s.gachaCfg.StartStars)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure player: %w", err)
	}

	if created && referrerID != nil {
		// The account exists; the bonus is best-effort on top of it.
		if err := s.grantReferralBonus(ctx, id, *referrerID, firstName); err != nil {
			log.Warn().Err(err).
				Int64("player_id", id).
				Int64("referrer_id", *referrerID).
				Msg("failed to grant referral bonus")
		}
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load player: %w", err)
	}

	if !created && (player.Username != username || player.FirstName != firstName) {
		if err := s.playerRepo.UpdateName(ctx, id, username, firstName); err == nil {
			player.Username = username
			player.FirstName = firstName
		}
	}

	return player, created, nil
}

// grantReferralBonus credits both sides of a successful referral and
// notifies the referrer. Called exactly once, on account creation.
func (s *PlayerService) grantReferralBonus(ctx context.Context, refereeID, referrerID int64, refereeName string) error {
	if err := s.playerRepo.Credit(ctx, referrerID, s.refCfg.ReferrerGold, s.refCfg.ReferrerStars); err != nil {
		return fmt.Errorf("failed to credit referrer: %w", err)
	}
	if err := s.playerRepo.Credit(ctx, refereeID, s.refCfg.RefereeGold, s.refCfg.RefereeStars); err != nil {
		return fmt.Errorf("failed to credit referee: %w", err)
	}
	s.notify(referrerID, fmt.Sprintf(
		"🎉 По твоей ссылке пришёл новый игрок %s!\nНаграда: ⭐ %d и 💰 %d",
		refereeName, s.refCfg.ReferrerStars, s.refCfg.ReferrerGold,
	))
	return nil
}

// GetPlayer retrieves a player by their Telegram ID.
func (s *PlayerService) GetPlayer(ctx context.Context, id int64) (*model.Player, error) {
	return s.playerRepo.GetByID(ctx, id)
}

// ClaimDaily claims the daily bonus for a player.
//
// One claim per calendar day (UTC). Claiming on the day after the
// previous claim extends the streak, any longer gap resets it to 1. The
// gold reward grows with the streak; every claim pays the base star and
// an extra star is added once the streak reaches the configured length.
func (s *PlayerService) ClaimDaily(ctx context.Context, playerID int64) (*model.DailyBonus, error) {
	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)

	today := s.now().UTC()
	streak, err := s.playerRepo.RecordDailyClaim(ctx, playerID, today)
	if err != nil {
		return nil, err
	}

	bonus := &model.DailyBonus{
		Streak: streak,
		Gold:   s.dailyCfg.BonusGold + s.dailyCfg.StreakGoldStep*int64(streak),
		Stars:  s.dailyCfg.BonusStars,
	}
	if streak >= s.dailyCfg.StreakStarDays {
		bonus.Stars++
	}

	if err := s.playerRepo.Credit(ctx, playerID, bonus.Gold, bonus.Stars); err != nil {
		return nil, fmt.Errorf("failed to credit daily bonus: %w", err)
	}
	return bonus, nil
}

// FreePullsLeft reports how many free pulls the player has left today.
func (s *PlayerService) FreePullsLeft(ctx context.Context, playerID int64) (int, error) {
	today := s.now().UTC()
	return s.playerRepo.FreePullsRemaining(ctx, playerID, today, s.gachaCfg.FreePullsPerDay)
}

// ReferralCount returns how many players registered via this player's link.
func (s *PlayerService) ReferralCount(ctx context.Context, playerID int64) (int64, error) {
	return s.playerRepo.ReferralCount(ctx, playerID)
}
