package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-gacha-bot/internal/config"
	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/pkg/lock"
	"telegram-gacha-bot/internal/repository"
)

// ErrPackNotFound is returned when a pull references an unknown pack.
var ErrPackNotFound = errors.New("pack not found")

// PullService orchestrates gacha pulls: allowance and balance checks,
// item generation, collection persistence and quest progress.
type PullService struct {
	playerRepo     *repository.PlayerRepository
	collectionRepo *repository.CollectionRepository
	questSvc       *QuestService
	generator      *gacha.Generator
	locks          *lock.PlayerLock
	gachaCfg       config.GachaConfig
	now            func() time.Time
}

// NewPullService creates a new PullService instance.
func NewPullService(
	playerRepo *repository.PlayerRepository,
	collectionRepo *repository.CollectionRepository,
	questSvc *QuestService,
	generator *gacha.Generator,
	locks *lock.PlayerLock,
	cfg *config.Config,
) *PullService {
	return &PullService{
		playerRepo:     playerRepo,
		collectionRepo: collectionRepo,
		questSvc:       questSvc,
		generator:      generator,
		locks:          locks,
		gachaCfg:       cfg.Gacha,
		now:            time.Now,
	}
}

// FreePull consumes one of today's free pulls and generates a single
// free-track item. Returns ErrNoFreePulls when the daily allowance is
// spent.
func (s *PullService) FreePull(ctx context.Context, playerID int64) (gacha.Item, error) {
	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)

	today := s.now().UTC()
	if _, err := s.playerRepo.FreePullsRemaining(ctx, playerID, today, s.gachaCfg.FreePullsPerDay); err != nil {
		return gacha.Item{}, err
	}
	if err := s.playerRepo.ConsumeFreePull(ctx, playerID, today, s.gachaCfg.FreePullsPerDay); err != nil {
		return gacha.Item{}, err
	}

	item := s.generator.Generate(gacha.GenerateOptions{})
	if err := s.persistResults(ctx, playerID, []gacha.Item{item}); err != nil {
		return gacha.Item{}, err
	}
	return item, nil
}

// PackPull charges the pack's cost and runs its pulls, including any
// guarantee and bonus pulls.
//
// The request token makes retried callbacks safe: the token is recorded
// before the debit, so a duplicate delivery fails with
// ErrDuplicateRequest instead of charging twice. Free packs are not sold
// through this path.
func (s *PullService) PackPull(ctx context.Context, playerID int64, packID, requestToken string) ([]gacha.Item, error) {
	pack, ok := gacha.GetPack(packID)
	if !ok || pack.Free {
		return nil, ErrPackNotFound
	}

	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)

	if err := s.playerRepo.RegisterPullToken(ctx, playerID, requestToken); err != nil {
		return nil, err
	}

	switch pack.Currency {
	case gacha.CurrencyGold:
		if err := s.playerRepo.SpendGold(ctx, playerID, pack.Cost); err != nil {
			return nil, err
		}
	case gacha.CurrencyStars:
		if err := s.playerRepo.SpendStars(ctx, playerID, pack.Cost); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown pack currency %q", pack.Currency)
	}

	items := s.generator.ExecutePull(pack)
	if err := s.persistResults(ctx, playerID, items); err != nil {
		return nil, err
	}
	return items, nil
}

// persistResults stores the pulled items and rolls the pull counter and
// quest progress forward. Duplicate item IDs are silently skipped by the
// collection layer.
func (s *PullService) persistResults(ctx context.Context, playerID int64, items []gacha.Item) error {
	for _, item := range items {
		inserted, err := s.collectionRepo.Add(ctx, playerID, item)
		if err != nil {
			return fmt.Errorf("failed to store item %s: %w", item.UniqueID, err)
		}
		if !inserted {
			log.Debug().
				Int64("player_id", playerID).
				Str("unique_id", item.UniqueID).
				Msg("duplicate item id skipped")
		}
	}

	if err := s.playerRepo.AddPulls(ctx, playerID, len(items)); err != nil {
		return err
	}

	s.questSvc.TrackPullResults(ctx, playerID, items)
	return nil
}
