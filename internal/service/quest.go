package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/model"
	"telegram-gacha-bot/internal/pkg/lock"
	"telegram-gacha-bot/internal/repository"
)

// questsPerDay is how many quests each player gets per calendar day.
const questsPerDay = 3

// QuestService manages daily quest assignment, progress and claims.
type QuestService struct {
	questRepo      *repository.QuestRepository
	collectionRepo *repository.CollectionRepository
	generator      *gacha.Generator
	locks          *lock.PlayerLock
	now            func() time.Time
}

// NewQuestService creates a new QuestService instance.
func NewQuestService(
	questRepo *repository.QuestRepository,
	collectionRepo *repository.CollectionRepository,
	generator *gacha.Generator,
	locks *lock.PlayerLock,
) *QuestService {
	return &QuestService{
		questRepo:      questRepo,
		collectionRepo: collectionRepo,
		generator:      generator,
		locks:          locks,
		now:            time.Now,
	}
}

// DailyQuests returns today's quests for the player, assigning a fresh
// set on first access of the day. Yesterday's quests stay in the table
// but are never listed or progressed again.
func (s *QuestService) DailyQuests(ctx context.Context, playerID int64) ([]*model.Quest, error) {
	today := s.now().UTC()

	quests, err := s.questRepo.GetForDate(ctx, playerID, today)
	if err != nil {
		return nil, err
	}
	if len(quests) > 0 {
		return quests, nil
	}

	// Two concurrent first accesses may both insert a batch; the lock
	// keeps the assignment to exactly one set per player per day.
	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)

	quests, err = s.questRepo.GetForDate(ctx, playerID, today)
	if err != nil {
		return nil, err
	}
	if len(quests) > 0 {
		return quests, nil
	}

	templates := s.generator.SelectDailyQuests(questsPerDay)
	if err := s.questRepo.CreateBatch(ctx, playerID, today, templates); err != nil {
		return nil, fmt.Errorf("failed to assign daily quests: %w", err)
	}
	return s.questRepo.GetForDate(ctx, playerID, today)
}

// Claim pays out a completed quest. Returns ErrQuestNotClaimable when
// the quest is unfinished, already claimed, or belongs to someone else.
func (s *QuestService) Claim(ctx context.Context, playerID, questID int64) (*model.Quest, error) {
	s.locks.Lock(playerID)
	defer s.locks.Unlock(playerID)
	return s.questRepo.Claim(ctx, playerID, questID)
}

// TrackPullResults updates today's quest progress after a pull. Counter
// quests advance by what the pull produced; collection-size and theme
// quests are synced to the player's current totals. Progress tracking is
// best-effort: a failed update is logged, never surfaced to the player.
func (s *QuestService) TrackPullResults(ctx context.Context, playerID int64, items []gacha.Item) {
	today := s.now().UTC()

	s.track(ctx, playerID, gacha.QuestDailyPull, len(items), today)

	var rare, epic, legendary int
	for _, item := range items {
		if item.Rarity.AtLeast(gacha.RarityRare) {
			rare++
		}
		if item.Rarity.AtLeast(gacha.RarityEpic) {
			epic++
		}
		if item.Rarity.AtLeast(gacha.RarityLegendary) {
			legendary++
		}
	}
	s.track(ctx, playerID, gacha.QuestCollectRare, rare, today)
	s.track(ctx, playerID, gacha.QuestCollectEpic, epic, today)
	s.track(ctx, playerID, gacha.QuestCollectLegendary, legendary, today)

	if count, err := s.collectionRepo.Count(ctx, playerID); err == nil {
		s.sync(ctx, playerID, gacha.QuestCollectionSize, int(count), today)
	} else {
		log.Warn().Err(err).Int64("player_id", playerID).Msg("failed to read collection size for quests")
	}
	if themes, err := s.collectionRepo.DistinctThemes(ctx, playerID); err == nil {
		s.sync(ctx, playerID, gacha.QuestThemeComplete, themes, today)
	} else {
		log.Warn().Err(err).Int64("player_id", playerID).Msg("failed to read theme count for quests")
	}
}

func (s *QuestService) track(ctx context.Context, playerID int64, questType gacha.QuestType, amount int, today time.Time) {
	if amount <= 0 {
		return
	}
	if err := s.questRepo.AddProgress(ctx, playerID, questType, amount, today); err != nil {
		log.Warn().Err(err).
			Int64("player_id", playerID).
			Str("quest_type", string(questType)).
			Msg("failed to update quest progress")
	}
}

func (s *QuestService) sync(ctx context.Context, playerID int64, questType gacha.QuestType, value int, today time.Time) {
	if err := s.questRepo.SyncProgress(ctx, playerID, questType, value, today); err != nil {
		log.Warn().Err(err).
			Int64("player_id", playerID).
			Str("quest_type", string(questType)).
			Msg("failed to sync quest progress")
	}
}
