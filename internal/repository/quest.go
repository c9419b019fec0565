// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/model"
)

// ErrQuestNotClaimable is returned when a claim targets a quest that does
// not belong to the player, is not completed, or was already claimed.
var ErrQuestNotClaimable = errors.New("quest not claimable")

const questColumns = `id, player_id, quest_date, quest_type, description, target,
		progress, reward_gold, reward_stars, is_completed, is_claimed`

// QuestRepository handles per-day quest persistence.
type QuestRepository struct {
	pool *pgxpool.Pool
}

// NewQuestRepository creates a new QuestRepository instance.
func NewQuestRepository(pool *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{pool: pool}
}

func scanQuest(row pgx.Row) (*model.Quest, error) {
	var (
		q     model.Quest
		qtype string
	)
	err := row.Scan(
		&q.ID,
		&q.PlayerID,
		&q.Date,
		&qtype,
		&q.Description,
		&q.Target,
		&q.Progress,
		&q.RewardGold,
		&q.RewardStars,
		&q.Completed,
		&q.Claimed,
	)
	if err != nil {
		return nil, err
	}
	q.Type = gacha.QuestType(qtype)
	return &q, nil
}

// GetForDate returns a player's quests for the given day, oldest first.
// Quests from previous days stay in the table as history and are never
// returned here.
func (r *QuestRepository) GetForDate(ctx context.Context, playerID int64, date time.Time) ([]*model.Quest, error) {
	query := `SELECT ` + questColumns + `
		FROM quests
		WHERE player_id = $1 AND quest_date = $2
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, playerID, dateOf(date))
	if err != nil {
		return nil, fmt.Errorf("failed to get quests: %w", err)
	}
	defer rows.Close()

	var quests []*model.Quest
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest: %w", err)
		}
		quests = append(quests, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quests: %w", err)
	}
	return quests, nil
}

// CreateBatch inserts a day's quest set for a player from templates.
func (r *QuestRepository) CreateBatch(ctx context.Context, playerID int64, date time.Time, templates []gacha.QuestTemplate) error {
	const query = `
		INSERT INTO quests (player_id, quest_date, quest_type, description, target, reward_gold, reward_stars)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	day := dateOf(date)
	for _, tpl := range templates {
		_, err := r.pool.Exec(ctx, query, playerID, day, string(tpl.Type), tpl.Description, tpl.Target, tpl.RewardGold, tpl.RewardStars)
		if err != nil {
			return fmt.Errorf("failed to create quest: %w", err)
		}
	}
	return nil
}

// AddProgress adds amount to every unclaimed quest of the given type for
// the player's current day. Progress is clamped to the target and the
// completed flag follows progress >= target. Claimed quests are frozen.
func (r *QuestRepository) AddProgress(ctx context.Context, playerID int64, questType gacha.QuestType, amount int, date time.Time) error {
	const query = `
		UPDATE quests
		SET progress = LEAST(progress + $3, target),
		    is_completed = (LEAST(progress + $3, target) >= target)
		WHERE player_id = $1 AND quest_type = $2 AND quest_date = $4 AND NOT is_claimed
	`

	if _, err := r.pool.Exec(ctx, query, playerID, string(questType), amount, dateOf(date)); err != nil {
		return fmt.Errorf("failed to update quest progress: %w", err)
	}
	return nil
}

// SyncProgress raises progress to an absolute value for quests whose
// progress is a measured quantity (collection size, themes collected)
// rather than a running count. Progress never decreases.
func (r *QuestRepository) SyncProgress(ctx context.Context, playerID int64, questType gacha.QuestType, value int, date time.Time) error {
	const query = `
		UPDATE quests
		SET progress = LEAST(GREATEST(progress, $3), target),
		    is_completed = (LEAST(GREATEST(progress, $3), target) >= target)
		WHERE player_id = $1 AND quest_type = $2 AND quest_date = $4 AND NOT is_claimed
	`

	if _, err := r.pool.Exec(ctx, query, playerID, string(questType), value, dateOf(date)); err != nil {
		return fmt.Errorf("failed to sync quest progress: %w", err)
	}
	return nil
}

// Claim marks a quest claimed and credits its reward in one transaction.
// The claim transition is a conditional UPDATE, so concurrent claims on the
// same quest yield exactly one success and the reward is credited once.
func (r *QuestRepository) Claim(ctx context.Context, playerID, questID int64) (*model.Quest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	claim := `
		UPDATE quests SET is_claimed = TRUE
		WHERE id = $1 AND player_id = $2 AND is_completed AND NOT is_claimed
		RETURNING ` + questColumns

	q, err := scanQuest(tx.QueryRow(ctx, claim, questID, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestNotClaimable
		}
		return nil, fmt.Errorf("failed to claim quest: %w", err)
	}

	const credit = `UPDATE players SET gold = gold + $2, stars = stars + $3 WHERE user_id = $1`
	if _, err := tx.Exec(ctx, credit, playerID, q.RewardGold, q.RewardStars); err != nil {
		return nil, fmt.Errorf("failed to credit quest reward: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}
	return q, nil
}
