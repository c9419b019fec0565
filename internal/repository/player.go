// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-gacha-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrInsufficientGold    = errors.New("insufficient gold")
	ErrInsufficientStars   = errors.New("insufficient stars")
	ErrNoFreePulls         = errors.New("no free pulls left today")
	ErrAlreadyClaimedToday = errors.New("daily bonus already claimed today")
	ErrDuplicateRequest    = errors.New("duplicate pull request")
)

const playerColumns = `user_id, username, first_name, gold, stars, free_pulls_today,
		free_pulls_reset_date, total_pulls, referrer_id, daily_streak, last_daily_claim, joined_at`

// PlayerRepository handles player ledger persistence: balances, free-pull
// counters, streaks and referral linkage.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerRepository creates a new PlayerRepository instance.
func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

func scanPlayer(row pgx.Row) (*model.Player, error) {
	var p model.Player
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.FirstName,
		&p.Gold,
		&p.Stars,
		&p.FreePullsToday,
		&p.FreePullsResetDate,
		&p.TotalPulls,
		&p.ReferrerID,
		&p.DailyStreak,
		&p.LastDailyClaim,
		&p.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts a new player with the given starting resources. Creation is
// idempotent: if the player already exists nothing changes and created is
// false, which also makes the referrer linkage first-write-wins.
func (r *PlayerRepository) Create(ctx context.Context, id int64, username, firstName string, referrerID *int64, startGold, startStars int64) (created bool, err error) {
	const query = `
		INSERT INTO players (user_id, username, first_name, gold, stars, referrer_id, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, id, username, firstName, startGold, startStars, referrerID)
	if err != nil {
		return false, fmt.Errorf("failed to create player: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByID retrieves a player. Returns ErrPlayerNotFound if absent.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*model.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE user_id = $1`
	p, err := scanPlayer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrPlayerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// UpdateName refreshes the stored Telegram username and first name.
func (r *PlayerRepository) UpdateName(ctx context.Context, id int64, username, firstName string) error {
	const query = `UPDATE players SET username = $2, first_name = $3 WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, id, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to update player name: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// Credit adds gold and stars unconditionally. Amounts may be zero.
func (r *PlayerRepository) Credit(ctx context.Context, id int64, gold, stars int64) error {
	const query = `UPDATE players SET gold = gold + $2, stars = stars + $3 WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, id, gold, stars)
	if err != nil {
		return fmt.Errorf("failed to credit player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// SpendGold deducts gold atomically: the balance check and the deduction are
// a single conditional UPDATE, so no interleaving debit can drive the
// balance negative.
func (r *PlayerRepository) SpendGold(ctx context.Context, id int64, amount int64) error {
	const query = `UPDATE players SET gold = gold - $2 WHERE user_id = $1 AND gold >= $2`
	return r.spend(ctx, query, id, amount, ErrInsufficientGold)
}

// SpendStars deducts stars atomically, same discipline as SpendGold.
func (r *PlayerRepository) SpendStars(ctx context.Context, id int64, amount int64) error {
	const query = `UPDATE players SET stars = stars - $2 WHERE user_id = $1 AND stars >= $2`
	return r.spend(ctx, query, id, amount, ErrInsufficientStars)
}

func (r *PlayerRepository) spend(ctx context.Context, query string, id, amount int64, insufficient error) error {
	result, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return fmt.Errorf("failed to spend: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	exists, err := r.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPlayerNotFound
	}
	return insufficient
}

// FreePullsRemaining returns how many free pulls the player has left for
// the given day. If the stored reset date differs from today the counter is
// lazily reset and persisted as part of this call.
func (r *PlayerRepository) FreePullsRemaining(ctx context.Context, id int64, today time.Time, allowance int) (int, error) {
	const reset = `
		UPDATE players SET free_pulls_today = 0, free_pulls_reset_date = $2
		WHERE user_id = $1
		  AND (free_pulls_reset_date IS NULL OR free_pulls_reset_date <> $2)
	`

	day := dateOf(today)
	if _, err := r.pool.Exec(ctx, reset, id, day); err != nil {
		return 0, fmt.Errorf("failed to reset free pulls: %w", err)
	}

	var used int
	err := r.pool.QueryRow(ctx, `SELECT free_pulls_today FROM players WHERE user_id = $1`, id).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to read free pulls: %w", err)
	}

	remaining := allowance - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ConsumeFreePull spends one free pull of today's allowance. The allowance
// check is part of the UPDATE, so a racing double-tap cannot overspend the
// daily limit. The pull itself is counted via AddPulls when the results are
// persisted, same as paid pulls.
func (r *PlayerRepository) ConsumeFreePull(ctx context.Context, id int64, today time.Time, allowance int) error {
	const query = `
		UPDATE players
		SET free_pulls_today = free_pulls_today + 1
		WHERE user_id = $1 AND free_pulls_reset_date = $2 AND free_pulls_today < $3
	`

	result, err := r.pool.Exec(ctx, query, id, dateOf(today), allowance)
	if err != nil {
		return fmt.Errorf("failed to consume free pull: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoFreePulls
	}
	return nil
}

// AddPulls counts completed pulls towards the player's total.
func (r *PlayerRepository) AddPulls(ctx context.Context, id int64, count int) error {
	const query = `UPDATE players SET total_pulls = total_pulls + $2 WHERE user_id = $1`

	result, err := r.pool.Exec(ctx, query, id, count)
	if err != nil {
		return fmt.Errorf("failed to add pulls: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// RecordDailyClaim registers today's daily bonus claim and returns the new
// streak. A claim on the stored claim date is refused; a claim the day after
// the last one extends the streak, any other gap restarts it at 1.
func (r *PlayerRepository) RecordDailyClaim(ctx context.Context, id int64, today time.Time) (int, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}

	day := dateOf(today)
	if p.LastDailyClaim != nil && sameDay(*p.LastDailyClaim, day) {
		return 0, ErrAlreadyClaimedToday
	}

	newStreak := 1
	if p.LastDailyClaim != nil && sameDay(*p.LastDailyClaim, day.AddDate(0, 0, -1)) {
		newStreak = p.DailyStreak + 1
	}

	// The date guard repeats the same-day check so two racing claims
	// cannot both commit.
	const query = `
		UPDATE players SET daily_streak = $2, last_daily_claim = $3
		WHERE user_id = $1 AND (last_daily_claim IS NULL OR last_daily_claim <> $3)
	`

	result, err := r.pool.Exec(ctx, query, id, newStreak, day)
	if err != nil {
		return 0, fmt.Errorf("failed to record daily claim: %w", err)
	}
	if result.RowsAffected() == 0 {
		return 0, ErrAlreadyClaimedToday
	}
	return newStreak, nil
}

// RegisterPullToken records a client-supplied pull request token. A repeat
// token returns ErrDuplicateRequest, which keeps the debit-then-generate
// sequence from double-charging on a retried request.
func (r *PlayerRepository) RegisterPullToken(ctx context.Context, id int64, token string) error {
	const query = `
		INSERT INTO pull_requests (player_id, request_token, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (player_id, request_token) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, id, token)
	if err != nil {
		return fmt.Errorf("failed to register pull token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrDuplicateRequest
	}
	return nil
}

// Exists checks if a player with the given ID exists.
func (r *PlayerRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM players WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check player existence: %w", err)
	}
	return exists, nil
}

// ReferralCount returns how many players name this player as their referrer.
func (r *PlayerRepository) ReferralCount(ctx context.Context, id int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM players WHERE referrer_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count referrals: %w", err)
	}
	return count, nil
}

// Leaderboard returns the top players by collection size, ties broken by
// total pulls. This is a snapshot read and is not serialized with
// per-player writes.
func (r *PlayerRepository) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	const query = `
		SELECT p.user_id, p.username, p.first_name,
		       COUNT(c.id) AS collection_size, p.total_pulls
		FROM players p
		LEFT JOIN collection_entries c ON c.player_id = p.user_id
		GROUP BY p.user_id, p.username, p.first_name, p.total_pulls
		ORDER BY collection_size DESC, p.total_pulls DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.FirstName, &e.CollectionSize, &e.TotalPulls); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}
	return entries, nil
}

// Rank returns the player's 1-based leaderboard position by collection size.
func (r *PlayerRepository) Rank(ctx context.Context, id int64) (int64, error) {
	const query = `
		SELECT COUNT(*) + 1 FROM players p
		WHERE (SELECT COUNT(*) FROM collection_entries c WHERE c.player_id = p.user_id) >
		      (SELECT COUNT(*) FROM collection_entries c WHERE c.player_id = $1)
	`

	var rank int64
	if err := r.pool.QueryRow(ctx, query, id).Scan(&rank); err != nil {
		return 0, fmt.Errorf("failed to get player rank: %w", err)
	}
	return rank, nil
}

// Stats returns bot-wide totals.
func (r *PlayerRepository) Stats(ctx context.Context) (*model.BotStats, error) {
	const query = `
		SELECT (SELECT COUNT(*) FROM players),
		       (SELECT COUNT(*) FROM collection_entries),
		       (SELECT COALESCE(SUM(total_pulls), 0) FROM players)
	`

	var stats model.BotStats
	if err := r.pool.QueryRow(ctx, query).Scan(&stats.TotalPlayers, &stats.TotalItems, &stats.TotalPulls); err != nil {
		return nil, fmt.Errorf("failed to get bot stats: %w", err)
	}
	return &stats, nil
}

// dateOf truncates a timestamp to its calendar day in UTC.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sameDay reports whether two timestamps fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
