// Package model defines the persistent data models for the gacha bot.
package model

import (
	"time"

	"telegram-gacha-bot/internal/gacha"
)

// Player holds a player's resources and progression state. A row is created
// on first contact and never deleted; gold and stars never go negative.
type Player struct {
	ID                 int64      `db:"user_id"`
	Username           string     `db:"username"`
	FirstName          string     `db:"first_name"`
	Gold               int64      `db:"gold"`
	Stars              int64      `db:"stars"`
	FreePullsToday     int        `db:"free_pulls_today"`
	FreePullsResetDate *time.Time `db:"free_pulls_reset_date"`
	TotalPulls         int64      `db:"total_pulls"`
	ReferrerID         *int64     `db:"referrer_id"`
	DailyStreak        int        `db:"daily_streak"`
	LastDailyClaim     *time.Time `db:"last_daily_claim"`
	JoinedAt           time.Time  `db:"joined_at"`
}

// CollectionEntry links an owned item to a player. The (player, unique item
// ID) pair is unique and the row is append-only.
type CollectionEntry struct {
	ID         int64      `db:"id"`
	PlayerID   int64      `db:"player_id"`
	Item       gacha.Item `db:"-"`
	ObtainedAt time.Time  `db:"obtained_at"`
}

// Quest is one per-day objective of a player. Progress only grows until the
// day rolls over; a claimed quest is frozen.
type Quest struct {
	ID          int64           `db:"id"`
	PlayerID    int64           `db:"player_id"`
	Date        time.Time       `db:"quest_date"`
	Type        gacha.QuestType `db:"quest_type"`
	Description string          `db:"description"`
	Target      int             `db:"target"`
	Progress    int             `db:"progress"`
	RewardGold  int64           `db:"reward_gold"`
	RewardStars int64           `db:"reward_stars"`
	Completed   bool            `db:"is_completed"`
	Claimed     bool            `db:"is_claimed"`
}

// LeaderboardEntry is one row of the collection-size leaderboard.
type LeaderboardEntry struct {
	PlayerID       int64  `db:"player_id"`
	Username       string `db:"username"`
	FirstName      string `db:"first_name"`
	CollectionSize int64  `db:"collection_size"`
	TotalPulls     int64  `db:"total_pulls"`
}

// CollectionStats aggregates a player's collection for display.
type CollectionStats struct {
	Total      int64
	ByRarity   map[gacha.Rarity]int64
	ByTheme    map[gacha.Theme]int64
	TotalPower int64
	TotalLuck  float64
	TotalMagic int64
}

// BotStats holds bot-wide totals for the admin stats command.
type BotStats struct {
	TotalPlayers int64
	TotalItems   int64
	TotalPulls   int64
}

// DailyBonus is the outcome of a daily claim: the new streak and the
// streak-scaled reward that was credited.
type DailyBonus struct {
	Streak int
	Gold   int64
	Stars  int64
}
