// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-gacha-bot/internal/gacha"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, applySchema(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// applySchema creates the tables the repositories expect.
func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS players (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			gold BIGINT NOT NULL DEFAULT 0,
			stars BIGINT NOT NULL DEFAULT 0,
			free_pulls_today INT NOT NULL DEFAULT 0,
			free_pulls_reset_date DATE,
			total_pulls BIGINT NOT NULL DEFAULT 0,
			referrer_id BIGINT,
			daily_streak INT NOT NULL DEFAULT 0,
			last_daily_claim DATE,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS collection_entries (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
			unique_id VARCHAR(32) NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			rarity VARCHAR(20) NOT NULL,
			theme VARCHAR(20) NOT NULL,
			power INT NOT NULL,
			luck DOUBLE PRECISION NOT NULL,
			magic INT NOT NULL,
			special_effects TEXT[] NOT NULL DEFAULT '{}',
			obtained_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (player_id, unique_id)
		);
		CREATE TABLE IF NOT EXISTS quests (
			id BIGSERIAL PRIMARY KEY,
			player_id BIGINT NOT NULL REFERENCES players(user_id) ON DELETE CASCADE,
			quest_date DATE NOT NULL,
			quest_type VARCHAR(30) NOT NULL,
			description TEXT NOT NULL,
			target INT NOT NULL,
			progress INT NOT NULL DEFAULT 0,
			reward_gold BIGINT NOT NULL DEFAULT 0,
			reward_stars BIGINT NOT NULL DEFAULT 0,
			is_completed BOOLEAN NOT NULL DEFAULT FALSE,
			is_claimed BOOLEAN NOT NULL DEFAULT FALSE
		);
		CREATE TABLE IF NOT EXISTS payments (
			charge_id VARCHAR(128) PRIMARY KEY,
			player_id BIGINT NOT NULL,
			sku VARCHAR(32) NOT NULL,
			stars BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS pull_requests (
			player_id BIGINT NOT NULL,
			request_token VARCHAR(128) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (player_id, request_token)
		);
	`)
	return err
}

// testItem builds a deterministic item for collection tests.
func testItem(id string, rarity gacha.Rarity, theme gacha.Theme) gacha.Item {
	return gacha.Item{
		UniqueID:    id,
		Name:        "Меч " + id,
		Description: "Тестовый предмет",
		Rarity:      rarity,
		Theme:       theme,
		Power:       10,
		Luck:        5.5,
		Magic:       8,
	}
}

// ============================================================================
// PlayerRepository
// ============================================================================

func TestPlayerRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	created, err := repo.Create(ctx, 100, "alice", "Алиса", nil, 1000, 0)
	require.NoError(t, err)
	assert.True(t, created)

	player, err := repo.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), player.ID)
	assert.Equal(t, "alice", player.Username)
	assert.Equal(t, int64(1000), player.Gold)
	assert.Equal(t, int64(0), player.Stars)
	assert.Nil(t, player.ReferrerID)
	assert.Zero(t, player.TotalPulls)
	assert.False(t, player.JoinedAt.IsZero())

	// Repeat registration changes nothing
	created, err = repo.Create(ctx, 100, "alice2", "Алиса", nil, 1000, 0)
	require.NoError(t, err)
	assert.False(t, created)

	player, err = repo.GetByID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "alice", player.Username)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_ReferrerFirstWriteWins(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "ref", "Реферер", nil, 0, 0)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "other", "Другой", nil, 0, 0)
	require.NoError(t, err)

	refID := int64(1)
	created, err := repo.Create(ctx, 3, "bob", "Боб", &refID, 0, 0)
	require.NoError(t, err)
	assert.True(t, created)

	// A later /start with a different deep link must not relink.
	otherID := int64(2)
	created, err = repo.Create(ctx, 3, "bob", "Боб", &otherID, 0, 0)
	require.NoError(t, err)
	assert.False(t, created)

	player, err := repo.GetByID(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, player.ReferrerID)
	assert.Equal(t, int64(1), *player.ReferrerID)

	count, err := repo.ReferralCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPlayerRepository_CreditAndSpend(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 10, "u", "U", nil, 100, 5)
	require.NoError(t, err)

	require.NoError(t, repo.Credit(ctx, 10, 50, 2))
	player, err := repo.GetByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(150), player.Gold)
	assert.Equal(t, int64(7), player.Stars)

	require.NoError(t, repo.SpendGold(ctx, 10, 150))
	assert.ErrorIs(t, repo.SpendGold(ctx, 10, 1), ErrInsufficientGold)

	require.NoError(t, repo.SpendStars(ctx, 10, 7))
	assert.ErrorIs(t, repo.SpendStars(ctx, 10, 1), ErrInsufficientStars)

	assert.ErrorIs(t, repo.SpendGold(ctx, 999, 1), ErrPlayerNotFound)
	assert.ErrorIs(t, repo.Credit(ctx, 999, 1, 0), ErrPlayerNotFound)
}

func TestPlayerRepository_ConcurrentSpendNeverOverdraws(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 20, "u", "U", nil, 100, 0)
	require.NoError(t, err)

	// 10 racing debits of 30 gold against a balance of 100: exactly 3 can win.
	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.SpendGold(ctx, 20, 30); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes.Load())

	player, err := repo.GetByID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(10), player.Gold)
}

func TestPlayerRepository_FreePulls(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()
	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, 30, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	// Consuming before the day has been initialized is refused.
	assert.ErrorIs(t, repo.ConsumeFreePull(ctx, 30, today, 3), ErrNoFreePulls)

	remaining, err := repo.FreePullsRemaining(ctx, 30, today, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.ConsumeFreePull(ctx, 30, today, 3))
	}
	assert.ErrorIs(t, repo.ConsumeFreePull(ctx, 30, today, 3), ErrNoFreePulls)

	remaining, err = repo.FreePullsRemaining(ctx, 30, today, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// Consuming the allowance does not count pulls; AddPulls owns the
	// total for free and paid pulls alike.
	player, err := repo.GetByID(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, player.TotalPulls)

	// The next day the allowance lazily resets.
	tomorrow := today.AddDate(0, 0, 1)
	remaining, err = repo.FreePullsRemaining(ctx, 30, tomorrow, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
	require.NoError(t, repo.ConsumeFreePull(ctx, 30, tomorrow, 3))

	_, err = repo.FreePullsRemaining(ctx, 999, today, 3)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_DailyClaimStreaks(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, 40, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	streak, err := repo.RecordDailyClaim(ctx, 40, day1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	// Second claim the same day is refused, even at a later hour.
	_, err = repo.RecordDailyClaim(ctx, 40, day1.Add(10*time.Hour))
	assert.ErrorIs(t, err, ErrAlreadyClaimedToday)

	// The next day extends the streak.
	streak, err = repo.RecordDailyClaim(ctx, 40, day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	// A missed day resets it.
	streak, err = repo.RecordDailyClaim(ctx, 40, day1.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, streak)

	_, err = repo.RecordDailyClaim(ctx, 999, day1)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestPlayerRepository_PullTokens(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewPlayerRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 50, "u", "U", nil, 0, 0)
	require.NoError(t, err)
	_, err = repo.Create(ctx, 51, "v", "V", nil, 0, 0)
	require.NoError(t, err)

	require.NoError(t, repo.RegisterPullToken(ctx, 50, "tok-1"))
	assert.ErrorIs(t, repo.RegisterPullToken(ctx, 50, "tok-1"), ErrDuplicateRequest)
	require.NoError(t, repo.RegisterPullToken(ctx, 50, "tok-2"))

	// Tokens are scoped per player.
	require.NoError(t, repo.RegisterPullToken(ctx, 51, "tok-1"))
}

func TestPlayerRepository_LeaderboardAndRank(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	collectionRepo := NewCollectionRepository(pool)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := playerRepo.Create(ctx, i, fmt.Sprintf("u%d", i), fmt.Sprintf("U%d", i), nil, 0, 0)
		require.NoError(t, err)
	}

	// Player 2 collects three items, player 1 one item, player 3 none.
	for i := 0; i < 3; i++ {
		_, err := collectionRepo.Add(ctx, 2, testItem(fmt.Sprintf("b%d", i), gacha.RarityCommon, gacha.ThemeFantasy))
		require.NoError(t, err)
	}
	_, err := collectionRepo.Add(ctx, 1, testItem("a0", gacha.RarityCommon, gacha.ThemeFantasy))
	require.NoError(t, err)

	entries, err := playerRepo.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(2), entries[0].PlayerID)
	assert.Equal(t, int64(3), entries[0].CollectionSize)
	assert.Equal(t, int64(1), entries[1].PlayerID)

	rank, err := playerRepo.Rank(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = playerRepo.Rank(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rank)

	stats, err := playerRepo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPlayers)
	assert.Equal(t, int64(4), stats.TotalItems)
}

// ============================================================================
// CollectionRepository
// ============================================================================

func TestCollectionRepository_AddIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	repo := NewCollectionRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	item := testItem("abc123def456", gacha.RarityRare, gacha.ThemeSpace)
	inserted, err := repo.Add(ctx, 1, item)
	require.NoError(t, err)
	assert.True(t, inserted)

	// The same item ID lands only once.
	inserted, err = repo.Add(ctx, 1, item)
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := repo.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCollectionRepository_ListNewestFirst(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	repo := NewCollectionRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		_, err := repo.Add(ctx, 1, testItem(fmt.Sprintf("item-%d", i), gacha.RarityCommon, gacha.ThemeMeme))
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, 1, 5, 0)
	require.NoError(t, err)
	require.Len(t, page, 5)
	assert.Equal(t, "item-6", page[0].Item.UniqueID)

	rest, err := repo.List(ctx, 1, 5, 5)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "item-0", rest[1].Item.UniqueID)
}

func TestCollectionRepository_GetByEntryID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	repo := NewCollectionRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)
	_, err = playerRepo.Create(ctx, 2, "v", "V", nil, 0, 0)
	require.NoError(t, err)

	item := testItem("zzz", gacha.RarityLegendary, gacha.ThemeCrypto)
	item.SpecialEffects = []string{"✨ Светится"}
	_, err = repo.Add(ctx, 1, item)
	require.NoError(t, err)

	entries, err := repo.List(ctx, 1, 1, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry, err := repo.GetByEntryID(ctx, 1, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "zzz", entry.Item.UniqueID)
	assert.Equal(t, gacha.RarityLegendary, entry.Item.Rarity)
	assert.Equal(t, []string{"✨ Светится"}, entry.Item.SpecialEffects)

	// Another player cannot read someone else's entry.
	_, err = repo.GetByEntryID(ctx, 2, entries[0].ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestCollectionRepository_Stats(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	repo := NewCollectionRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	_, err = repo.Add(ctx, 1, testItem("s1", gacha.RarityCommon, gacha.ThemeFantasy))
	require.NoError(t, err)
	_, err = repo.Add(ctx, 1, testItem("s2", gacha.RarityCommon, gacha.ThemeSpace))
	require.NoError(t, err)
	_, err = repo.Add(ctx, 1, testItem("s3", gacha.RarityEpic, gacha.ThemeSpace))
	require.NoError(t, err)

	stats, err := repo.Stats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByRarity[gacha.RarityCommon])
	assert.Equal(t, int64(1), stats.ByRarity[gacha.RarityEpic])
	assert.Equal(t, int64(2), stats.ByTheme[gacha.ThemeSpace])
	assert.Equal(t, int64(30), stats.TotalPower)
	assert.InDelta(t, 16.5, stats.TotalLuck, 1e-9)

	themes, err := repo.DistinctThemes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, themes)
}

// ============================================================================
// QuestRepository
// ============================================================================

func setupQuests(t *testing.T, pool *pgxpool.Pool, playerID int64, day time.Time) *QuestRepository {
	t.Helper()
	ctx := context.Background()

	playerRepo := NewPlayerRepository(pool)
	_, err := playerRepo.Create(ctx, playerID, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	repo := NewQuestRepository(pool)
	templates := []gacha.QuestTemplate{
		{Type: gacha.QuestDailyPull, Target: 3, Description: "Сделай 3 тяга", RewardGold: 300, RewardStars: 2},
		{Type: gacha.QuestCollectionSize, Target: 10, Description: "Собери 10 предметов", RewardGold: 400, RewardStars: 5},
	}
	require.NoError(t, repo.CreateBatch(ctx, playerID, day, templates))
	return repo
}

func TestQuestRepository_ProgressClampsAndCompletes(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := setupQuests(t, pool, 1, day)

	quests, err := repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	require.Len(t, quests, 2)

	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestDailyPull, 2, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 2, quests[0].Progress)
	assert.False(t, quests[0].Completed)

	// Overshooting clamps at the target and flips completion.
	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestDailyPull, 5, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 3, quests[0].Progress)
	assert.True(t, quests[0].Completed)

	// Progress on another day's quests never leaks into today.
	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestCollectionSize, 10, day.AddDate(0, 0, 1)))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 0, quests[1].Progress)
}

func TestQuestRepository_SyncProgressNeverDecreases(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := setupQuests(t, pool, 1, day)

	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestCollectionSize, 7, day))
	quests, err := repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 7, quests[1].Progress)

	// A smaller measurement cannot roll progress back.
	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestCollectionSize, 4, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 7, quests[1].Progress)

	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestCollectionSize, 25, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 10, quests[1].Progress)
	assert.True(t, quests[1].Completed)
}

func TestQuestRepository_ThemeQuestCompletesOnFullCoverage(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	playerRepo := NewPlayerRepository(pool)
	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	repo := NewQuestRepository(pool)
	var themeTpl gacha.QuestTemplate
	for _, tpl := range gacha.QuestTemplates {
		if tpl.Type == gacha.QuestThemeComplete {
			themeTpl = tpl
		}
	}
	require.NoError(t, repo.CreateBatch(ctx, 1, day, []gacha.QuestTemplate{themeTpl}))

	// One theme collected is progress, not completion.
	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestThemeComplete, 1, day))
	quests, err := repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, 1, quests[0].Progress)
	assert.False(t, quests[0].Completed)

	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestThemeComplete, len(gacha.ThemeOrder)-1, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.False(t, quests[0].Completed)

	require.NoError(t, repo.SyncProgress(ctx, 1, gacha.QuestThemeComplete, len(gacha.ThemeOrder), day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, len(gacha.ThemeOrder), quests[0].Progress)
	assert.True(t, quests[0].Completed)
}

func TestQuestRepository_ClaimPaysExactlyOnce(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := setupQuests(t, pool, 1, day)
	playerRepo := NewPlayerRepository(pool)

	quests, err := repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)

	// Unfinished quests cannot be claimed.
	_, err = repo.Claim(ctx, 1, quests[0].ID)
	assert.ErrorIs(t, err, ErrQuestNotClaimable)

	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestDailyPull, 3, day))

	// Racing claims on the same quest pay out exactly once.
	var successes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Claim(ctx, 1, quests[0].ID); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes.Load())

	player, err := playerRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(300), player.Gold)
	assert.Equal(t, int64(2), player.Stars)

	// Claimed quests are frozen: further progress is ignored.
	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestDailyPull, 1, day))
	quests, err = repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	assert.Equal(t, 3, quests[0].Progress)
	assert.True(t, quests[0].Claimed)
}

func TestQuestRepository_ClaimWrongPlayer(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	repo := setupQuests(t, pool, 1, day)

	playerRepo := NewPlayerRepository(pool)
	_, err := playerRepo.Create(ctx, 2, "v", "V", nil, 0, 0)
	require.NoError(t, err)

	quests, err := repo.GetForDate(ctx, 1, day)
	require.NoError(t, err)
	require.NoError(t, repo.AddProgress(ctx, 1, gacha.QuestDailyPull, 3, day))

	_, err = repo.Claim(ctx, 2, quests[0].ID)
	assert.ErrorIs(t, err, ErrQuestNotClaimable)
}

// ============================================================================
// PaymentRepository
// ============================================================================

func TestPaymentRepository_CreditPurchaseIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	playerRepo := NewPlayerRepository(pool)
	repo := NewPaymentRepository(pool)
	ctx := context.Background()

	_, err := playerRepo.Create(ctx, 1, "u", "U", nil, 0, 0)
	require.NoError(t, err)

	require.NoError(t, repo.CreditPurchase(ctx, 1, "s50", 50, "charge-1"))

	// A redelivered confirmation with the same charge ID credits nothing.
	err = repo.CreditPurchase(ctx, 1, "s50", 50, "charge-1")
	assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed)

	player, err := playerRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), player.Stars)

	require.NoError(t, repo.CreditPurchase(ctx, 1, "s150", 150, "charge-2"))
	player, err = playerRepo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), player.Stars)
}
