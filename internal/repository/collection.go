// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-gacha-bot/internal/gacha"
	"telegram-gacha-bot/internal/model"
)

// ErrItemNotFound is returned when a collection entry does not exist.
var ErrItemNotFound = errors.New("item not found")

const entryColumns = `id, player_id, unique_id, name, description, rarity, theme,
		power, luck, magic, special_effects, obtained_at`

// CollectionRepository handles the append-only record of obtained items.
type CollectionRepository struct {
	pool *pgxpool.Pool
}

// NewCollectionRepository creates a new CollectionRepository instance.
func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{pool: pool}
}

// Add appends an item to a player's collection. A duplicate unique ID for
// the same player is silently ignored: the only way to hit it is an
// artificial seed collision, and the reference behavior is to keep the
// first copy. Returns whether a row was inserted.
func (r *CollectionRepository) Add(ctx context.Context, playerID int64, item gacha.Item) (bool, error) {
	const query = `
		INSERT INTO collection_entries
			(player_id, unique_id, name, description, rarity, theme, power, luck, magic, special_effects, obtained_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (player_id, unique_id) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query,
		playerID,
		item.UniqueID,
		item.Name,
		item.Description,
		string(item.Rarity),
		string(item.Theme),
		item.Power,
		item.Luck,
		item.Magic,
		item.SpecialEffects,
	)
	if err != nil {
		return false, fmt.Errorf("failed to add collection entry: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func scanEntry(row pgx.Row) (*model.CollectionEntry, error) {
	var (
		e      model.CollectionEntry
		rarity string
		theme  string
	)
	err := row.Scan(
		&e.ID,
		&e.PlayerID,
		&e.Item.UniqueID,
		&e.Item.Name,
		&e.Item.Description,
		&rarity,
		&theme,
		&e.Item.Power,
		&e.Item.Luck,
		&e.Item.Magic,
		&e.Item.SpecialEffects,
		&e.ObtainedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Item.Rarity = gacha.Rarity(rarity)
	e.Item.Theme = gacha.Theme(theme)
	return &e, nil
}

// List returns a page of a player's collection, newest first.
func (r *CollectionRepository) List(ctx context.Context, playerID int64, limit, offset int) ([]*model.CollectionEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM collection_entries
		WHERE player_id = $1
		ORDER BY obtained_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection: %w", err)
	}
	defer rows.Close()

	var entries []*model.CollectionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}
	return entries, nil
}

// GetByEntryID returns a single collection entry owned by the player.
func (r *CollectionRepository) GetByEntryID(ctx context.Context, playerID, entryID int64) (*model.CollectionEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM collection_entries
		WHERE id = $1 AND player_id = $2`

	e, err := scanEntry(r.pool.QueryRow(ctx, query, entryID, playerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get collection entry: %w", err)
	}
	return e, nil
}

// Count returns the size of a player's collection.
func (r *CollectionRepository) Count(ctx context.Context, playerID int64) (int64, error) {
	const query = `SELECT COUNT(*) FROM collection_entries WHERE player_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, playerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count collection: %w", err)
	}
	return count, nil
}

// DistinctThemes returns how many different themes appear in the player's
// collection. Used for the theme-completion quest.
func (r *CollectionRepository) DistinctThemes(ctx context.Context, playerID int64) (int, error) {
	const query = `SELECT COUNT(DISTINCT theme) FROM collection_entries WHERE player_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, playerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count distinct themes: %w", err)
	}
	return count, nil
}

// Stats aggregates a player's collection: totals plus per-rarity and
// per-theme counts.
func (r *CollectionRepository) Stats(ctx context.Context, playerID int64) (*model.CollectionStats, error) {
	const totals = `
		SELECT COUNT(*),
		       COALESCE(SUM(power), 0),
		       COALESCE(SUM(luck), 0),
		       COALESCE(SUM(magic), 0)
		FROM collection_entries WHERE player_id = $1
	`

	stats := &model.CollectionStats{
		ByRarity: make(map[gacha.Rarity]int64),
		ByTheme:  make(map[gacha.Theme]int64),
	}

	err := r.pool.QueryRow(ctx, totals, playerID).Scan(
		&stats.Total, &stats.TotalPower, &stats.TotalLuck, &stats.TotalMagic,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection totals: %w", err)
	}

	const byRarity = `SELECT rarity, COUNT(*) FROM collection_entries WHERE player_id = $1 GROUP BY rarity`
	if err := r.countGroup(ctx, byRarity, playerID, func(key string, n int64) {
		stats.ByRarity[gacha.Rarity(key)] = n
	}); err != nil {
		return nil, err
	}

	const byTheme = `SELECT theme, COUNT(*) FROM collection_entries WHERE player_id = $1 GROUP BY theme`
	if err := r.countGroup(ctx, byTheme, playerID, func(key string, n int64) {
		stats.ByTheme[gacha.Theme(key)] = n
	}); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *CollectionRepository) countGroup(ctx context.Context, query string, playerID int64, add func(string, int64)) error {
	rows, err := r.pool.Query(ctx, query, playerID)
	if err != nil {
		return fmt.Errorf("failed to group collection: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("failed to scan group row: %w", err)
		}
		add(key, n)
	}
	return rows.Err()
}
