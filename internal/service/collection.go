package service

import (
	"context"

	"telegram-gacha-bot/internal/model"
	"telegram-gacha-bot/internal/repository"
)

// CollectionService exposes a player's item collection for browsing.
type CollectionService struct {
	collectionRepo *repository.CollectionRepository
}

// NewCollectionService creates a new CollectionService instance.
func NewCollectionService(collectionRepo *repository.CollectionRepository) *CollectionService {
	return &CollectionService{collectionRepo: collectionRepo}
}

// Page returns one page of the collection, newest items first, together
// with the total item count for pagination.
func (s *CollectionService) Page(ctx context.Context, playerID int64, page, perPage int) ([]*model.CollectionEntry, int64, error) {
	total, err := s.collectionRepo.Count(ctx, playerID)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	entries, err := s.collectionRepo.List(ctx, playerID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Get returns a single owned entry. Returns repository.ErrItemNotFound
// when the entry does not exist or belongs to another player.
func (s *CollectionService) Get(ctx context.Context, playerID, entryID int64) (*model.CollectionEntry, error) {
	return s.collectionRepo.GetByEntryID(ctx, playerID, entryID)
}

// Count returns the collection size.
func (s *CollectionService) Count(ctx context.Context, playerID int64) (int64, error) {
	return s.collectionRepo.Count(ctx, playerID)
}

// Stats returns aggregate totals and per-rarity and per-theme breakdowns.
func (s *CollectionService) Stats(ctx context.Context, playerID int64) (*model.CollectionStats, error) {
	return s.collectionRepo.Stats(ctx, playerID)
}
