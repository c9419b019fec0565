package service

import (
	"context"
	"errors"

	"telegram-gacha-bot/internal/repository"
	"telegram-gacha-bot/internal/shop"
)

// ErrUnknownSKU is returned when a purchase references a sku that is not
// in the catalog.
var ErrUnknownSKU = errors.New("unknown sku")

// ShopService sells star bundles through Telegram payments.
type ShopService struct {
	paymentRepo *repository.PaymentRepository
}

// NewShopService creates a new ShopService instance.
func NewShopService(paymentRepo *repository.PaymentRepository) *ShopService {
	return &ShopService{paymentRepo: paymentRepo}
}

// Catalog lists the purchasable star bundles in display order.
func (s *ShopService) Catalog() []shop.SKU {
	return shop.All()
}

// SKU resolves a catalog entry for invoice building.
func (s *ShopService) SKU(id string) (shop.SKU, error) {
	sku, ok := shop.Get(id)
	if !ok {
		return shop.SKU{}, ErrUnknownSKU
	}
	return sku, nil
}

// CreditPurchase credits a confirmed purchase exactly once, keyed by the
// provider's charge ID. A redelivered confirmation returns
// ErrPaymentAlreadyProcessed and credits nothing.
func (s *ShopService) CreditPurchase(ctx context.Context, playerID int64, skuID, chargeID string) (shop.SKU, error) {
	sku, ok := shop.Get(skuID)
	if !ok {
		return shop.SKU{}, ErrUnknownSKU
	}
	if err := s.paymentRepo.CreditPurchase(ctx, playerID, sku.ID, sku.Stars, chargeID); err != nil {
		return shop.SKU{}, err
	}
	return sku, nil
}
