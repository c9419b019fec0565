// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPaymentAlreadyProcessed is returned when a payment confirmation with a
// known provider charge ID arrives again.
var ErrPaymentAlreadyProcessed = errors.New("payment already processed")

// PaymentRepository records processed star purchases so a duplicated
// provider callback never credits twice.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new PaymentRepository instance.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreditPurchase credits purchased stars exactly once per provider charge
// ID. Recording the charge and crediting the balance happen in one
// transaction keyed on the charge ID primary key.
func (r *PaymentRepository) CreditPurchase(ctx context.Context, playerID int64, sku string, stars int64, chargeID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin payment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const record = `
		INSERT INTO payments (charge_id, player_id, sku, stars, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (charge_id) DO NOTHING
	`

	result, err := tx.Exec(ctx, record, chargeID, playerID, sku, stars)
	if err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentAlreadyProcessed
	}

	const credit = `UPDATE players SET stars = stars + $2 WHERE user_id = $1`
	creditResult, err := tx.Exec(ctx, credit, playerID, stars)
	if err != nil {
		return fmt.Errorf("failed to credit purchase: %w", err)
	}
	if creditResult.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}
