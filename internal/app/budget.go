/**
 * @description
 * Monthly messaging budget enforcement, backed by the reminder log's
 * recorded per-message costs.
 */
package app

import (
	"context"
	"time"
)

// SpendSource reports a tenant's accumulated messaging spend since the
// given instant.
type SpendSource interface {
	MonthlySpend(ctx context.Context, userID string, since time.Time) (float64, error)
}

// BudgetService checks tenant spend against a configured monthly cap.
// A cap of zero or less disables the check.
type BudgetService struct {
	spend SpendSource
	cap   float64
	clock Clock
}

// NewBudgetService creates a BudgetService. A nil clock defaults to time.Now.
func NewBudgetService(spend SpendSource, cap float64, clock Clock) *BudgetService {
	if clock == nil {
		clock = time.Now
	}
	return &BudgetService{spend: spend, cap: cap, clock: clock}
}

// IsWithinBudget reports whether the tenant's spend for the current calendar
// month is still below the cap.
func (b *BudgetService) IsWithinBudget(ctx context.Context, userID string) (bool, error) {
	if b.cap <= 0 {
		return true, nil
	}

	now := b.clock()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	spent, err := b.spend.MonthlySpend(ctx, userID, monthStart)
	if err != nil {
		return false, err
	}

	return spent < b.cap, nil
}
