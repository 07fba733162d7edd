package payouts

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
)

// Repository defines the settlement engine's persistence operations. The
// ForUpdate readers lock the rows they return; allocations against them must
// happen in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListEligibleForUpdate(ctx context.Context, sellerID uuid.UUID) ([]models.RentalTransaction, error)
	FindByIDForUpdate(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	Update(ctx context.Context, rentalID uuid.UUID, updates map[string]any) error
	OwedSummary(ctx context.Context, sellerID *uuid.UUID) ([]SellerOwed, error)
}

// SellerOwed is one row of the outstanding payout projection.
type SellerOwed struct {
	SellerID    uuid.UUID       `json:"seller_id"`
	SellerName  string          `json:"seller_name"`
	TotalOwed   decimal.Decimal `json:"total_owed"`
	RentalCount int             `json:"rental_count"`
}

// Allocation records how much of a settlement landed on one rental.
type Allocation struct {
	RentalID uuid.UUID       `json:"rental_id"`
	Amount   decimal.Decimal `json:"amount"`
	Settled  bool            `json:"settled"`
}

// SettlementResult reports what a settlement run did.
type SettlementResult struct {
	SellerID      uuid.UUID       `json:"seller_id"`
	AmountApplied decimal.Decimal `json:"amount_applied"`
	Unallocated   decimal.Decimal `json:"unallocated"`
	RemainingOwed decimal.Decimal `json:"remaining_owed"`
	Allocations   []Allocation    `json:"allocations"`
}
