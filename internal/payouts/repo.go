package payouts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payouts repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// eligible scopes to rentals that can receive payouts: the renter has paid
// and the item is returned or still out.
func eligible(query *gorm.DB) *gorm.DB {
	return query.
		Where("payment_status = ?", enums.RentalPaymentStatusPaid).
		Where("status IN ?", []enums.RentalStatus{enums.RentalStatusReturned, enums.RentalStatusActive})
}

// ListEligibleForUpdate returns the seller's payable rentals in allocation
// order: returned rentals first, oldest return first, then active rentals,
// oldest start first.
func (r *repository) ListEligibleForUpdate(ctx context.Context, sellerID uuid.UUID) ([]models.RentalTransaction, error) {
	var rentals []models.RentalTransaction
	query := eligible(lockForUpdate(r.db.WithContext(ctx)).Model(&models.RentalTransaction{})).
		Where("seller_id = ?", sellerID).
		Order("CASE WHEN status = 'returned' THEN 0 ELSE 1 END ASC").
		Order("CASE WHEN status = 'returned' THEN returned_at ELSE start_date END ASC")
	if err := query.Find(&rentals).Error; err != nil {
		return nil, err
	}
	return rentals, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	var rental models.RentalTransaction
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", rentalID).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) Update(ctx context.Context, rentalID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.RentalTransaction{}).
		Where("id = ?", rentalID).
		Updates(updates).Error
}

// OwedSummary aggregates outstanding balances per seller over eligible
// rentals. Sellers with nothing outstanding are omitted.
func (r *repository) OwedSummary(ctx context.Context, sellerID *uuid.UUID) ([]SellerOwed, error) {
	query := eligible(r.db.WithContext(ctx).Model(&models.RentalTransaction{})).
		Select(
			"seller_id",
			"MAX(seller_name) AS seller_name",
			"SUM(amount_owed_to_seller - seller_paid_out) AS total_owed",
			"COUNT(*) AS rental_count",
		).
		Where("amount_owed_to_seller > seller_paid_out").
		Group("seller_id").
		Order("total_owed DESC")
	if sellerID != nil {
		query = query.Where("seller_id = ?", *sellerID)
	}

	var rows []SellerOwed
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// lockForUpdate takes a row lock where the dialect supports it. SQLite has a
// single writer lock instead, so the clause is skipped there.
func lockForUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() == "sqlite" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}
