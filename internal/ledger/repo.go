package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
)

// Repository manages persistence for payout events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.PayoutEvent) error
	ListByRentalID(ctx context.Context, rentalID uuid.UUID) ([]models.PayoutEvent, error)
	ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.PayoutEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListByRentalID(ctx context.Context, rentalID uuid.UUID) ([]models.PayoutEvent, error) {
	var events []models.PayoutEvent
	if err := r.db.WithContext(ctx).
		Where("rental_id = ?", rentalID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListBySellerID(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutEvent, error) {
	var events []models.PayoutEvent
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
