package rentals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

// Repository defines persistence operations for rental transactions and the
// listing availability counters they hold.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rental *models.RentalTransaction) (*models.RentalTransaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error)
	FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	ReserveListingUnit(ctx context.Context, listingID uuid.UUID) (bool, error)
	ReleaseListingUnit(ctx context.Context, listingID uuid.UUID) error
	Update(ctx context.Context, rentalID uuid.UUID, updates map[string]any) error
	ApplyAccrual(ctx context.Context, rentalID uuid.UUID, prevCalculated time.Time, change AccrualChange) (bool, error)
	ListAccruable(ctx context.Context) ([]uuid.UUID, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*RentalList, error)
}

// AccrualChange is the state an accrual run wants to move a rental to.
type AccrualChange struct {
	DaysRented   int
	AmountOwed   decimal.Decimal
	CalculatedAt time.Time
}

// ListFilters describe the inputs supported by the admin rental list.
type ListFilters struct {
	Status        *enums.RentalStatus
	PaymentStatus *enums.RentalPaymentStatus
	SellerID      *uuid.UUID
	RenterID      *uuid.UUID
}

// RentalList wraps a page of rentals plus the next page cursor.
type RentalList struct {
	Rentals    []models.RentalTransaction `json:"rentals"`
	NextCursor string                     `json:"next_cursor,omitempty"`
}
