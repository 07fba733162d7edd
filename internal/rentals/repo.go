package rentals

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a rentals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rental *models.RentalTransaction) (*models.RentalTransaction, error) {
	if err := r.db.WithContext(ctx).Create(rental).Error; err != nil {
		return nil, err
	}
	return rental, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error) {
	var rental models.RentalTransaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.RentalTransaction, error) {
	var rental models.RentalTransaction
	err := lockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&rental).Error
	if err != nil {
		return nil, err
	}
	return &rental, nil
}

// lockForUpdate takes a row lock where the dialect supports it. SQLite has a
// single writer lock instead, so the clause is skipped there.
func lockForUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector.Name() == "sqlite" {
		return query
	}
	return query.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *repository) FindListingByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ReserveListingUnit claims one unit of the listing. The conditional update
// is the availability check; false means the listing is inactive, missing or
// fully rented out.
func (r *repository) ReserveListingUnit(ctx context.Context, listingID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND is_active = ? AND currently_rented < total_quantity", listingID, true).
		UpdateColumn("currently_rented", gorm.Expr("currently_rented + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ReleaseListingUnit(ctx context.Context, listingID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ? AND currently_rented > 0", listingID).
		UpdateColumn("currently_rented", gorm.Expr("currently_rented - 1")).Error
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

// ApplyAccrual advances the accrual state only if nobody else has since the
// caller read the row: the WHERE clause pins the previous lastCalculated so
// two concurrent runs cannot both apply.
func (r *repository) ApplyAccrual(ctx context.Context, rentalID uuid.UUID, prevCalculated time.Time, change AccrualChange) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.RentalTransaction{}).
		Where("id = ? AND status = ? AND payment_status = ? AND last_calculated = ?",
			rentalID, enums.RentalStatusActive, enums.RentalPaymentStatusPaid, prevCalculated).
		Updates(map[string]any{
			"days_rented":           change.DaysRented,
			"amount_owed_to_seller": change.AmountOwed,
			"last_calculated":       change.CalculatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListAccruable(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.RentalTransaction{}).
		Where("status = ? AND payment_status = ?", enums.RentalStatusActive, enums.RentalPaymentStatusPaid).
		Order("start_date ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*RentalList, error) {
	query := r.db.WithContext(ctx).Model(&models.RentalTransaction{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		query = query.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.SellerID != nil {
		query = query.Where("seller_id = ?", *filters.SellerID)
	}
	if filters.RenterID != nil {
		query = query.Where("renter_id = ?", *filters.RenterID)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rentals []models.RentalTransaction
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rentals).Error
	if err != nil {
		return nil, err
	}

	list := &RentalList{}
	if len(rentals) > limit {
		last := rentals[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
		rentals = rentals[:limit]
	}
	list.Rentals = rentals
	return list, nil
}
