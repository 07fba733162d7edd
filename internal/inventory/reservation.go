package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a product to be taken from stock.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Reserver decrements product stock inside the caller's transaction.
type Reserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
}

// Releaser returns stock when an order is cancelled or deleted.
type Releaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Manager bundles both sides of the stock ledger.
type Manager interface {
	Reserver
	Releaser
}

type manager struct{}

// NewManager exposes the default stock reservation implementation.
func NewManager() Manager {
	return manager{}
}

// Reserve decrements stock for every request, all or nothing: the first
// product that is unavailable or short on stock aborts the whole call so the
// caller's transaction rolls back without partial reservation.
func (manager) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}

		res := tx.WithContext(ctx).Exec(`
			UPDATE products
			SET stock_quantity = stock_quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND is_available AND stock_quantity >= ?
		`, req.Qty, req.ProductID, req.Qty)
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
		}
		if res.RowsAffected == 0 {
			return reservationConflict(ctx, tx, req)
		}
	}
	return nil
}

// Release returns qty units of the product to stock.
func (manager) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = stock_quantity + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, qty, productID)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func reservationConflict(ctx context.Context, tx *gorm.DB, req ReservationRequest) error {
	var product models.Product
	err := tx.WithContext(ctx).Where("id = ?", req.ProductID).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
			WithDetails(map[string]any{"product_id": req.ProductID})
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	reason := fmt.Sprintf("insufficient stock: requested %d, available %d", req.Qty, product.StockQuantity)
	if !product.IsAvailable {
		reason = "product unavailable"
	}
	return pkgerrors.New(pkgerrors.CodeConflict, reason).WithDetails(map[string]any{
		"product_id": req.ProductID,
		"requested":  req.Qty,
		"available":  product.StockQuantity,
	})
}
