package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

// ListFilters describe the inputs supported by the admin order list.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.OrderPaymentStatus
	CustomerID    *uuid.UUID
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
