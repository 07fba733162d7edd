package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmart/campusmart-backend/pkg/enums"
)

// PayoutEvent records an immutable settlement allocation against a rental.
type PayoutEvent struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RentalID    uuid.UUID             `gorm:"column:rental_id;type:uuid;not null;index"`
	SellerID    uuid.UUID             `gorm:"column:seller_id;type:uuid;not null;index"`
	ActorUserID uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null"`
	Type        enums.PayoutEventType `gorm:"column:type;type:text;not null"`
	Amount      decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
