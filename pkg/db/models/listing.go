package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a peer-owned item offered for daily rental.
type Listing struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID          uuid.UUID       `gorm:"column:seller_id;type:uuid;not null"`
	Title             string          `gorm:"column:title;not null"`
	RentPerDay        decimal.Decimal `gorm:"column:rent_per_day;type:numeric(12,2);not null"`
	PlatformFeePerDay decimal.Decimal `gorm:"column:platform_fee_per_day;type:numeric(12,2);not null"`
	SecurityDeposit   decimal.Decimal `gorm:"column:security_deposit;type:numeric(12,2);not null;default:0"`
	TotalQuantity     int             `gorm:"column:total_quantity;not null;default:1"`
	CurrentlyRented   int             `gorm:"column:currently_rented;not null;default:0"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	SellerName        string          `gorm:"column:seller_name"`
	SellerRoom        string          `gorm:"column:seller_room"`
	SellerPhone       string          `gorm:"column:seller_phone"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
