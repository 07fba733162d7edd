package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a retail item sold from platform inventory.
type Product struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Category      string    `gorm:"column:category"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	StockQuantity int       `gorm:"column:stock_quantity;not null;default:0"`
	IsAvailable   bool      `gorm:"column:is_available;not null;default:true"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
