package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/campusmart/campusmart-backend/pkg/enums"
)

// Order is a retail transaction composed of line items against product inventory.
type Order struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber      string                   `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID       uuid.UUID                `gorm:"column:customer_id;type:uuid;not null"`
	Status           enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod      `gorm:"column:payment_method;type:text;not null"`
	PaymentPin       *string                  `gorm:"column:payment_pin"`
	DeliveryMethod   enums.DeliveryMethod     `gorm:"column:delivery_method;type:text;not null"`
	RoomNumber       *string                  `gorm:"column:room_number"`
	SubtotalCents    int                      `gorm:"column:subtotal_cents;not null"`
	DeliveryFeeCents int                      `gorm:"column:delivery_fee_cents;not null;default:0"`
	TotalCents       int                      `gorm:"column:total_cents;not null"`
	AdminNotes       *string                  `gorm:"column:admin_notes"`
	ConfirmedAt      *time.Time               `gorm:"column:confirmed_at"`
	ReadyAt          *time.Time               `gorm:"column:ready_at"`
	CompletedAt      *time.Time               `gorm:"column:completed_at"`
	CancelledAt      *time.Time               `gorm:"column:cancelled_at"`
	Items            []OrderItem              `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
