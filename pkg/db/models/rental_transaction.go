package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmart/campusmart-backend/pkg/enums"
)

// RentalTransaction is one rental agreement between a renter and a seller
// for a listed item. Commercial terms are immutable after creation; accrual
// state moves only through the accrual calculator while the rental is active.
type RentalTransaction struct {
	ID                 uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ListingID          uuid.UUID                 `gorm:"column:listing_id;type:uuid;not null"`
	SellerID           uuid.UUID                 `gorm:"column:seller_id;type:uuid;not null;index"`
	RenterID           uuid.UUID                 `gorm:"column:renter_id;type:uuid;not null"`
	RentPerDay         decimal.Decimal           `gorm:"column:rent_per_day;type:numeric(12,2);not null"`
	PlatformFeePerDay  decimal.Decimal           `gorm:"column:platform_fee_per_day;type:numeric(12,2);not null"`
	SecurityDeposit    decimal.Decimal           `gorm:"column:security_deposit;type:numeric(12,2);not null;default:0"`
	AgreedDays         int                       `gorm:"column:agreed_days;not null"`
	DaysRented         int                       `gorm:"column:days_rented;not null;default:0"`
	LastCalculated     time.Time                 `gorm:"column:last_calculated;not null"`
	AmountOwedToSeller decimal.Decimal           `gorm:"column:amount_owed_to_seller;type:numeric(12,2);not null;default:0"`
	SellerPaidOut      decimal.Decimal           `gorm:"column:seller_paid_out;type:numeric(12,2);not null;default:0"`
	TotalPaid          decimal.Decimal           `gorm:"column:total_paid;type:numeric(12,2);not null"`
	Status             enums.RentalStatus        `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus      enums.RentalPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentPin         *string                   `gorm:"column:payment_pin"`
	StartDate          time.Time                 `gorm:"column:start_date;not null"`
	ReturnedAt         *time.Time                `gorm:"column:returned_at"`
	RenterName         string                    `gorm:"column:renter_name"`
	RenterRoom         string                    `gorm:"column:renter_room"`
	RenterPhone        string                    `gorm:"column:renter_phone"`
	SellerName         string                    `gorm:"column:seller_name"`
	CreatedAt          time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
