package enums

import "fmt"

// RentalPaymentStatus tracks the renter payment and the seller payout gap.
type RentalPaymentStatus string

const (
	RentalPaymentStatusPending RentalPaymentStatus = "pending"
	RentalPaymentStatusPaid    RentalPaymentStatus = "paid"
	RentalPaymentStatusSettled RentalPaymentStatus = "settled"
)

var validRentalPaymentStatuses = []RentalPaymentStatus{
	RentalPaymentStatusPending,
	RentalPaymentStatusPaid,
	RentalPaymentStatusSettled,
}

// String implements fmt.Stringer.
func (r RentalPaymentStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RentalPaymentStatus.
func (r RentalPaymentStatus) IsValid() bool {
	for _, candidate := range validRentalPaymentStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRentalPaymentStatus converts raw input into a RentalPaymentStatus.
func ParseRentalPaymentStatus(value string) (RentalPaymentStatus, error) {
	for _, candidate := range validRentalPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rental payment status %q", value)
}
