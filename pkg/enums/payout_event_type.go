package enums

import "fmt"

// PayoutEventType classifies entries in the payout ledger.
type PayoutEventType string

const (
	PayoutEventTypeSettlementApplied PayoutEventType = "settlement_applied"
	PayoutEventTypeRentalSettled     PayoutEventType = "rental_settled"
)

var validPayoutEventTypes = []PayoutEventType{
	PayoutEventTypeSettlementApplied,
	PayoutEventTypeRentalSettled,
}

// IsValid reports whether the value is a known PayoutEventType.
func (t PayoutEventType) IsValid() bool {
	for _, candidate := range validPayoutEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParsePayoutEventType converts raw input into a PayoutEventType.
func ParsePayoutEventType(value string) (PayoutEventType, error) {
	for _, candidate := range validPayoutEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout event type %q", value)
}
