package rentals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
)

// elapsedCalendarDays counts the day boundaries crossed between start and now
// in loc. A rental started at 23:50 has elapsed one day ten minutes later.
func elapsedCalendarDays(start, now time.Time, loc *time.Location) int {
	s := start.In(loc)
	n := now.In(loc)
	startDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc)
	nowDay := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	days := int(nowDay.Sub(startDay) / (24 * time.Hour))
	if days < 0 {
		return 0
	}
	return days
}

// sellerEarning is the seller's net for the given number of rental days.
func sellerEarning(rentPerDay, platformFeePerDay decimal.Decimal, days int) decimal.Decimal {
	net := rentPerDay.Sub(platformFeePerDay)
	return net.Mul(decimal.NewFromInt(int64(days)))
}

// AccrualDue computes the accrual state the rental should be at as of now.
// The agreed rental period is a floor: days rented and the amount owed only
// grow once the rental runs past it, and never shrink. The second return is
// false when the stored state is already current.
func AccrualDue(rental *models.RentalTransaction, now time.Time, loc *time.Location) (AccrualChange, bool) {
	elapsed := elapsedCalendarDays(rental.StartDate, now, loc)
	days := rental.AgreedDays
	if elapsed > days {
		days = elapsed
	}
	if days <= rental.DaysRented {
		return AccrualChange{}, false
	}
	return AccrualChange{
		DaysRented:   days,
		AmountOwed:   sellerEarning(rental.RentPerDay, rental.PlatformFeePerDay, days),
		CalculatedAt: now,
	}, true
}
