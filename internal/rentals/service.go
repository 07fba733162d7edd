package rentals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service governs the rental lifecycle: creation against listing
// availability, activation, accrual while active, return and cancellation.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.RentalTransaction, error)
	Activate(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	Return(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	Cancel(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	Get(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*RentalList, error)
	SettleAccrual(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error)
	AccrueActive(ctx context.Context) (int, error)
}

// ServiceParams configure the rentals service.
type ServiceParams struct {
	Repo Repository
	Tx   txRunner
	// Loc fixes the calendar used for day boundaries. Defaults to UTC.
	Loc *time.Location
	Now func() time.Time
}

type service struct {
	repo Repository
	tx   txRunner
	loc  *time.Location
	now  func() time.Time
}

// NewService builds a rentals service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	loc := params.Loc
	if loc == nil {
		loc = time.UTC
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo: params.Repo,
		tx:   params.Tx,
		loc:  loc,
		now:  now,
	}, nil
}

// CreateInput carries everything needed to open a rental agreement.
type CreateInput struct {
	ListingID   uuid.UUID
	RenterID    uuid.UUID
	AgreedDays  int
	PaymentPin  *string
	RenterName  string
	RenterRoom  string
	RenterPhone string
}

// Create snapshots the listing terms into a new pending rental and claims one
// unit of the listing in the same transaction.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.RentalTransaction, error) {
	if input.RenterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}
	if input.AgreedDays < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "agreed days must be at least 1")
	}

	var result *models.RentalTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindListingByID(ctx, input.ListingID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.RentPerDay.LessThan(listing.PlatformFeePerDay) {
			return pkgerrors.New(pkgerrors.CodeValidation, "listing fee exceeds daily rent")
		}

		reserved, err := repo.ReserveListingUnit(ctx, listing.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve listing unit")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeConflict, "listing has no units available").
				WithDetails(map[string]any{
					"listing_id":       listing.ID,
					"total_quantity":   listing.TotalQuantity,
					"currently_rented": listing.CurrentlyRented,
				})
		}

		now := s.now()
		agreed := decimal.NewFromInt(int64(input.AgreedDays))
		rental := &models.RentalTransaction{
			ListingID:          listing.ID,
			SellerID:           listing.SellerID,
			RenterID:           input.RenterID,
			RentPerDay:         listing.RentPerDay,
			PlatformFeePerDay:  listing.PlatformFeePerDay,
			SecurityDeposit:    listing.SecurityDeposit,
			AgreedDays:         input.AgreedDays,
			DaysRented:         input.AgreedDays,
			LastCalculated:     now,
			AmountOwedToSeller: decimal.Zero,
			SellerPaidOut:      decimal.Zero,
			TotalPaid:          listing.RentPerDay.Mul(agreed).Add(listing.SecurityDeposit),
			Status:             enums.RentalStatusPending,
			PaymentStatus:      enums.RentalPaymentStatusPending,
			PaymentPin:         input.PaymentPin,
			StartDate:          now,
			RenterName:         input.RenterName,
			RenterRoom:         input.RenterRoom,
			RenterPhone:        input.RenterPhone,
			SellerName:         listing.SellerName,
		}
		result, err = repo.Create(ctx, rental)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create rental")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Activate confirms payment and starts the rental clock. The agreed period is
// earned up front: the seller is owed its net from this point on, and accrual
// can only grow the amount when the rental runs long.
func (s *service) Activate(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	var result *models.RentalTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rental, err := findRental(ctx, repo, rentalID, true)
		if err != nil {
			return err
		}
		if rental.Status != enums.RentalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot activate rental in status %s", rental.Status))
		}

		now := s.now()
		updates := map[string]any{
			"status":                enums.RentalStatusActive,
			"payment_status":        enums.RentalPaymentStatusPaid,
			"amount_owed_to_seller": sellerEarning(rental.RentPerDay, rental.PlatformFeePerDay, rental.AgreedDays),
			"days_rented":           rental.AgreedDays,
			"start_date":            now,
			"last_calculated":       now,
		}
		if err := repo.Update(ctx, rental.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "activate rental")
		}
		result, err = repo.FindByID(ctx, rental.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Return closes an active rental: it runs the accrual up to now, freezes the
// totals, stamps returnedAt and frees the listing unit, all in one
// transaction. What the seller has been paid is untouched.
func (s *service) Return(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	var result *models.RentalTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rental, err := findRental(ctx, repo, rentalID, true)
		if err != nil {
			return err
		}
		if rental.Status != enums.RentalStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot return rental in status %s", rental.Status))
		}

		now := s.now()
		updates := map[string]any{
			"status":      enums.RentalStatusReturned,
			"returned_at": now,
		}
		if change, due := AccrualDue(rental, now, s.loc); due {
			updates["days_rented"] = change.DaysRented
			updates["amount_owed_to_seller"] = change.AmountOwed
			updates["last_calculated"] = change.CalculatedAt
		}
		if err := repo.Update(ctx, rental.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return rental")
		}
		if err := repo.ReleaseListingUnit(ctx, rental.ListingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release listing unit")
		}
		result, err = repo.FindByID(ctx, rental.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel voids a pending rental and frees the listing unit. Active rentals
// must be returned instead so their accrual is reconciled; cancelling an
// already cancelled rental is a no-op.
func (s *service) Cancel(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	var result *models.RentalTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rental, err := findRental(ctx, repo, rentalID, true)
		if err != nil {
			return err
		}
		switch rental.Status {
		case enums.RentalStatusCancelled:
			result = rental
			return nil
		case enums.RentalStatusPending:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot cancel rental in status %s", rental.Status))
		}

		if err := repo.Update(ctx, rental.ID, map[string]any{
			"status": enums.RentalStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel rental")
		}
		if err := repo.ReleaseListingUnit(ctx, rental.ListingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release listing unit")
		}
		result, err = repo.FindByID(ctx, rental.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	return findRental(ctx, s.repo, rentalID, false)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*RentalList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rentals")
	}
	return list, nil
}

// SettleAccrual brings one rental's accrual state up to now. Safe to call any
// time: rentals that are not active and paid, or that have nothing new to
// accrue, come back unchanged. A concurrent run winning the conditional
// update is not an error; the refreshed row is returned either way.
func (s *service) SettleAccrual(ctx context.Context, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	rental, err := findRental(ctx, s.repo, rentalID, false)
	if err != nil {
		return nil, err
	}
	if rental.Status != enums.RentalStatusActive || rental.PaymentStatus != enums.RentalPaymentStatusPaid {
		return rental, nil
	}

	change, due := AccrualDue(rental, s.now(), s.loc)
	if !due {
		return rental, nil
	}

	applied, err := s.repo.ApplyAccrual(ctx, rental.ID, rental.LastCalculated, change)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply accrual")
	}
	if !applied {
		return findRental(ctx, s.repo, rentalID, false)
	}

	rental.DaysRented = change.DaysRented
	rental.AmountOwedToSeller = change.AmountOwed
	rental.LastCalculated = change.CalculatedAt
	return rental, nil
}

// AccrueActive runs SettleAccrual over every active, paid rental and reports
// how many rentals moved. Failures are collected so one bad row does not
// starve the rest.
func (s *service) AccrueActive(ctx context.Context) (int, error) {
	ids, err := s.repo.ListAccruable(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accruable rentals")
	}

	var errs error
	updated := 0
	for _, id := range ids {
		before, err := findRental(ctx, s.repo, id, false)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rental %s: %w", id, err))
			continue
		}
		after, err := s.SettleAccrual(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rental %s: %w", id, err))
			continue
		}
		if after.DaysRented != before.DaysRented {
			updated++
		}
	}
	return updated, errs
}

func findRental(ctx context.Context, repo Repository, rentalID uuid.UUID, forUpdate bool) (*models.RentalTransaction, error) {
	if rentalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id required")
	}
	find := repo.FindByID
	if forUpdate {
		find = repo.FindByIDForUpdate
	}
	rental, err := find(ctx, rentalID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "rental not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rental")
	}
	return rental, nil
}
