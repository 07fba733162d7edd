package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/internal/ledger"
	"github.com/campusmart/campusmart-backend/internal/rentals"
	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
)

// settlementEpsilon absorbs sub-paisa residue: a rental whose outstanding
// balance is at or below it counts as fully settled.
var settlementEpsilon = decimal.RequireFromString("0.01")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the payout settlement engine. Settlements allocate cash handed
// to a seller across that seller's payable rentals and leave a ledger event
// for every allocation.
type Service interface {
	ListOwed(ctx context.Context, sellerID *uuid.UUID) ([]SellerOwed, error)
	SettleSeller(ctx context.Context, input SettleSellerInput) (*SettlementResult, error)
	SettleRental(ctx context.Context, input SettleRentalInput) (*SettlementResult, error)
}

// ServiceParams configure the payouts service.
type ServiceParams struct {
	Repo   Repository
	Ledger ledger.Repository
	Tx     txRunner
	// Loc fixes the calendar used when refreshing accrual. Defaults to UTC.
	Loc *time.Location
	Now func() time.Time
}

type service struct {
	repo   Repository
	ledger ledger.Repository
	tx     txRunner
	loc    *time.Location
	now    func() time.Time
}

// NewService builds a payouts service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("payouts repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger repository required")
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
		repo:   params.Repo,
		ledger: params.Ledger,
		tx:     params.Tx,
		loc:    loc,
		now:    now,
	}, nil
}

// SettleSellerInput is a lump payout handed to one seller.
type SettleSellerInput struct {
	SellerID    uuid.UUID
	Amount      decimal.Decimal
	ActorUserID uuid.UUID
}

// SettleRentalInput is a payout against one specific rental.
type SettleRentalInput struct {
	RentalID    uuid.UUID
	Amount      decimal.Decimal
	ActorUserID uuid.UUID
}

func (s *service) ListOwed(ctx context.Context, sellerID *uuid.UUID) ([]SellerOwed, error) {
	rows, err := s.repo.OwedSummary(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize owed payouts")
	}
	return rows, nil
}

// SettleSeller spreads the amount across the seller's payable rentals,
// oldest obligation first. Returned rentals are paid before active ones;
// whatever the amount cannot cover stays owed, and whatever exceeds the
// seller's total balance is reported back as unallocated.
func (s *service) SettleSeller(ctx context.Context, input SettleSellerInput) (*SettlementResult, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settlement amount must be positive")
	}

	var result *SettlementResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		eligible, err := repo.ListEligibleForUpdate(ctx, input.SellerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payable rentals")
		}
		if len(eligible) == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "seller has no payable rentals")
		}

		now := s.now()
		remaining := input.Amount
		res := &SettlementResult{
			SellerID:      input.SellerID,
			AmountApplied: decimal.Zero,
			RemainingOwed: decimal.Zero,
		}
		for i := range eligible {
			rental := &eligible[i]
			if err := s.refreshAccrual(ctx, repo, rental, now); err != nil {
				return err
			}
			outstanding := rental.AmountOwedToSeller.Sub(rental.SellerPaidOut)
			if !outstanding.IsPositive() {
				continue
			}
			if !remaining.IsPositive() {
				res.RemainingOwed = res.RemainingOwed.Add(outstanding)
				continue
			}

			alloc := decimal.Min(outstanding, remaining)
			settled := outstanding.Sub(alloc).LessThanOrEqual(settlementEpsilon)
			if err := s.applyAllocation(ctx, repo, ledgerRepo, rental, alloc, settled, input.ActorUserID, enums.PayoutEventTypeSettlementApplied); err != nil {
				return err
			}

			remaining = remaining.Sub(alloc)
			res.AmountApplied = res.AmountApplied.Add(alloc)
			if !settled {
				res.RemainingOwed = res.RemainingOwed.Add(outstanding.Sub(alloc))
			}
			res.Allocations = append(res.Allocations, Allocation{
				RentalID: rental.ID,
				Amount:   alloc,
				Settled:  settled,
			})
		}
		res.Unallocated = remaining
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SettleRental pays one rental directly. Overpaying beyond the outstanding
// balance (plus epsilon) is rejected and the exact remainder reported.
func (s *service) SettleRental(ctx context.Context, input SettleRentalInput) (*SettlementResult, error) {
	if input.RentalID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rental id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "settlement amount must be positive")
	}

	var result *SettlementResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ledgerRepo := s.ledger.WithTx(tx)

		rental, err := repo.FindByIDForUpdate(ctx, input.RentalID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "rental not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load rental")
		}
		if !payable(rental) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("rental in status %s/%s cannot receive payouts", rental.Status, rental.PaymentStatus))
		}

		now := s.now()
		if err := s.refreshAccrual(ctx, repo, rental, now); err != nil {
			return err
		}

		outstanding := rental.AmountOwedToSeller.Sub(rental.SellerPaidOut)
		if input.Amount.GreaterThan(outstanding.Add(settlementEpsilon)) {
			return pkgerrors.New(pkgerrors.CodeValidation, "settlement exceeds outstanding balance").
				WithDetails(map[string]any{
					"remaining_owed": outstanding.String(),
					"submitted":      input.Amount.String(),
				})
		}

		settled := outstanding.Sub(input.Amount).LessThanOrEqual(settlementEpsilon)
		if err := s.applyAllocation(ctx, repo, ledgerRepo, rental, input.Amount, settled, input.ActorUserID, enums.PayoutEventTypeRentalSettled); err != nil {
			return err
		}

		remaining := outstanding.Sub(input.Amount)
		if settled {
			remaining = decimal.Zero
		}
		result = &SettlementResult{
			SellerID:      rental.SellerID,
			AmountApplied: input.Amount,
			Unallocated:   decimal.Zero,
			RemainingOwed: remaining,
			Allocations: []Allocation{{
				RentalID: rental.ID,
				Amount:   input.Amount,
				Settled:  settled,
			}},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func payable(rental *models.RentalTransaction) bool {
	if rental.PaymentStatus != enums.RentalPaymentStatusPaid {
		return false
	}
	return rental.Status == enums.RentalStatusReturned || rental.Status == enums.RentalStatusActive
}

// refreshAccrual brings an active rental's owed amount up to now before
// allocating against it. The row is already locked, so a plain update is
// enough. The in-memory rental is advanced alongside.
func (s *service) refreshAccrual(ctx context.Context, repo Repository, rental *models.RentalTransaction, now time.Time) error {
	if rental.Status != enums.RentalStatusActive {
		return nil
	}
	change, due := rentals.AccrualDue(rental, now, s.loc)
	if !due {
		return nil
	}
	err := repo.Update(ctx, rental.ID, map[string]any{
		"days_rented":           change.DaysRented,
		"amount_owed_to_seller": change.AmountOwed,
		"last_calculated":       change.CalculatedAt,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "refresh accrual")
	}
	rental.DaysRented = change.DaysRented
	rental.AmountOwedToSeller = change.AmountOwed
	rental.LastCalculated = change.CalculatedAt
	return nil
}

// applyAllocation moves money onto one rental and leaves the audit event.
func (s *service) applyAllocation(ctx context.Context, repo Repository, ledgerRepo ledger.Repository, rental *models.RentalTransaction, amount decimal.Decimal, settled bool, actor uuid.UUID, eventType enums.PayoutEventType) error {
	newPaidOut := rental.SellerPaidOut.Add(amount)
	updates := map[string]any{
		"seller_paid_out": newPaidOut,
	}
	if settled {
		updates["payment_status"] = enums.RentalPaymentStatusSettled
	}
	if err := repo.Update(ctx, rental.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply payout")
	}
	if err := ledgerRepo.Create(ctx, &models.PayoutEvent{
		RentalID:    rental.ID,
		SellerID:    rental.SellerID,
		ActorUserID: actor,
		Type:        eventType,
		Amount:      amount,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payout event")
	}
	rental.SellerPaidOut = newPaidOut
	if settled {
		rental.PaymentStatus = enums.RentalPaymentStatusSettled
	}
	return nil
}
