package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
)

// Service defines operations that record and read payout events. Events are
// append-only: every increment of a seller's paid-out balance leaves one.
type Service interface {
	RecordEvent(ctx context.Context, input RecordEventInput) (*models.PayoutEvent, error)
	ListByRental(ctx context.Context, rentalID uuid.UUID) ([]models.PayoutEvent, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutEvent, error)
}

type service struct {
	repo Repository
}

// RecordEventInput captures the immutable data a payout event requires.
type RecordEventInput struct {
	RentalID    uuid.UUID             `json:"rental_id"`
	SellerID    uuid.UUID             `json:"seller_id"`
	ActorUserID uuid.UUID             `json:"actor_user_id"`
	Type        enums.PayoutEventType `json:"type"`
	Amount      decimal.Decimal       `json:"amount"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordEvent(ctx context.Context, input RecordEventInput) (*models.PayoutEvent, error) {
	if input.RentalID == uuid.Nil {
		return nil, fmt.Errorf("rental id is required")
	}
	if input.SellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, fmt.Errorf("actor user id is required")
	}
	if !input.Type.IsValid() {
		return nil, fmt.Errorf("invalid payout event type %q", input.Type)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("payout event amount must be positive")
	}

	event := &models.PayoutEvent{
		RentalID:    input.RentalID,
		SellerID:    input.SellerID,
		ActorUserID: input.ActorUserID,
		Type:        input.Type,
		Amount:      input.Amount,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *service) ListByRental(ctx context.Context, rentalID uuid.UUID) ([]models.PayoutEvent, error) {
	if rentalID == uuid.Nil {
		return nil, fmt.Errorf("rental id is required")
	}
	return s.repo.ListByRentalID(ctx, rentalID)
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.PayoutEvent, error) {
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required")
	}
	return s.repo.ListBySellerID(ctx, sellerID)
}
