package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusmart/campusmart-backend/api/responses"
	"github.com/campusmart/campusmart-backend/api/validators"
	internalpayouts "github.com/campusmart/campusmart-backend/internal/payouts"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/logger"
)

// ListPayouts reports how much each seller is currently owed.
func ListPayouts(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		var sellerID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
				return
			}
			sellerID = &parsed
		}

		owed, err := svc.ListOwed(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"sellers": owed})
	}
}

type settleSellerRequest struct {
	SellerID uuid.UUID       `json:"seller_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount" validate:"required"`
}

// SettleSeller applies a lump payment across a seller's outstanding rentals,
// oldest returns first.
func SettleSeller(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req settleSellerRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SettleSeller(r.Context(), internalpayouts.SettleSellerInput{
			SellerID:    req.SellerID,
			Amount:      req.Amount,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type settleRentalRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

// SettleRentalPayout applies a payment against a single rental; overpay
// beyond the rounding tolerance is rejected.
func SettleRentalPayout(svc internalpayouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payouts service unavailable"))
			return
		}

		actorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rentalID, err := parseIDParam(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req settleRentalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SettleRental(r.Context(), internalpayouts.SettleRentalInput{
			RentalID:    rentalID,
			Amount:      req.Amount,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
