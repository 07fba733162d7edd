package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/campusmart/campusmart-backend/api/responses"
	internalledger "github.com/campusmart/campusmart-backend/internal/ledger"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/logger"
)

// RentalPayoutEvents lists the payout ledger rows recorded against a rental.
func RentalPayoutEvents(svc internalledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		rentalID, err := parseIDParam(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListByRental(r.Context(), rentalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list rental payout events"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"events": events})
	}
}

// SellerPayoutEvents lists every ledger row recorded for a seller.
func SellerPayoutEvents(svc internalledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("seller_id"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "seller_id is required"))
			return
		}
		sellerID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid seller id"))
			return
		}

		events, err := svc.ListBySeller(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list seller payout events"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"events": events})
	}
}
