package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/campusmart/campusmart-backend/api/responses"
	"github.com/campusmart/campusmart-backend/api/validators"
	internalrentals "github.com/campusmart/campusmart-backend/internal/rentals"
	"github.com/campusmart/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/logger"
)

type createRentalRequest struct {
	ListingID   uuid.UUID `json:"listing_id" validate:"required"`
	AgreedDays  int       `json:"agreed_days" validate:"required,min=1"`
	RenterName  string    `json:"renter_name" validate:"required,max=120"`
	RenterRoom  string    `json:"renter_room" validate:"required,max=32"`
	RenterPhone string    `json:"renter_phone" validate:"required,max=20"`
	PaymentPin  *string   `json:"payment_pin"`
}

// CreateRental opens a pending rental for the authenticated renter, claiming
// one unit of the listing.
func CreateRental(svc internalrentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		renterID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createRentalRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.Create(r.Context(), internalrentals.CreateInput{
			ListingID:   req.ListingID,
			RenterID:    renterID,
			AgreedDays:  req.AgreedDays,
			PaymentPin:  req.PaymentPin,
			RenterName:  validators.SanitizeString(req.RenterName, 120),
			RenterRoom:  validators.SanitizeString(req.RenterRoom, 32),
			RenterPhone: validators.SanitizeString(req.RenterPhone, 20),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, rental)
	}
}

// ActivateRental marks payment received and starts the rental clock.
func ActivateRental(svc internalrentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, svcActivate)
}

// ReturnRental settles final accrual, stamps the return, and frees the unit.
func ReturnRental(svc internalrentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, svcReturn)
}

// CancelRental cancels a pending rental and releases the claimed unit.
func CancelRental(svc internalrentals.Service, logg *logger.Logger) http.HandlerFunc {
	return rentalTransition(svc, logg, svcCancel)
}

type rentalCommand func(svc internalrentals.Service, r *http.Request, rentalID uuid.UUID) (*models.RentalTransaction, error)

func svcActivate(svc internalrentals.Service, r *http.Request, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	return svc.Activate(r.Context(), rentalID)
}

func svcReturn(svc internalrentals.Service, r *http.Request, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	return svc.Return(r.Context(), rentalID)
}

func svcCancel(svc internalrentals.Service, r *http.Request, rentalID uuid.UUID) (*models.RentalTransaction, error) {
	return svc.Cancel(r.Context(), rentalID)
}

func rentalTransition(svc internalrentals.Service, logg *logger.Logger, command rentalCommand) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		rentalID, err := parseIDParam(r, "rentalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := command(svc, r, rentalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rental)
	}
}
