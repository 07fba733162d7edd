package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campusmart/campusmart-backend/api/middleware"
	"github.com/campusmart/campusmart-backend/api/responses"
	"github.com/campusmart/campusmart-backend/api/validators"
	internalorders "github.com/campusmart/campusmart-backend/internal/orders"
	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
	"github.com/campusmart/campusmart-backend/pkg/logger"
)

type createOrderItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items          []createOrderItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  string            `json:"payment_method" validate:"required"`
	DeliveryMethod string            `json:"delivery_method" validate:"required"`
	RoomNumber     *string           `json:"room_number"`
	PaymentPin     *string           `json:"payment_pin"`
	TotalCents     int               `json:"total_cents" validate:"required,min=1"`
}

// CreateOrder places an order for the authenticated customer. The submitted
// total must match the server-side sum or the request is rejected.
func CreateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		deliveryMethod, err := enums.ParseDeliveryMethod(req.DeliveryMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery method"))
			return
		}

		items := make([]internalorders.CreateItemInput, len(req.Items))
		for i, item := range req.Items {
			items[i] = internalorders.CreateItemInput{ProductID: item.ProductID, Qty: item.Qty}
		}

		order, err := svc.Create(r.Context(), internalorders.CreateInput{
			CustomerID:        customerID,
			Items:             items,
			PaymentMethod:     paymentMethod,
			DeliveryMethod:    deliveryMethod,
			RoomNumber:        req.RoomNumber,
			PaymentPin:        req.PaymentPin,
			ClaimedTotalCents: req.TotalCents,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

type updateOrderRequest struct {
	Status         *string `json:"status"`
	PaymentStatus  *string `json:"payment_status"`
	AdminNotes     *string `json:"admin_notes"`
	DeliveryMethod *string `json:"delivery_method"`
	RoomNumber     *string `json:"room_number"`
}

// UpdateOrder decodes the admin PATCH body once and dispatches it to the
// explicit service commands. Payment confirmation runs before status
// advancement so a body carrying both lands in the right order.
func UpdateOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.Status == nil && req.PaymentStatus == nil && req.AdminNotes == nil && req.DeliveryMethod == nil && req.RoomNumber == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update"))
			return
		}
		if req.RoomNumber != nil && req.DeliveryMethod == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "room number requires a delivery method"))
			return
		}

		// Every field is parsed against its enum before the first command
		// runs, so a body with one bad field is rejected whole.
		var (
			statusTarget   *enums.OrderStatus
			deliveryMethod *enums.DeliveryMethod
		)
		if req.PaymentStatus != nil {
			target, parseErr := enums.ParseOrderPaymentStatus(*req.PaymentStatus)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status"))
				return
			}
			if target != enums.OrderPaymentStatusCompleted {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment status can only move to completed"))
				return
			}
		}
		if req.Status != nil {
			target, parseErr := enums.ParseOrderStatus(*req.Status)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid order status"))
				return
			}
			statusTarget = &target
		}
		if req.DeliveryMethod != nil {
			method, parseErr := enums.ParseDeliveryMethod(*req.DeliveryMethod)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid delivery method"))
				return
			}
			deliveryMethod = &method
		}

		var order *models.Order

		if req.PaymentStatus != nil {
			order, err = svc.MarkPaymentCompleted(r.Context(), orderID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if statusTarget != nil {
			order, err = svc.AdvanceStatus(r.Context(), orderID, *statusTarget)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if deliveryMethod != nil {
			order, err = svc.UpdateDelivery(r.Context(), orderID, *deliveryMethod, req.RoomNumber)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		if req.AdminNotes != nil {
			order, err = svc.UpdateAdminNotes(r.Context(), orderID, validators.SanitizeString(*req.AdminNotes, 2000))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		responses.WriteSuccess(w, order)
	}
}

type cancelOrderRequest struct {
	Note string `json:"note"`
}

// CancelOrder cancels an order and restores any stock it reserved.
func CancelOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelOrderRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		order, err := svc.Cancel(r.Context(), orderID, validators.SanitizeString(req.Note, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity")
	}
	return userID, nil
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier is required").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
