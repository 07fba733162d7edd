package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campusmart/campusmart-backend/internal/inventory"
	"github.com/campusmart/campusmart-backend/pkg/db"
	"github.com/campusmart/campusmart-backend/pkg/db/models"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	pkgerrors "github.com/campusmart/campusmart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service governs the order state machine. Money-affecting operations run in
// a single transaction together with their stock side effects.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Order, error)
	MarkPaymentCompleted(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdvanceStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error)
	UpdateAdminNotes(ctx context.Context, orderID uuid.UUID, notes string) (*models.Order, error)
	UpdateDelivery(ctx context.Context, orderID uuid.UUID, method enums.DeliveryMethod, roomNumber *string) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, note string) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// ServiceParams configure the orders service.
type ServiceParams struct {
	Repo             Repository
	Tx               txRunner
	Inventory        inventory.Manager
	DeliveryFeeCents int
	Now              func() time.Time
}

type service struct {
	repo             Repository
	tx               txRunner
	inventory        inventory.Manager
	deliveryFeeCents int
	now              func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory manager required")
	}
	if params.DeliveryFeeCents < 0 {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:             params.Repo,
		tx:               params.Tx,
		inventory:        params.Inventory,
		deliveryFeeCents: params.DeliveryFeeCents,
		now:              now,
	}, nil
}

// CreateItemInput is one requested line in a new order.
type CreateItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// CreateInput carries everything needed to place an order. ClaimedTotalCents
// is the total the client computed; creation is rejected when it disagrees
// with the server-side sum.
type CreateInput struct {
	CustomerID        uuid.UUID
	Items             []CreateItemInput
	PaymentMethod     enums.PaymentMethod
	DeliveryMethod    enums.DeliveryMethod
	RoomNumber        *string
	PaymentPin        *string
	ClaimedTotalCents int
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if input.DeliveryMethod == enums.DeliveryMethodDelivery && (input.RoomNumber == nil || *input.RoomNumber == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room number required for delivery")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if item.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item qty must be positive")
		}
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ids := make([]uuid.UUID, len(input.Items))
		for i, item := range input.Items {
			ids[i] = item.ProductID
		}
		products, err := repo.FindProductsByIDs(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
		}
		productsByID := make(map[uuid.UUID]models.Product, len(products))
		for _, product := range products {
			productsByID[product.ID] = product
		}

		subtotal := 0
		items := make([]models.OrderItem, 0, len(input.Items))
		requests := make([]inventory.ReservationRequest, 0, len(input.Items))
		for _, item := range input.Items {
			product, ok := productsByID[item.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
					WithDetails(map[string]any{"product_id": item.ProductID})
			}
			lineSubtotal := product.PriceCents * item.Qty
			subtotal += lineSubtotal
			items = append(items, models.OrderItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				UnitPriceCents: product.PriceCents,
				Qty:            item.Qty,
				SubtotalCents:  lineSubtotal,
			})
			requests = append(requests, inventory.ReservationRequest{
				ProductID: product.ID,
				Qty:       item.Qty,
			})
		}

		deliveryFee := 0
		if input.DeliveryMethod == enums.DeliveryMethodDelivery {
			deliveryFee = s.deliveryFeeCents
		}
		total := subtotal + deliveryFee
		if total != input.ClaimedTotalCents {
			return pkgerrors.New(pkgerrors.CodeValidation, "order total mismatch").
				WithDetails(map[string]any{
					"submitted_total_cents": input.ClaimedTotalCents,
					"computed_total_cents":  total,
				})
		}

		if err := s.inventory.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		orderNumber, err := s.nextOrderNumber(ctx, repo)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:      orderNumber,
			CustomerID:       input.CustomerID,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.OrderPaymentStatusPending,
			PaymentMethod:    input.PaymentMethod,
			PaymentPin:       input.PaymentPin,
			DeliveryMethod:   input.DeliveryMethod,
			RoomNumber:       input.RoomNumber,
			SubtotalCents:    subtotal,
			DeliveryFeeCents: deliveryFee,
			TotalCents:       total,
		}
		created, err := repo.Create(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err, "orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number collision, retry")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		for i := range items {
			items[i].OrderID = created.ID
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		result, err = repo.FindByID(ctx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// MarkPaymentCompleted verifies the order's payment. While the order is still
// pending this auto-advances it to confirmed in the same transaction.
func (s *service) MarkPaymentCompleted(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order, updates map[string]any) error {
		if order.PaymentStatus == enums.OrderPaymentStatusCompleted {
			return nil
		}
		updates["payment_status"] = enums.OrderPaymentStatusCompleted
		if order.Status == enums.OrderStatusPending {
			updates["status"] = enums.OrderStatusConfirmed
			updates["confirmed_at"] = s.now()
		}
		return nil
	})
}

func (s *service) AdvanceStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*models.Order, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	return s.mutate(ctx, orderID, func(order *models.Order, updates map[string]any) error {
		if order.Status == target {
			return nil
		}
		switch {
		case target == enums.OrderStatusReady && order.Status == enums.OrderStatusConfirmed:
			updates["status"] = target
			updates["ready_at"] = s.now()
		case target == enums.OrderStatusCompleted && order.Status == enums.OrderStatusReady:
			updates["status"] = target
			updates["completed_at"] = s.now()
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
		}
		return nil
	})
}

func (s *service) UpdateAdminNotes(ctx context.Context, orderID uuid.UUID, notes string) (*models.Order, error) {
	return s.mutate(ctx, orderID, func(order *models.Order, updates map[string]any) error {
		updates["admin_notes"] = notes
		return nil
	})
}

// UpdateDelivery changes the delivery method and recomputes the delivery fee.
// Only pending orders may change shape; later states have already been charged.
func (s *service) UpdateDelivery(ctx context.Context, orderID uuid.UUID, method enums.DeliveryMethod, roomNumber *string) (*models.Order, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if method == enums.DeliveryMethodDelivery && (roomNumber == nil || *roomNumber == "") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "room number required for delivery")
	}
	return s.mutate(ctx, orderID, func(order *models.Order, updates map[string]any) error {
		if order.Status != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery can only change while order is pending")
		}
		deliveryFee := 0
		if method == enums.DeliveryMethodDelivery {
			deliveryFee = s.deliveryFeeCents
		}
		updates["delivery_method"] = method
		updates["room_number"] = roomNumber
		updates["delivery_fee_cents"] = deliveryFee
		updates["total_cents"] = order.SubtotalCents + deliveryFee
		return nil
	})
}

// Cancel moves the order to cancelled and restores the stock of every line
// item in the same transaction. Completed orders cannot be cancelled;
// cancelling an already cancelled order is a no-op so stock is never
// restored twice.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, note string) (*models.Order, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == enums.OrderStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "completed orders cannot be cancelled")
		}
		if order.Status == enums.OrderStatusCancelled {
			result = order
			return nil
		}

		for _, item := range order.Items {
			if err := s.inventory.Release(ctx, tx, item.ProductID, item.Qty); err != nil {
				return err
			}
		}

		updates := map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": s.now(),
			"admin_notes":  appendNote(order.AdminNotes, cancellationNote(note)),
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		result, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// mutate loads the order, lets fn stage updates, then applies them and
// reloads inside one transaction.
func (s *service) mutate(ctx context.Context, orderID uuid.UUID, fn func(order *models.Order, updates map[string]any) error) (*models.Order, error) {
	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := findOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if err := fn(order, updates); err != nil {
			return err
		}
		if len(updates) == 0 {
			result = order
			return nil
		}

		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		result, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findOrder(ctx context.Context, repo Repository, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) nextOrderNumber(ctx context.Context, repo Repository) (string, error) {
	now := s.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := repo.CountCreatedBetween(ctx, dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders for sequence")
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), count+1), nil
}

func cancellationNote(note string) string {
	if note == "" {
		return "order cancelled"
	}
	return fmt.Sprintf("order cancelled: %s", note)
}

func appendNote(existing *string, note string) string {
	if existing == nil || *existing == "" {
		return note
	}
	return *existing + "\n" + note
}
