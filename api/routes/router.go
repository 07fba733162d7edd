package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusmart/campusmart-backend/api/controllers"
	"github.com/campusmart/campusmart-backend/api/middleware"
	"github.com/campusmart/campusmart-backend/internal/ledger"
	"github.com/campusmart/campusmart-backend/internal/orders"
	"github.com/campusmart/campusmart-backend/internal/payouts"
	"github.com/campusmart/campusmart-backend/internal/rentals"
	"github.com/campusmart/campusmart-backend/pkg/config"
	"github.com/campusmart/campusmart-backend/pkg/enums"
	"github.com/campusmart/campusmart-backend/pkg/logger"
	pkgredis "github.com/campusmart/campusmart-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps collects everything the router wires into handlers.
type Deps struct {
	DB          pinger
	Redis       *pkgredis.Client
	Orders      orders.Service
	OrdersRepo  orders.Repository
	Rentals     rentals.Service
	Payouts     payouts.Service
	Ledger      ledger.Service
	Idempotency pkgredis.IdempotencyStore
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Post("/orders", controllers.CreateOrder(deps.Orders, logg))
			r.Post("/rentals", controllers.CreateRental(deps.Rentals, logg))
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.OrdersRepo, logg))
				r.Get("/{orderId}", controllers.AdminOrderDetail(deps.Orders, logg))
				r.Patch("/{orderId}", controllers.UpdateOrder(deps.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(deps.Orders, logg))
			})

			r.Route("/rentals", func(r chi.Router) {
				r.Get("/", controllers.AdminListRentals(deps.Rentals, logg))
				r.Get("/{rentalId}", controllers.AdminRentalDetail(deps.Rentals, logg))
				r.Post("/{rentalId}/activate", controllers.ActivateRental(deps.Rentals, logg))
				r.Post("/{rentalId}/return", controllers.ReturnRental(deps.Rentals, logg))
				r.Post("/{rentalId}/cancel", controllers.CancelRental(deps.Rentals, logg))
				r.Post("/{rentalId}/payout", controllers.SettleRentalPayout(deps.Payouts, logg))
				r.Get("/{rentalId}/events", controllers.RentalPayoutEvents(deps.Ledger, logg))
			})

			r.Route("/payouts", func(r chi.Router) {
				r.Get("/", controllers.ListPayouts(deps.Payouts, logg))
				r.Post("/settle", controllers.SettleSeller(deps.Payouts, logg))
				r.Get("/events", controllers.SellerPayoutEvents(deps.Ledger, logg))
			})
		})
	})

	return r
}
