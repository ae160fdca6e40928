package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aislice/aislice-backend/api/controllers"
	"github.com/aislice/aislice-backend/api/middleware"
	"github.com/aislice/aislice-backend/internal/answers"
	"github.com/aislice/aislice-backend/internal/auction"
	"github.com/aislice/aislice-backend/internal/ledger"
	"github.com/aislice/aislice-backend/internal/menu"
	"github.com/aislice/aislice-backend/internal/notifications"
	"github.com/aislice/aislice-backend/internal/orders"
	"github.com/aislice/aislice-backend/internal/reputation"
	"github.com/aislice/aislice-backend/internal/users"
	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db"
	"github.com/aislice/aislice-backend/pkg/enums"
	"github.com/aislice/aislice-backend/pkg/logger"
	"github.com/aislice/aislice-backend/pkg/redis"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Ledger        ledger.Service
	Orders        orders.Service
	Auction       auction.Service
	Reputation    reputation.Service
	Answers       answers.Service
	Notifications notifications.Service
	Users         users.Service
	Menu          menu.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Identity(logg),
		middleware.Logging(logg),
	)

	var idempotencyStore redis.IdempotencyStore
	var redisPinger redis.Pinger
	if redisClient != nil {
		idempotencyStore = redisClient
		redisPinger = redisClient
	}

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Post("/users", controllers.RegisterUser(svcs.Users, logg))
		r.Get("/users/{userId}", controllers.GetUser(svcs.Users, logg))

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", controllers.ListDishes(svcs.Menu, logg))
			r.Get("/{dishId}", controllers.GetDish(svcs.Menu, logg))
			r.Get("/recommended", controllers.RecommendDishes(svcs.Answers, logg))
		})

		r.Route("/answers", func(r chi.Router) {
			r.Post("/ask", controllers.AskQuestion(svcs.Answers, logg))
			r.Post("/{chatLogId}/rating", controllers.RateAnswer(svcs.Answers, logg))
		})

		// Everything below needs an authenticated caller.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireIdentity(logg))

			r.Route("/wallet", func(r chi.Router) {
				r.Post("/deposit", controllers.DepositFunds(svcs.Ledger, logg))
				r.Get("/balance", controllers.GetWalletBalance(svcs.Ledger, logg))
				r.Get("/transactions", controllers.ListWalletTransactions(svcs.Ledger, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
				r.Get("/", controllers.ListMyOrders(svcs.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
				r.Post("/{orderId}/rating", controllers.RateOrder(svcs.Orders, logg))
			})

			r.Route("/listings", func(r chi.Router) {
				r.Get("/{listingId}", controllers.GetListing(svcs.Auction, logg))
				r.Get("/{listingId}/bids", controllers.ListBids(svcs.Auction, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleDelivery)).
					Post("/{listingId}/bids", controllers.PlaceBid(svcs.Auction, logg))
				r.Post("/{listingId}/close", controllers.CloseListing(svcs.Auction, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleDelivery)).
					Post("/{listingId}/progress", controllers.UpdateDeliveryProgress(svcs.Auction, logg))
			})

			r.Route("/reputation", func(r chi.Router) {
				r.Post("/complaints", controllers.FileComplaint(svcs.Reputation, logg))
				r.Post("/compliments", controllers.FileCompliment(svcs.Reputation, logg))
				r.Post("/complaints/{complaintId}/dispute", controllers.DisputeComplaint(svcs.Reputation, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleManager)).
					Post("/complaints/{complaintId}/decision", controllers.DecideComplaint(svcs.Reputation, logg))
				r.Get("/{userId}/status", controllers.GetReputationStatus(svcs.Reputation, logg))
				r.Get("/{userId}/events", controllers.ListReputationEvents(svcs.Reputation, logg))
				r.Get("/{userId}/complaints", controllers.ListComplaintsForUser(svcs.Reputation, logg))
				r.With(middleware.RequireRole(logg, enums.UserRoleManager)).
					Post("/{userId}/replay", controllers.ReplayReputation(svcs.Reputation, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
			})

			r.Route("/chef", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleChef, enums.UserRoleManager))
				r.Post("/dishes", controllers.CreateDish(svcs.Menu, logg))
				r.Get("/dishes", controllers.ListMyDishes(svcs.Menu, logg))
				r.Put("/dishes/{dishId}/availability", controllers.SetDishAvailability(svcs.Menu, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.UserRoleManager))
				r.Post("/users/{userId}/deactivate", controllers.DeactivateUser(svcs.Users, logg))
				r.Post("/users/{userId}/reactivate", controllers.ReactivateUser(svcs.Users, logg))
			})

			r.Post("/knowledge", controllers.AddKnowledgeEntry(svcs.Answers, logg))
		})
	})

	return r
}
