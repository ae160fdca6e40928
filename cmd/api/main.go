package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aislice/aislice-backend/api/routes"
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
	"github.com/aislice/aislice-backend/pkg/llm"
	"github.com/aislice/aislice-backend/pkg/logger"
	"github.com/aislice/aislice-backend/pkg/metrics"
	"github.com/aislice/aislice-backend/pkg/migrate"
	"github.com/aislice/aislice-backend/pkg/outbox"
	"github.com/aislice/aislice-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	llmClient, err := llm.New(cfg.LLM, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create llm client", err)
		os.Exit(1)
	}

	domainMetrics := metrics.NewDomainMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	ledgerRepo := ledger.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	auctionRepo := auction.NewRepository(dbClient.DB())
	reputationRepo := reputation.NewRepository(dbClient.DB())
	answersRepo := answers.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())
	menuRepo := menu.NewRepository(dbClient.DB())

	ledgerSvc, err := ledger.NewService(ledgerRepo, dbClient)
	requireService(logg, "ledger", err)

	reputationSvc, err := reputation.NewService(reputationRepo, dbClient, outboxSvc, usersRepo, cfg.Reputation)
	requireService(logg, "reputation", err)

	usersSvc, err := users.NewService(usersRepo, dbClient, ledgerSvc)
	requireService(logg, "users", err)

	menuSvc, err := menu.NewService(menuRepo)
	requireService(logg, "menu", err)

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       ordersRepo,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Ledger:     ledgerSvc,
		Catalog:    menuSvc,
		MenuRepo:   menuRepo,
		Reputation: reputationSvc,
		Metrics:    domainMetrics,
		Orders:     cfg.Orders,
		Auction:    cfg.Auction,
	})
	requireService(logg, "orders", err)

	auctionSvc, err := auction.NewService(auction.ServiceParams{
		Repo:       auctionRepo,
		Orders:     ordersRepo,
		Tx:         dbClient,
		Outbox:     outboxSvc,
		Reputation: reputationSvc,
		Users:      usersRepo,
		Metrics:    domainMetrics,
	})
	requireService(logg, "auction", err)

	answersSvc, err := answers.NewService(answers.ServiceParams{
		Repo:      answersRepo,
		Tx:        dbClient,
		Outbox:    outboxSvc,
		Completer: llmClient,
		Users:     usersRepo,
		Recommend: answers.RecommendParams{
			Dishes: menuRepo,
			Orders: ordersRepo,
			Cache:  redisClient,
		},
		Metrics: domainMetrics,
		Config:  cfg.Answers,
	})
	requireService(logg, "answers", err)

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	requireService(logg, "notifications", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Ledger:        ledgerSvc,
			Orders:        ordersSvc,
			Auction:       auctionSvc,
			Reputation:    reputationSvc,
			Answers:       answersSvc,
			Notifications: notificationsSvc,
			Users:         usersSvc,
			Menu:          menuSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		logg.Error(context.Background(), "failed to create "+name+" service", err)
		os.Exit(1)
	}
}
