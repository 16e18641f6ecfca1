package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/asookemart/asooke-backend/api/routes"
	"github.com/asookemart/asooke-backend/internal/admin"
	"github.com/asookemart/asooke-backend/internal/auth"
	"github.com/asookemart/asooke-backend/internal/cart"
	"github.com/asookemart/asooke-backend/internal/checkout"
	"github.com/asookemart/asooke-backend/internal/delivery"
	"github.com/asookemart/asooke-backend/internal/notifications"
	"github.com/asookemart/asooke-backend/internal/orders"
	product "github.com/asookemart/asooke-backend/internal/products"
	"github.com/asookemart/asooke-backend/internal/tracking"
	"github.com/asookemart/asooke-backend/internal/users"
	"github.com/asookemart/asooke-backend/internal/verification"
	"github.com/asookemart/asooke-backend/internal/watchlist"
	"github.com/asookemart/asooke-backend/pkg/auth/session"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/db"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/mailer"
	"github.com/asookemart/asooke-backend/pkg/metrics"
	"github.com/asookemart/asooke-backend/pkg/migrate"
	"github.com/asookemart/asooke-backend/pkg/paystack"
	"github.com/asookemart/asooke-backend/pkg/pubsub"
	"github.com/asookemart/asooke-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(logg, "failed to load config", err)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap database", err)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		fatal(logg, "failed to run dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fatal(logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		fatal(logg, "failed to create session manager", err)
	}

	sender := mailer.New(cfg.Sendgrid, logg)

	// ledger notifications go through Pub/Sub when the worker is deployed,
	// otherwise they are mailed from this process
	var dispatcher notifications.Dispatcher
	if cfg.FeatureFlags.AsyncNotifications {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			fatal(logg, "failed to bootstrap pubsub", err)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub client", err)
			}
		}()
		if dispatcher, err = notifications.NewPubSubDispatcher(pubsubClient.NotificationPublisher()); err != nil {
			fatal(logg, "failed to create pubsub dispatcher", err)
		}
	} else {
		mailDispatcher, err := notifications.NewMailDispatcher(sender, logg)
		if err != nil {
			fatal(logg, "failed to create mail dispatcher", err)
		}
		defer mailDispatcher.Wait()
		dispatcher = mailDispatcher
	}
	notifier, err := notifications.NewNotifier(dispatcher)
	if err != nil {
		fatal(logg, "failed to create notifier", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	codes := verification.NewStore(conn, nil)
	ordersRepo := orders.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	productRepo := product.NewRepository(conn)

	ledger, err := tracking.NewLedger(conn, notifier, metrics.NewLedgerMetrics(registry), logg)
	if err != nil {
		fatal(logg, "failed to create tracking ledger", err)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:          userRepo,
		Codes:          codes,
		SessionManager: sessionManager,
		Mailer:         sender,
		App:            cfg.App,
		JWTConfig:      cfg.JWT,
		MagicLink:      cfg.MagicLink,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}

	cartService, err := cart.NewService(cartRepo, dbClient, productRepo, ordersRepo)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}

	watchlistService, err := watchlist.NewService(watchlist.ServiceParams{
		Repo:     watchlist.NewRepository(conn),
		Products: productRepo,
		Cart:     cartService,
		Tx:       dbClient,
	})
	if err != nil {
		fatal(logg, "failed to create watchlist service", err)
	}

	productService, err := product.NewService(productRepo, dbClient, watchlistService, logg)
	if err != nil {
		fatal(logg, "failed to create product service", err)
	}

	paystackClient, err := paystack.NewClient(cfg.Paystack.SecretKey,
		paystack.WithBaseURL(cfg.Paystack.BaseURL),
		paystack.WithTimeout(cfg.Paystack.Timeout),
	)
	if err != nil {
		fatal(logg, "failed to create paystack client", err)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Carts:    cartRepo,
		Orders:   ordersRepo,
		Users:    userRepo,
		Ledger:   ledger,
		Provider: paystackClient,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
		Options: checkout.Options{
			CallbackURL:           cfg.App.APIURL("api/v1/checkout/confirm"),
			Carrier:               cfg.Checkout.Carrier,
			EstimatedDeliveryDays: cfg.Checkout.EstimatedDeliveryDays,
		},
	})
	if err != nil {
		fatal(logg, "failed to create checkout service", err)
	}

	webhooks, err := checkout.NewWebhookProcessor(paystackClient, checkoutService, logg)
	if err != nil {
		fatal(logg, "failed to create paystack webhook processor", err)
	}

	ordersService, err := orders.NewService(ordersRepo, ledger, userRepo)
	if err != nil {
		fatal(logg, "failed to create orders service", err)
	}

	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		Tx:       dbClient,
		Orders:   ordersRepo,
		Feedback: delivery.NewFeedbackRepository(conn),
		Ledger:   ledger,
		Codes:    codes,
		Users:    userRepo,
		Mailer:   sender,
		Notifier: notifier,
		Logger:   logg,
	})
	if err != nil {
		fatal(logg, "failed to create delivery service", err)
	}

	adminService, err := admin.NewService(admin.NewRepository(conn), userRepo, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create admin service", err)
	}

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

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:    cfg,
			Logger:    logg,
			DB:        dbClient,
			Redis:     redisClient,
			Sessions:  sessionManager,
			Metrics:   metrics.NewHTTPMetrics(registry),
			Gatherer:  registry,
			Auth:      authService,
			Products:  productService,
			Cart:      cartService,
			Watchlist: watchlistService,
			Checkout:  checkoutService,
			Webhooks:  webhooks,
			Orders:    ordersService,
			Delivery:  deliveryService,
			Admin:     adminService,
		}),
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
