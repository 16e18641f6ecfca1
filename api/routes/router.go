package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/asookemart/asooke-backend/api/controllers"
	"github.com/asookemart/asooke-backend/api/middleware"
	"github.com/asookemart/asooke-backend/internal/admin"
	"github.com/asookemart/asooke-backend/internal/auth"
	"github.com/asookemart/asooke-backend/internal/cart"
	"github.com/asookemart/asooke-backend/internal/checkout"
	"github.com/asookemart/asooke-backend/internal/delivery"
	"github.com/asookemart/asooke-backend/internal/orders"
	product "github.com/asookemart/asooke-backend/internal/products"
	"github.com/asookemart/asooke-backend/internal/watchlist"
	"github.com/asookemart/asooke-backend/pkg/auth/session"
	"github.com/asookemart/asooke-backend/pkg/config"
	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/asookemart/asooke-backend/pkg/logger"
	"github.com/asookemart/asooke-backend/pkg/metrics"
	"github.com/asookemart/asooke-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface is built from. Nil services
// answer 500 from their handlers rather than failing route registration.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth      auth.Service
	Products  product.Service
	Cart      cart.Service
	Watchlist watchlist.Service
	Checkout  checkout.Service
	Webhooks  *checkout.WebhookProcessor
	Orders    orders.Service
	Delivery  delivery.Service
	Admin     admin.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins),
	)
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	// a nil *redis.Client must reach the middlewares as a nil interface
	limiter := rateLimitStore(deps.Redis)
	idem := idempotencyStore(deps.Redis)
	mustReplay := middleware.Idempotent(idem, middleware.IdempotencyOptions{TTL: cfg.Checkout.IdempotencyTTL, Required: true}, logg)
	mayReplay := middleware.Idempotent(idem, middleware.IdempotencyOptions{TTL: cfg.Checkout.IdempotencyTTL}, logg)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	emailPolicy := middleware.NewAuthRateLimitPolicy(
		"email",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps(deps)))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(emailPolicy, limiter, logg)).Post("/magic-link", controllers.AuthMagicLink(deps.Auth, logg))
			r.With(middleware.AuthRateLimit(emailPolicy, limiter, logg)).Post("/resend-verification", controllers.AuthResendVerification(deps.Auth, logg))
			r.Get("/verify-email/{uid}/{token}/{email}", controllers.AuthVerifyEmail(deps.Auth, cfg.App, logg))
			r.Get("/magic-login/{token}", controllers.AuthMagicLogin(deps.Auth, cfg.App, cfg.MagicLink, logg))
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		r.Get("/products", controllers.ProductList(deps.Products, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)).Get("/products/{productID}", controllers.ProductDetail(deps.Products, logg))
		r.Get("/categories", controllers.ProductCategories(deps.Products, logg))
		r.Get("/delivery-fees", controllers.DeliveryFees(deps.Products, logg))

		r.Get("/checkout/confirm", controllers.CheckoutConfirm(deps.Checkout, cfg.App, logg))
		r.Post("/webhooks/paystack", controllers.PaystackWebhook(deps.Webhooks, logg))

		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleCustomer))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", controllers.CartGet(deps.Cart, logg))
					r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
					r.Patch("/items/{itemID}", controllers.CartUpdateItem(deps.Cart, logg))
					r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.Cart, logg))
					r.Put("/region", controllers.CartSetRegion(deps.Cart, logg))
					r.With(mayReplay).Post("/reorder", controllers.CartReorder(deps.Cart, logg))
				})
				r.Get("/counts", controllers.HeaderCounts(deps.Watchlist, logg))

				r.Route("/watchlist", func(r chi.Router) {
					r.Get("/", controllers.WatchlistList(deps.Watchlist, logg))
					r.Delete("/", controllers.WatchlistClear(deps.Watchlist, logg))
					r.Post("/{productID}/toggle", controllers.WatchlistToggle(deps.Watchlist, logg))
					r.With(mayReplay).Post("/move-to-cart", controllers.WatchlistMoveToCart(deps.Watchlist, logg))
				})

				r.With(mustReplay).Post("/checkout", controllers.CheckoutInitiate(deps.Checkout, logg))
				r.Get("/orders", controllers.OrderList(deps.Orders, logg))
				r.Get("/orders/{orderID}", controllers.OrderDetail(deps.Orders, logg))
			})

			r.Route("/rider", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleRider))
				r.Get("/profile", controllers.RiderProfile(deps.Delivery, logg))
				r.Get("/deliveries/recent", controllers.RiderRecentDeliveries(deps.Delivery, logg))
				r.Get("/orders", controllers.RiderAssignedOrders(deps.Delivery, logg))
				r.Post("/otp/send", controllers.RiderSendOTP(deps.Delivery, logg))
				r.Post("/otp/verify", controllers.RiderVerifyOTP(deps.Delivery, logg))
				r.With(mayReplay).Post("/deliver", controllers.RiderMarkDelivered(deps.Delivery, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/stats", controllers.AdminStats(deps.Admin, logg))
				r.Get("/orders", controllers.AdminOrders(deps.Orders, logg))
				r.With(mayReplay).Post("/orders/{orderID}/tracking", controllers.AdminAppendTracking(deps.Orders, logg))
				r.Post("/orders/{orderID}/assign", controllers.AdminAssignRider(deps.Orders, logg))
				r.With(mayReplay).Post("/riders", controllers.AdminCreateRider(deps.Admin, logg))
				r.With(mayReplay).Post("/products/import", controllers.AdminImportProducts(deps.Products, logg))
				r.Post("/products/activate", controllers.AdminActivateProducts(deps.Products, logg))
			})
		})
	})

	return r
}

func readinessDeps(deps Dependencies) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{}
	if deps.DB != nil {
		checks["db"] = deps.DB
	}
	if deps.Redis != nil {
		checks["redis"] = deps.Redis
	}
	return checks
}

type limiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

func rateLimitStore(c *redis.Client) limiterStore {
	if c == nil {
		return nil
	}
	return c
}

func idempotencyStore(c *redis.Client) middleware.IdempotencyStore {
	if c == nil {
		return nil
	}
	return c
}
