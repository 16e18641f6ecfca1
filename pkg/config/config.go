package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	MagicLink     MagicLinkConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Paystack      PaystackConfig
	Sendgrid      SendgridConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ASOOKE_APP_ENV" required:"true"`
	Port         string `envconfig:"ASOOKE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ASOOKE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ASOOKE_LOG_WARN_STACK" default:"false"`
	// FrontendURL hosts the static pages auth and payment redirects land on.
	FrontendURL string `envconfig:"ASOOKE_FRONTEND_URL" default:"http://localhost:5500"`
	// APIBaseURL is the public origin of this API, used to build emailed links and provider callbacks.
	APIBaseURL     string   `envconfig:"ASOOKE_API_BASE_URL" default:"http://localhost:8080"`
	AllowedOrigins []string `envconfig:"ASOOKE_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// FrontendPage joins a static page name onto the frontend origin.
func (a AppConfig) FrontendPage(page string) string {
	return strings.TrimRight(a.FrontendURL, "/") + "/" + strings.TrimLeft(page, "/")
}

// APIURL joins a path onto the public API origin.
func (a AppConfig) APIURL(path string) string {
	return strings.TrimRight(a.APIBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

type ServiceConfig struct {
	Kind string `envconfig:"ASOOKE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ASOOKE_DB_DSN"`
	Driver string `envconfig:"ASOOKE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ASOOKE_DB_HOST"`
	LegacyPort     int    `envconfig:"ASOOKE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ASOOKE_DB_USER"`
	LegacyPassword string `envconfig:"ASOOKE_DB_PASSWORD"`
	LegacyName     string `envconfig:"ASOOKE_DB_NAME"`
	LegacySSLMode  string `envconfig:"ASOOKE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ASOOKE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ASOOKE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ASOOKE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ASOOKE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"ASOOKE_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"ASOOKE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ASOOKE_REDIS_ADDR"`
	Password     string        `envconfig:"ASOOKE_REDIS_PASSWORD"`
	DB           int           `envconfig:"ASOOKE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ASOOKE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ASOOKE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ASOOKE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ASOOKE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ASOOKE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ASOOKE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ASOOKE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ASOOKE_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"ASOOKE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// MagicLinkConfig controls passwordless login and email verification links.
type MagicLinkConfig struct {
	TTL          time.Duration `envconfig:"ASOOKE_MAGIC_LINK_TTL" default:"10m"`
	CookieDomain string        `envconfig:"ASOOKE_COOKIE_DOMAIN"`
	CookieSecure bool          `envconfig:"ASOOKE_COOKIE_SECURE" default:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ASOOKE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ASOOKE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ASOOKE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ASOOKE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ASOOKE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ASOOKE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ASOOKE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ASOOKE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ASOOKE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ASOOKE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ASOOKE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ASOOKE_AUTO_MIGRATE" default:"false"`
	// AsyncNotifications routes ledger notifications through Pub/Sub instead of in-process goroutines.
	AsyncNotifications bool `envconfig:"ASOOKE_ASYNC_NOTIFICATIONS" default:"false"`
}

type PaystackConfig struct {
	SecretKey string        `envconfig:"ASOOKE_PAYSTACK_SECRET_KEY"`
	BaseURL   string        `envconfig:"ASOOKE_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	Timeout   time.Duration `envconfig:"ASOOKE_PAYSTACK_TIMEOUT" default:"15s"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"ASOOKE_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"ASOOKE_SENDGRID_FROM_EMAIL" default:"no-reply@asooke.ng"`
	FromName    string `envconfig:"ASOOKE_SENDGRID_FROM_NAME" default:"Aso Oke"`
	BaseURL     string `envconfig:"ASOOKE_SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ASOOKE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"ASOOKE_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"ASOOKE_PUBSUB_NOTIFICATION_TOPIC" default:"ao-notification-events"`
	NotificationSubscription string `envconfig:"ASOOKE_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"ao-notification-events-sub"`
	// EmulatorHost points the client at a local pubsub emulator (host:port).
	EmulatorHost string `envconfig:"ASOOKE_PUBSUB_EMULATOR_HOST"`
}

type CheckoutConfig struct {
	Carrier               string        `envconfig:"ASOOKE_CHECKOUT_CARRIER" default:"Aso Oke Express"`
	EstimatedDeliveryDays int           `envconfig:"ASOOKE_CHECKOUT_ESTIMATED_DELIVERY_DAYS" default:"7"`
	IdempotencyTTL        time.Duration `envconfig:"ASOOKE_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"ASOOKE_CRON_INTERVAL" default:"24h"`
	AbandonedCartDays int           `envconfig:"ASOOKE_CRON_ABANDONED_CART_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
