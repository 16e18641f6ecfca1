package config

const (
	EnvPrefix = "ASOOKE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:asooke.db?_foreign_keys=on"
)

const (
	EnvAppEnv                 = "ASOOKE_APP_ENV"
	EnvPort                   = "ASOOKE_APP_PORT"
	EnvFrontendURL            = "ASOOKE_FRONTEND_URL"
	EnvDBDSN                  = "ASOOKE_DB_DSN"
	EnvDBDriver               = "ASOOKE_DB_DRIVER"
	EnvDBHost                 = "ASOOKE_DB_HOST"
	EnvDBUser                 = "ASOOKE_DB_USER"
	EnvDBName                 = "ASOOKE_DB_NAME"
	EnvRedisURL               = "ASOOKE_REDIS_URL"
	EnvJWTSecret              = "ASOOKE_JWT_SECRET"
	EnvJWTIssuer              = "ASOOKE_JWT_ISSUER"
	EnvJWTExpMins             = "ASOOKE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ASOOKE_REFRESH_TOKEN_TTL_MINUTES"
	EnvMagicLinkTTL           = "ASOOKE_MAGIC_LINK_TTL"
	EnvPaystackSecretKey      = "ASOOKE_PAYSTACK_SECRET_KEY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
