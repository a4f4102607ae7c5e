package config

// EnvPrefix is the envconfig prefix shared by every service.
const EnvPrefix = "prepdeck"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "PREPDECK_APP_ENV"
	EnvPort   = "PREPDECK_APP_PORT"

	EnvDBDSN  = "PREPDECK_DB_DSN"
	EnvDBHost = "PREPDECK_DB_HOST"
	EnvDBUser = "PREPDECK_DB_USER"
	EnvDBName = "PREPDECK_DB_NAME"

	EnvRedisURL = "PREPDECK_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
