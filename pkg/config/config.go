package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	Dispatch     DispatchConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PREPDECK_APP_ENV" required:"true"`
	Port         string `envconfig:"PREPDECK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PREPDECK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PREPDECK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PREPDECK_SERVICE_KIND" default:"dispatch-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"PREPDECK_DB_DSN"`
	Driver string `envconfig:"PREPDECK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PREPDECK_DB_HOST"`
	LegacyPort     int    `envconfig:"PREPDECK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PREPDECK_DB_USER"`
	LegacyPassword string `envconfig:"PREPDECK_DB_PASSWORD"`
	LegacyName     string `envconfig:"PREPDECK_DB_NAME"`
	LegacySSLMode  string `envconfig:"PREPDECK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PREPDECK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PREPDECK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PREPDECK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PREPDECK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PREPDECK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PREPDECK_REDIS_ADDR"`
	Password     string        `envconfig:"PREPDECK_REDIS_PASSWORD"`
	DB           int           `envconfig:"PREPDECK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PREPDECK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PREPDECK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PREPDECK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PREPDECK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PREPDECK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SMTPConfig struct {
	Host        string        `envconfig:"PREPDECK_SMTP_HOST"`
	Port        int           `envconfig:"PREPDECK_SMTP_PORT" default:"587"`
	Username    string        `envconfig:"PREPDECK_SMTP_USERNAME"`
	Password    string        `envconfig:"PREPDECK_SMTP_PASSWORD"`
	FromEmail   string        `envconfig:"PREPDECK_SMTP_FROM_EMAIL" default:"alerts@prepdeck.app"`
	FromName    string        `envconfig:"PREPDECK_SMTP_FROM_NAME" default:"PrepDeck Alerts"`
	MaxAttempts int           `envconfig:"PREPDECK_SMTP_MAX_ATTEMPTS" default:"3"`
	RetryDelay  time.Duration `envconfig:"PREPDECK_SMTP_RETRY_DELAY" default:"500ms"`
}

type DispatchConfig struct {
	Interval         time.Duration `envconfig:"PREPDECK_DISPATCH_INTERVAL" default:"5m"`
	TickTimeout      time.Duration `envconfig:"PREPDECK_DISPATCH_TICK_TIMEOUT" default:"4m"`
	WorkerLimit      int           `envconfig:"PREPDECK_DISPATCH_WORKER_LIMIT" default:"8"`
	ToleranceMinutes int           `envconfig:"PREPDECK_DISPATCH_TOLERANCE_MINUTES" default:"4"`
	DigestWindow     time.Duration `envconfig:"PREPDECK_DISPATCH_DIGEST_WINDOW" default:"24h"`
	MaxAlertItems    int           `envconfig:"PREPDECK_DISPATCH_MAX_ALERT_ITEMS" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PREPDECK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PREPDECK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
