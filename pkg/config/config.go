package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "campusmart"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CAMPUSMART_DB_DSN"
	EnvDBHost = "CAMPUSMART_DB_HOST"
	EnvDBUser = "CAMPUSMART_DB_USER"
	EnvDBName = "CAMPUSMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Orders       OrdersConfig
	Rentals      RentalsConfig
	Cron         CronConfig
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
	Env          string `envconfig:"CAMPUSMART_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPUSMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSMART_DB_DSN"`
	Driver string `envconfig:"CAMPUSMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSMART_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSMART_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSMART_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUSMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUSMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUSMART_JWT_EXPIRATION_MINUTES" required:"true"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type OrdersConfig struct {
	DeliveryFeeCents int `envconfig:"CAMPUSMART_ORDERS_DELIVERY_FEE_CENTS" default:"1000"`
}

type RentalsConfig struct {
	// Timezone fixes the calendar used for day-boundary accrual.
	Timezone string `envconfig:"CAMPUSMART_RENTALS_TIMEZONE" default:"Asia/Kolkata"`
}

// Location resolves the configured accrual timezone.
func (r RentalsConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading rentals timezone %q: %w", r.Timezone, err)
	}
	return loc, nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"CAMPUSMART_CRON_INTERVAL" default:"24h"`
	LockKey  string        `envconfig:"CAMPUSMART_CRON_LOCK_KEY" default:"campusmart:cron:lock"`
	LockTTL  time.Duration `envconfig:"CAMPUSMART_CRON_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPUSMART_AUTO_MIGRATE" default:"false"`
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
