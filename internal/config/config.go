package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal      = "local"
	EnvProduction = "production"

	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	StreakPolicyIncrement   = "increment"
	StreakPolicyConsecutive = "consecutive"
)

type Config struct {
	Env             string        `env:"ENV" env-default:"local"`
	Port            string        `env:"PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	Timezone        string        `env:"TZ_NAME" env-default:"Asia/Kolkata"`

	Database
	Redis
	Auth
	Rules
	Limits
}

type Database struct {
	StorageDriver   string        `env:"STORAGE_DRIVER" env-default:"postgres"`
	DatabaseURL     string        `env:"DATABASE_URL" env-default:"host=localhost user=postgres password=postgres dbname=walk port=5432 sslmode=disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnectAttempts uint          `env:"DB_CONNECT_ATTEMPTS" env-default:"5"`
	ConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" env-default:"1s"`
	ConnectMaxDelay time.Duration `env:"DB_CONNECT_MAX_DELAY" env-default:"10s"`
}

type Redis struct {
	RedisURL  string `env:"REDIS_URL" env-default:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" env-default:"0"`
}

type Auth struct {
	JWTSecret           string        `env:"JWT_SECRET"`
	JWTExpiry           time.Duration `env:"JWT_EXPIRY" env-default:"24h"`
	IdentityTokenSecret string        `env:"IDENTITY_TOKEN_SECRET"`
}

// Rules holds the product switches for behaviours that are still open
// questions. Defaults reproduce the shipped behaviour.
type Rules struct {
	StreakPolicy           string        `env:"STREAK_POLICY" env-default:"increment"`
	StreakBonusOncePerDay  bool          `env:"STREAK_BONUS_ONCE_PER_DAY" env-default:"false"`
	RejectWalkRecompletion bool          `env:"WALK_REJECT_RECOMPLETION" env-default:"false"`
	MetroMaxCoinShare      float64       `env:"METRO_MAX_COIN_SHARE" env-default:"1.0"`
	MetroTicketTTL         time.Duration `env:"METRO_TICKET_TTL" env-default:"24h"`
}

type Limits struct {
	PurchasesPerMinute int     `env:"RATE_LIMIT_PURCHASES" env-default:"20"`
	WalksPerMinute     int     `env:"RATE_LIMIT_WALKS" env-default:"30"`
	LoginPerSecond     float64 `env:"LOGIN_RATE_PER_SECOND" env-default:"5"`
	LoginBurst         int     `env:"LOGIN_BURST" env-default:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IdentityTokenSecret == "" {
		return fmt.Errorf("IDENTITY_TOKEN_SECRET is required")
	}
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.StreakPolicy {
	case StreakPolicyIncrement, StreakPolicyConsecutive:
	default:
		return fmt.Errorf("unknown STREAK_POLICY %q", c.StreakPolicy)
	}
	if c.MetroMaxCoinShare <= 0 || c.MetroMaxCoinShare > 1 {
		return fmt.Errorf("METRO_MAX_COIN_SHARE must be in (0, 1]")
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
