package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

// Config is the process configuration, read once at boot from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	// PublicURL is the externally reachable base URL used in mails and local file URLs.
	PublicURL   string   `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"https://*,http://localhost:3000"`

	Postgres PostgresConfig
	Redis    RedisConfig
	Supabase SupabaseConfig
	Storage  StorageConfig
	SMTP     SMTPConfig
	Kafka    KafkaConfig

	MinWithdrawal string        `env:"MIN_WITHDRAWAL" envDefault:"10.00"`
	TypingTTL     time.Duration `env:"TYPING_TTL" envDefault:"6s"`
}

type PostgresConfig struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     string `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:"backstage"`
	Password string `env:"PG_PASSWORD"`
	DB       string `env:"PG_DB" envDefault:"backstage"`
	SSLMode  string `env:"PG_SSLMODE" envDefault:"disable"`
}

// DSN builds a libpq connection URL usable by both sqlx and gorm.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type RedisConfig struct {
	// Host empty disables Redis: the in-memory cache and a local-only realtime hub are used.
	Host     string `env:"REDIS_HOST"`
	Port     string `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string { return r.Host + ":" + r.Port }

type SupabaseConfig struct {
	URL        string `env:"SUPABASE_URL"`
	ServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	JWTSecret  string `env:"SUPABASE_JWT_SECRET"`
}

type StorageConfig struct {
	Driver   string `env:"STORAGE_DRIVER" envDefault:"local"`
	LocalDir string `env:"STORAGE_LOCAL_DIR" envDefault:"./data/files"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"no-reply@backstage.local"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"backstage.events"`
}

// Load parses the environment into a Config and validates cross-field values.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if _, err := cfg.MinWithdrawalAmount(); err != nil {
		return nil, err
	}

	switch cfg.Storage.Driver {
	case "local", "supabase":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}

	if cfg.Storage.Driver == "supabase" && (cfg.Supabase.URL == "" || cfg.Supabase.ServiceKey == "") {
		return nil, fmt.Errorf("STORAGE_DRIVER=supabase requires SUPABASE_URL and SUPABASE_SERVICE_KEY")
	}

	if cfg.Supabase.JWTSecret == "" {
		return nil, fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	return &cfg, nil
}

// MinWithdrawalAmount returns the configured minimum withdrawal as a decimal.
func (c *Config) MinWithdrawalAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.MinWithdrawal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid MIN_WITHDRAWAL %q: %w", c.MinWithdrawal, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("MIN_WITHDRAWAL must not be negative")
	}
	return d, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }
