package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	minProductionSecret = 32
)

type Config struct {
	Environment     string        `koanf:"env"`
	LogLevel        string        `koanf:"log_level"` // пусто: debug в разработке, info в production
	HTTPAddr        string        `koanf:"http_addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Storage        string `koanf:"storage"`
	DBDSN          string `koanf:"db_dsn"`
	MigrationsAuto bool   `koanf:"migrations_auto"`

	JWTSecret string        `koanf:"jwt_secret"`
	JWTTTL    time.Duration `koanf:"jwt_ttl"`

	FirebaseProjectID string `koanf:"firebase_project_id"`
	FirebaseJWKSURL   string `koanf:"firebase_jwks_url"`

	StripeSecretKey     string `koanf:"stripe_secret_key"`
	StripeWebhookSecret string `koanf:"stripe_webhook_secret"`
	PaymentCurrency     string `koanf:"payment_currency"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	TelegramToken string `koanf:"telegram_token"`

	// Учётка администратора для cmd/create-admin
	AdminEmail      string `koanf:"admin_email"`
	AdminName       string `koanf:"admin_name"`
	AdminPhone      string `koanf:"admin_phone"`
	AdminCity       string `koanf:"admin_city"`
	AdminExternalID string `koanf:"admin_external_id"`
}

func defaultConfig() *Config {
	return &Config{
		Environment:       "development",
		HTTPAddr:          ":5000",
		ShutdownTimeout:   15 * time.Second,
		Storage:           StoragePostgres,
		MigrationsAuto:    true,
		JWTTTL:            7 * 24 * time.Hour,
		FirebaseJWKSURL:   "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com",
		PaymentCurrency:   "bdt",
		CORSOrigins:       []string{"http://localhost:5173"},
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
		AdminName:         "Admin",
	}
}

// Load читает .env (если есть), затем слои: значения по умолчанию -> переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// DB_DSN -> db_dsn, ключи плоские
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// splitList переводит "a, b" из окружения в срез
func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}

	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}

	if err := k.Set(path, items); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage {
	case StoragePostgres:
		if c.DBDSN == "" {
			errs = append(errs, errors.New("DB_DSN is required for postgres storage"))
		}
	case StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.JWTSecret) < minProductionSecret {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters in production", minProductionSecret))
	}

	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.StripeSecretKey != "" && c.StripeWebhookSecret == "" {
		errs = append(errs, errors.New("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set"))
	}
	if c.PaymentCurrency == "" {
		errs = append(errs, errors.New("PAYMENT_CURRENCY must not be empty"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AdminConfigured заданы ли поля для cmd/create-admin
func (c *Config) AdminConfigured() bool {
	return c.AdminEmail != "" && c.AdminExternalID != ""
}
