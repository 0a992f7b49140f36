package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/shopspring/decimal"
)

type Config struct {
	Environment  Environment
	Log          Log
	HTTP         HTTPServer
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	ClientURL    string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`
	MediaBaseURL string `env:"MEDIA_BASE_URL" envDefault:"http://localhost:8080/api/images"`
	SeedCatalog  bool   `env:"SEED_CATALOG" envDefault:"false"`

	Database Database
	Stripe   Stripe  `envPrefix:"STRIPE_"`
	Pricing  Pricing `envPrefix:"PRICING_"`
	SMTP     SMTP    `envPrefix:"SMTP_"`
	Auth     Auth    `envPrefix:"AUTH_"`
	Receipt  Receipt `envPrefix:"RECEIPT_"`
	Contact  Contact `envPrefix:"CONTACT_"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"mysql"`
	URL    string `env:"DATABASE_URL"`
}

type Stripe struct {
	SecretKey        string        `env:"SECRET_KEY"`
	WebhookSecret    string        `env:"WEBHOOK_SECRET"`
	Timeout          time.Duration `env:"TIMEOUT" envDefault:"15s"`
	AllowedCountries []string      `env:"ALLOWED_COUNTRIES" envDefault:"CA,US" envSeparator:","`
}

type Pricing struct {
	TaxRate  decimal.Decimal `env:"TAX_RATE" envDefault:"0.13"`
	TaxLabel string          `env:"TAX_LABEL" envDefault:"HST"`
	Currency string          `env:"CURRENCY" envDefault:"usd"`
	// ShippingRates maps provider shipping-rate ids to their amount in cents.
	ShippingRates map[string]int64 `env:"SHIPPING_RATES" envSeparator:"," envKeyValSeparator:":"`
}

type SMTP struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"no-reply@example.com"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"20s"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Receipt struct {
	Interval    time.Duration `env:"INTERVAL" envDefault:"1m"`
	Lease       time.Duration `env:"LEASE" envDefault:"5m"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"30s"`
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	BatchSize   int           `env:"BATCH_SIZE" envDefault:"20"`
}

type Contact struct {
	// OwnerEmail receives contact form submissions; empty disables forwarding.
	OwnerEmail string `env:"OWNER_EMAIL"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host         string  `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port         string  `env:"HTTP_PORT" envDefault:"8080"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
}

func (h HTTPServer) Address() string {
	return h.Host + ":" + h.Port
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
