// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"cartflow/pkg/cartview"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds every runtime setting.
type Config struct {
	HTTPAddr string
	TLSCert  string
	TLSKey   string
	LogLevel string

	CartBackend  string
	RedisAddr    string
	CartTTL      time.Duration
	SessionIdle  time.Duration
	OrderBackend string
	DatabaseURL  string

	CatalogURL     string
	CatalogRefresh time.Duration
	CatalogTimeout time.Duration
	ImageBaseURL   string

	Pricing cartview.Pricing

	OTELHost         string
	TraceProbability float64
}

// Load reads the environment, applying defaults for unset keys.
func Load() (Config, error) {
	def := cartview.DefaultPricing()

	fee, err := getEnvDecimal("DELIVERY_FEE", def.DeliveryFee)
	if err != nil {
		return Config{}, err
	}
	threshold, err := getEnvDecimal("FREE_DELIVERY_THRESHOLD", def.FreeDeliveryThreshold)
	if err != nil {
		return Config{}, err
	}
	taxRate, err := getEnvDecimal("TAX_RATE", def.TaxRate)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr: getEnv("HTTP_ADDR", ":8443"),
		TLSCert:  os.Getenv("TLS_CERT"),
		TLSKey:   os.Getenv("TLS_KEY"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CartBackend:  getEnv("CART_BACKEND", BackendMemory),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		CartTTL:      getEnvDuration("CART_TTL", 30*24*time.Hour),
		SessionIdle:  getEnvDuration("SESSION_IDLE", 30*time.Minute),
		OrderBackend: getEnv("ORDER_BACKEND", BackendMemory),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		CatalogURL:     getEnv("CATALOG_URL", "http://localhost:5555/api/menu"),
		CatalogRefresh: getEnvDuration("CATALOG_REFRESH", 5*time.Minute),
		CatalogTimeout: getEnvDuration("CATALOG_TIMEOUT", 10*time.Second),
		ImageBaseURL:   getEnv("IMAGE_BASE_URL", "http://localhost:5555"),

		Pricing: cartview.Pricing{
			DeliveryFee:           fee,
			FreeDeliveryThreshold: threshold,
			TaxRate:               taxRate,
		},

		OTELHost:         os.Getenv("OTEL_HOST"),
		TraceProbability: getEnvFloat("TRACE_PROBABILITY", 1.0),
	}
	return cfg, cfg.Validate()
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	var errs []error

	switch c.CartBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis cart backend"))
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres cart backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CART_BACKEND %q", c.CartBackend))
	}

	switch c.OrderBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres order backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown ORDER_BACKEND %q", c.OrderBackend))
	}

	if c.CatalogURL == "" {
		errs = append(errs, errors.New("CATALOG_URL is required"))
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}
	if c.Pricing.DeliveryFee.IsNegative() {
		errs = append(errs, errors.New("DELIVERY_FEE must not be negative"))
	}
	if c.Pricing.FreeDeliveryThreshold.IsNegative() {
		errs = append(errs, errors.New("FREE_DELIVERY_THRESHOLD must not be negative"))
	}
	if c.Pricing.TaxRate.IsNegative() || c.Pricing.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("TAX_RATE must be between 0 and 1"))
	}
	if c.TraceProbability < 0 || c.TraceProbability > 1 {
		errs = append(errs, errors.New("TRACE_PROBABILITY must be between 0 and 1"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
