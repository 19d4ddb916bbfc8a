// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port      int           `yaml:"port"`
	AdminKey  string        `yaml:"admin_key"` // HMAC secret for admin JWTs
	AdminTTL  time.Duration `yaml:"admin_ttl"`
	AdminPass string        `yaml:"admin_pass"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PaymeConfig struct {
	MerchantID  string `yaml:"merchant_id"`
	MerchantKey string `yaml:"merchant_key"`
	TestKey     string `yaml:"test_key"`
	CheckoutURL string `yaml:"checkout_url"`
}

type ClickConfig struct {
	ServiceID      string `yaml:"service_id"`
	MerchantID     string `yaml:"merchant_id"`
	MerchantUserID string `yaml:"merchant_user_id"`
	SecretKey      string `yaml:"secret_key"`
}

type UzumConfig struct {
	ServiceID string `yaml:"service_id"`
	SecretKey string `yaml:"secret_key"`
	PayURL    string `yaml:"pay_url"`
}

type PaymentConfig struct {
	Payme PaymeConfig `yaml:"payme"`
	Click ClickConfig `yaml:"click"`
	Uzum  UzumConfig  `yaml:"uzum"`
}

type WorkerConfig struct {
	ActivationInterval time.Duration `yaml:"activation_interval"`
	ActivationBatch    int           `yaml:"activation_batch"`
	PoolSize           int           `yaml:"pool_size"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.AdminTTL <= 0 {
		cfg.HTTP.AdminTTL = 30 * time.Minute
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Worker.ActivationInterval <= 0 {
		cfg.Worker.ActivationInterval = time.Minute
	}
	if cfg.Worker.ActivationBatch <= 0 {
		cfg.Worker.ActivationBatch = 100
	}
	if cfg.Worker.PoolSize <= 0 {
		cfg.Worker.PoolSize = 4
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Payment.Payme.MerchantKey == "" && cfg.Payment.Click.SecretKey == "" && cfg.Payment.Uzum.SecretKey == "" {
		return nil, errors.New("at least one payment provider must be configured")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
