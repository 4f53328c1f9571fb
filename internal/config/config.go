package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/denver-kabob/internal/logger"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config is the full application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Cart     CartConfig     `mapstructure:"cart"`
}

// ServerConfig HTTP listener
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	Mode          string `mapstructure:"mode"` // debug / release
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// LogConfig release-mode log file settings
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions converts to logger.Options
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig connection pool limits
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig record store
type DatabaseConfig struct {
	Driver      string             `mapstructure:"driver"` // sqlite / postgres
	DSN         string             `mapstructure:"dsn"`
	AutoMigrate bool               `mapstructure:"auto_migrate"` // false when the schema is managed outside this process
	Pool        DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig admin session tokens
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig shared staff credential
type AdminConfig struct {
	Password     string `mapstructure:"password"`
	PasswordHash string `mapstructure:"password_hash"` // bcrypt, wins over password
}

// RedisConfig cache, rate limit and realtime fan-out
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig asynq broker
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig cross-origin rules
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig login throttling
type SecurityConfig struct {
	LoginRateLimit LoginRateLimitConfig `mapstructure:"login_rate_limit"`
}

// LoginRateLimitConfig per-IP admin login window
type LoginRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
}

// StripeConfig payment processor credentials
type StripeConfig struct {
	SecretKey               string   `mapstructure:"secret_key"`
	PublishableKey          string   `mapstructure:"publishable_key"`
	WebhookSecret           string   `mapstructure:"webhook_secret"`
	APIBaseURL              string   `mapstructure:"api_base_url"`
	WebhookToleranceSeconds int      `mapstructure:"webhook_tolerance_seconds"`
	PaymentMethodTypes      []string `mapstructure:"payment_method_types"`
	Currency                string   `mapstructure:"currency"`
}

// CheckoutConfig pricing and checkout session behavior
type CheckoutConfig struct {
	TaxRate                 string `mapstructure:"tax_rate"`
	CommentsMaxLength       int    `mapstructure:"comments_max_length"`
	SuccessPath             string `mapstructure:"success_path"`
	CancelPath              string `mapstructure:"cancel_path"`
	VerifyFallbackSession   bool   `mapstructure:"verify_fallback_session"`
	TimeSlotIntervalMinutes int    `mapstructure:"time_slot_interval_minutes"`
	TimeSlotCount           int    `mapstructure:"time_slot_count"`
}

// TaxRateDecimal parses tax_rate, falling back to 8%
func (c CheckoutConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.TaxRate))
	if err != nil || rate.IsNegative() {
		return decimal.RequireFromString("0.08")
	}
	return rate
}

// OrdersConfig order numbering and customer lookup
type OrdersConfig struct {
	FirstOrderNumber int64 `mapstructure:"first_order_number"`
	LookupWindowDays int   `mapstructure:"lookup_window_days"`
	LookupLimit      int   `mapstructure:"lookup_limit"`
}

// LookupWindow returns the phone lookup horizon
func (c OrdersConfig) LookupWindow() time.Duration {
	days := c.LookupWindowDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// CartConfig server-side cart retention
type CartConfig struct {
	RetentionDays          int `mapstructure:"retention_days"`
	CleanupIntervalMinutes int `mapstructure:"cleanup_interval_minutes"`
}

// Load reads config.yml plus environment overrides
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../") // when started from cmd/server
	v.AddConfigPath("./etc")

	SetDefaults(v)

	// server.port -> SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := Unmarshal(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(err)
	}
	return cfg
}

// Unmarshal decodes a prepared viper instance
func Unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers every default key
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.public_base_url", "")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "kitchen.log")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.max_age_days", 14)
	v.SetDefault("log.compress", true)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/orders.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 12)
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.password_hash", "")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "kabob")

	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"critical": 6,
		"default":  3,
	})

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)

	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.publishable_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.api_base_url", "https://api.stripe.com")
	v.SetDefault("stripe.webhook_tolerance_seconds", 300)
	v.SetDefault("stripe.payment_method_types", []string{"card"})
	v.SetDefault("stripe.currency", "usd")

	v.SetDefault("checkout.tax_rate", "0.08")
	v.SetDefault("checkout.comments_max_length", 400)
	v.SetDefault("checkout.success_path", "/order-confirmation")
	v.SetDefault("checkout.cancel_path", "/payment-cancel")
	v.SetDefault("checkout.verify_fallback_session", true)
	v.SetDefault("checkout.time_slot_interval_minutes", 15)
	v.SetDefault("checkout.time_slot_count", 12)

	v.SetDefault("orders.first_order_number", 1000)
	v.SetDefault("orders.lookup_window_days", 30)
	v.SetDefault("orders.lookup_limit", 50)

	v.SetDefault("cart.retention_days", 7)
	v.SetDefault("cart.cleanup_interval_minutes", 60)
}
