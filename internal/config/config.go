package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service. It is
// constructed once at startup and injected into the components that need
// it; nothing reads the environment after Load returns.
type Config struct {
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int

	AuditDefaultPageSize int
	AuditMaxPageSize     int
	StatsCacheTTL        time.Duration

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Task Ledger API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("bcrypt.cost", 12)
	v.SetDefault("audit.default_page_size", 50)
	v.SetDefault("audit.max_page_size", 100)
	v.SetDefault("stats.cache_ttl", "60s")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	ttl, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("stats.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid stats cache ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		JWTSecret:            v.GetString("jwt.secret"),
		TokenTTL:             ttl,
		BcryptCost:           v.GetInt("bcrypt.cost"),
		AuditDefaultPageSize: v.GetInt("audit.default_page_size"),
		AuditMaxPageSize:     v.GetInt("audit.max_page_size"),
		StatsCacheTTL:        cacheTTL,
		LoginRateLimit:       v.GetInt("login.rate_limit"),
		LoginRateWindow:      rateWindow,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
	}

	if cfg.AuditDefaultPageSize <= 0 {
		cfg.AuditDefaultPageSize = 50
	}

	if cfg.AuditMaxPageSize <= 0 {
		cfg.AuditMaxPageSize = 100
	}

	return cfg, nil
}
