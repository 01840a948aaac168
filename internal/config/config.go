// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigin     string        `yaml:"cors_origin"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int32  `yaml:"max_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // empty disables caching and shared rate limits
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PoolConfig struct {
	MaxClaimAttempts  int           `yaml:"max_claim_attempts"`
	LowStockThreshold int           `yaml:"low_stock_threshold"`
	MonitorInterval   time.Duration `yaml:"monitor_interval"`
	AlertCooldown     time.Duration `yaml:"alert_cooldown"`
	Workers           int           `yaml:"workers"` // alert delivery workers
}

type AdminConfig struct {
	JWTSecret    string        `yaml:"jwt_secret"`
	PasswordHash string        `yaml:"password_hash"` // bcrypt
	SessionTTL   time.Duration `yaml:"session_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

type TelegramConfig struct {
	Token       string `yaml:"token"` // empty disables alerts
	AdminChatID int64  `yaml:"admin_chat_id"`
}

type SecurityConfig struct {
	// EncryptionKey seals credential passwords at rest; 16, 24 or 32 bytes, raw or base64.
	EncryptionKey string `yaml:"encryption_key"`
}

type RateLimitConfig struct {
	PurchasesPerMinute int `yaml:"purchases_per_minute"` // per user, 0 disables
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Pool      PoolConfig      `yaml:"pool"`
	Admin     AdminConfig     `yaml:"admin"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses -config and -dev from the command line and loads the file.
func LoadConfig() (*Config, error) {
	var configPath string = ""
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	return Load(configPath, dev)
}

// Load reads the yaml file at path, applies .env and environment overrides,
// fills defaults and validates. A missing file is fine when the environment
// supplies the required values.
func Load(path string, dev bool) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Pool.LowStockThreshold < 0 {
		return nil, errors.New("pool.low_stock_threshold must not be negative")
	}
	if cfg.Admin.PasswordHash != "" && cfg.Admin.JWTSecret == "" {
		return nil, errors.New("admin.jwt_secret is required when admin.password_hash is set")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
	if v := os.Getenv("ADMIN_PASSWORD_HASH"); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("ENCRYPTION_KEY"); v != "" {
		cfg.Security.EncryptionKey = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 15 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Pool.MaxClaimAttempts <= 0 {
		cfg.Pool.MaxClaimAttempts = 5
	}
	if cfg.Pool.MonitorInterval <= 0 {
		cfg.Pool.MonitorInterval = time.Minute
	}
	if cfg.Pool.AlertCooldown <= 0 {
		cfg.Pool.AlertCooldown = time.Hour
	}
	if cfg.Pool.Workers <= 0 {
		cfg.Pool.Workers = 2
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 12 * time.Hour
	}
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
