package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/ethixlearn/ethixlearn-backend/internal/data/db"
	"github.com/ethixlearn/ethixlearn-backend/internal/observability"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/envutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/logger"
)

const (
	AuthModeRequired = "required"
	AuthModeOpen     = "open"

	defaultJWTSecret = "defaultsecret"
)

type Config struct {
	Port     string `yaml:"port" validate:"required,numeric"`
	LogMode  string `yaml:"log_mode"`
	AuthMode string `yaml:"auth_mode" validate:"oneof=required open"`

	JWTSecretKey   string        `yaml:"jwt_secret_key" validate:"required"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" validate:"gt=0"`
	BcryptCost     int           `yaml:"bcrypt_cost"`

	DB db.Config `yaml:"db"`

	RedisAddr         string        `yaml:"redis_addr"`
	AnalyticsCacheTTL time.Duration `yaml:"analytics_cache_ttl"`

	MetricsEnabled bool     `yaml:"metrics_enabled"`
	CORSOrigins    []string `yaml:"cors_allowed_origins"`

	Otel observability.OtelConfig `yaml:"-"`
}

func defaultConfig() Config {
	return Config{
		Port:           "8080",
		LogMode:        "development",
		AuthMode:       AuthModeRequired,
		JWTSecretKey:   defaultJWTSecret,
		AccessTokenTTL: 7 * 24 * time.Hour,
		BcryptCost:     bcrypt.DefaultCost,
		DB: db.Config{
			Driver:             db.DriverPostgres,
			PostgresHost:       "localhost",
			PostgresPort:       "5432",
			PostgresUser:       "postgres",
			PostgresName:       "ethixlearn",
			PostgresSSLMode:    "disable",
			SQLitePath:         "ethixlearn.db",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    30 * time.Minute,
			SlowQueryThreshold: 500 * time.Millisecond,
		},
		AnalyticsCacheTTL: 30 * time.Second,
	}
}

// LoadConfig layers defaults, an optional YAML file named by CONFIG_FILE and
// the environment, in that order. A .env file in the working directory is
// read first when present.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadConfigFile(path, &cfg); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.JWTSecretKey == defaultJWTSecret && log != nil {
		log.Warn("JWT_SECRET_KEY is not set; using the development default")
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides every field whose variable is set. Current values act as
// the defaults.
func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.AuthMode = strings.ToLower(envutil.String("AUTH_MODE", cfg.AuthMode))

	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.BcryptCost = envutil.Int("BCRYPT_COST", cfg.BcryptCost)

	cfg.DB.Driver = strings.ToLower(envutil.String("DB_DRIVER", cfg.DB.Driver))
	cfg.DB.PostgresHost = envutil.String("POSTGRES_HOST", cfg.DB.PostgresHost)
	cfg.DB.PostgresPort = envutil.String("POSTGRES_PORT", cfg.DB.PostgresPort)
	cfg.DB.PostgresUser = envutil.String("POSTGRES_USER", cfg.DB.PostgresUser)
	cfg.DB.PostgresPassword = envutil.String("POSTGRES_PASSWORD", cfg.DB.PostgresPassword)
	cfg.DB.PostgresName = envutil.String("POSTGRES_NAME", cfg.DB.PostgresName)
	cfg.DB.PostgresSSLMode = envutil.String("POSTGRES_SSLMODE", cfg.DB.PostgresSSLMode)
	cfg.DB.SQLitePath = envutil.String("SQLITE_PATH", cfg.DB.SQLitePath)
	cfg.DB.MaxOpenConns = envutil.Int("DB_MAX_OPEN_CONNS", cfg.DB.MaxOpenConns)
	cfg.DB.MaxIdleConns = envutil.Int("DB_MAX_IDLE_CONNS", cfg.DB.MaxIdleConns)
	cfg.DB.ConnMaxLifetime = envutil.Duration("DB_CONN_MAX_LIFETIME", cfg.DB.ConnMaxLifetime)
	cfg.DB.SlowQueryThreshold = envutil.Duration("DB_SLOW_QUERY_THRESHOLD", cfg.DB.SlowQueryThreshold)

	cfg.RedisAddr = envutil.String("REDIS_ADDR", cfg.RedisAddr)
	cfg.AnalyticsCacheTTL = envutil.Duration("ANALYTICS_CACHE_TTL", cfg.AnalyticsCacheTTL)

	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)

	cfg.Otel = observability.OtelConfigFromEnv()
}

func (c Config) OpenIngestion() bool {
	return c.AuthMode == AuthModeOpen
}

func (c Config) Address() string {
	return ":" + c.Port
}
