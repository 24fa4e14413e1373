package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/recipebook-backend/internal/data/repos/recipe"
	"github.com/yungbote/recipebook-backend/internal/platform/envutil"
	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

type StoreConfig struct {
	Backend    StoreBackend `yaml:"backend"`
	Root       string       `yaml:"root"`
	SQLitePath string       `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	Channel   string `yaml:"channel"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type DispatchConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type OtelSettings struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	Headers     string  `yaml:"headers"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	LogMode     string   `yaml:"log_mode"`
	Port        string   `yaml:"port"`
	ServiceName string   `yaml:"service_name"`
	Environment string   `yaml:"environment"`
	Version     string   `yaml:"version"`
	CORSOrigins []string `yaml:"cors_origins"`

	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Dispatch DispatchConfig `yaml:"dispatch"`

	ConnectivityTimeout time.Duration `yaml:"connectivity_timeout"`
	MetricsEnabled      bool          `yaml:"metrics_enabled"`
	Otel                OtelSettings  `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		LogMode:     "development",
		Port:        "8080",
		ServiceName: "recipebook",
		Environment: "development",
		Store: StoreConfig{
			Backend:    StoreBackendMemory,
			Root:       recipe.DefaultRoot,
			SQLitePath: "recipebook.db",
		},
		Redis: RedisConfig{
			KeyPrefix: "recipebook:",
			Channel:   "recipebook:sse",
		},
		Postgres: PostgresConfig{
			Port: "5432",
			Name: "recipebook",
		},
		Dispatch: DispatchConfig{
			Workers:   4,
			QueueSize: 64,
		},
		ConnectivityTimeout: 3 * time.Second,
		Otel: OtelSettings{
			SampleRatio: 1,
		},
	}
}

// LoadConfig layers defaults, the YAML file named by CONFIG_FILE (if any),
// then environment variables.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := overlayConfigFile(&cfg, path); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}
	applyEnv(&cfg, log)
	return cfg, nil
}

func overlayConfigFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, log *logger.Logger) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode, log)
	cfg.Port = envutil.String("PORT", cfg.Port, log)
	cfg.ServiceName = envutil.String("SERVICE_NAME", cfg.ServiceName, log)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment, log)
	cfg.Version = envutil.String("SERVICE_VERSION", cfg.Version, log)
	if raw := envutil.String("CORS_ORIGINS", "", log); raw != "" {
		cfg.CORSOrigins = strings.Split(raw, ",")
	}

	cfg.Store.Backend = StoreBackend(envutil.String("STORE_BACKEND", string(cfg.Store.Backend), log))
	cfg.Store.Root = envutil.String("STORE_ROOT", cfg.Store.Root, log)
	cfg.Store.SQLitePath = envutil.String("SQLITE_PATH", cfg.Store.SQLitePath, log)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr, log)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password, log)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB, log)
	cfg.Redis.KeyPrefix = envutil.String("REDIS_KEY_PREFIX", cfg.Redis.KeyPrefix, log)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel, log)

	cfg.Postgres.Host = envutil.String("POSTGRES_HOST", cfg.Postgres.Host, log)
	cfg.Postgres.Port = envutil.String("POSTGRES_PORT", cfg.Postgres.Port, log)
	cfg.Postgres.User = envutil.String("POSTGRES_USER", cfg.Postgres.User, log)
	cfg.Postgres.Password = envutil.String("POSTGRES_PASSWORD", cfg.Postgres.Password, log)
	cfg.Postgres.Name = envutil.String("POSTGRES_NAME", cfg.Postgres.Name, log)

	cfg.Dispatch.Workers = envutil.Int("DISPATCH_WORKERS", cfg.Dispatch.Workers, log)
	cfg.Dispatch.QueueSize = envutil.Int("DISPATCH_QUEUE", cfg.Dispatch.QueueSize, log)

	cfg.ConnectivityTimeout = envutil.Duration("CONNECTIVITY_TIMEOUT", cfg.ConnectivityTimeout, log)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled, log)

	cfg.Otel.Enabled = envutil.Bool("OTEL_ENABLED", cfg.Otel.Enabled, log)
	cfg.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Otel.Endpoint, log)
	cfg.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Otel.Insecure, log)
	cfg.Otel.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", cfg.Otel.Headers, log)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio, log)
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
