package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration. Values come from defaults, then an
// optional YAML file, then environment variables (a .env file is honoured).
type Config struct {
	Port     string `yaml:"port"`
	DiagPort string `yaml:"diag_port"`

	PostgresDSN      string `yaml:"postgres_dsn"`
	PostgresMaxConns int    `yaml:"postgres_max_conns"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDB       string `yaml:"mongo_db"`

	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`

	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// DefaultFiles are probed in order when no config path is given.
var DefaultFiles = []string{"conduit.yaml", "conduit.yml", ".conduit.yaml"}

func defaults() *Config {
	cfg := &Config{
		Port:               "8080",
		DiagPort:           "9999",
		PostgresMaxConns:   25,
		MongoDB:            "conduit",
		RedisAddr:          "redis:6379",
		MinioEndpoint:      "minio:9000",
		MinioBucket:        "conduit-avatars",
		SessionTTL:         24 * time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}
	cfg.Log.Level = "info"
	return cfg
}

// Load builds the configuration. path may be empty, in which case the
// DefaultFiles are probed and a missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path == "" {
		for _, loc := range DefaultFiles {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.DiagPort = getenv("DIAG_PORT", cfg.DiagPort)
	cfg.PostgresDSN = getenv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.PostgresMaxConns = getenvInt("POSTGRES_MAX_CONNS", cfg.PostgresMaxConns)
	cfg.RedisAddr = getenv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenv("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("REDIS_DB", cfg.RedisDB)
	cfg.MongoURI = getenv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getenv("MONGO_DB", cfg.MongoDB)
	cfg.MinioEndpoint = getenv("MINIO_ENDPOINT", cfg.MinioEndpoint)
	cfg.MinioAccessKey = getenv("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
	cfg.MinioSecretKey = getenv("MINIO_SECRET_KEY", cfg.MinioSecretKey)
	cfg.MinioBucket = getenv("MINIO_BUCKET", cfg.MinioBucket)
	cfg.MinioUseSSL = getenvBool("MINIO_USE_SSL", cfg.MinioUseSSL)
	cfg.SessionSecret = getenv("SESSION_SECRET", cfg.SessionSecret)
	cfg.Log.Level = getenv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Development = getenvBool("LOG_DEVELOPMENT", cfg.Log.Development)

	if v := getenv("SESSION_TTL", ""); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SESSION_TTL: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	if v := getenv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := getenv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := getenv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
