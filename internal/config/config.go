package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
	Redis    RedisConfig    `json:"redis"`
	Alerting AlertingConfig `json:"alerting"`
}

type ServerConfig struct {
	BindAddr string `json:"bindAddr"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

// DSN renders the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type LoggingConfig struct {
	Level string `json:"level"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AlertingConfig struct {
	// PolicyFile points at an optional YAML file overriding the severity
	// ramp, channel table and default thresholds.
	PolicyFile string        `json:"policyFile"`
	Email      EmailConfig   `json:"email"`
	Webhook    WebhookConfig `json:"webhook"`
	Ingest     IngestConfig  `json:"ingest"`
}

type EmailConfig struct {
	Enabled    bool     `json:"enabled"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	User       string   `json:"user"`
	Password   string   `json:"password"`
	From       string   `json:"from"`
	Recipients []string `json:"recipients"`
}

type WebhookConfig struct {
	Enabled      bool    `json:"enabled"`
	URL          string  `json:"url"`
	Timeout      string  `json:"timeout"`      // e.g. "10s"
	Retries      int     `json:"retries"`      // total send attempts
	InitialDelay string  `json:"initialDelay"` // backoff start, e.g. "1s"
	MaxDelay     string  `json:"maxDelay"`     // backoff cap, e.g. "30s"
	Multiplier   float64 `json:"multiplier"`
	APIKey       string  `json:"apiKey"`
}

// GetTimeout parses the webhook timeout, defaulting to 10s.
func (c WebhookConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetInitialDelay parses the backoff initial delay, defaulting to 1s.
func (c WebhookConfig) GetInitialDelay() time.Duration {
	return parseDuration(c.InitialDelay, time.Second)
}

// GetMaxDelay parses the backoff cap, defaulting to 30s.
func (c WebhookConfig) GetMaxDelay() time.Duration {
	return parseDuration(c.MaxDelay, 30*time.Second)
}

type IngestConfig struct {
	// IdempotencyTTL bounds how long a (plot, timestamp) submission key is
	// remembered to suppress duplicate processing.
	IdempotencyTTL string `json:"idempotencyTTL"`
}

func (c IngestConfig) GetIdempotencyTTL() time.Duration {
	return parseDuration(c.IdempotencyTTL, 5*time.Minute)
}

func Load() (*Config, error) {
	configFile := flag.String("f", "", "Path to configuration file")
	flag.Parse()
	return LoadFrom(*configFile)
}

// LoadFrom builds config from env defaults plus an optional JSON file overlay.
func LoadFrom(configFile string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			BindAddr: getEnv("SERVER_BIND_ADDR", "0.0.0.0:8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "plotwatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "debug"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Alerting: AlertingConfig{
			PolicyFile: getEnv("ALERT_POLICY_FILE", ""),
			Email: EmailConfig{
				Enabled:    getEnvBool("ALERT_EMAIL_ENABLED", false),
				Host:       getEnv("SMTP_HOST", "smtp.gmail.com"),
				Port:       getEnvInt("SMTP_PORT", 587),
				User:       getEnv("SMTP_USER", ""),
				Password:   getEnv("SMTP_PASS", ""),
				From:       getEnv("SMTP_FROM", "alerts@plotwatch.io"),
				Recipients: getEnvList("ALERT_EMAIL_RECIPIENTS", []string{"admin@plotwatch.io"}),
			},
			Webhook: WebhookConfig{
				Enabled:      getEnvBool("ALERT_WEBHOOK_ENABLED", false),
				URL:          getEnv("ALERT_WEBHOOK_URL", ""),
				Timeout:      getEnv("ALERT_WEBHOOK_TIMEOUT", "10s"),
				Retries:      getEnvInt("ALERT_WEBHOOK_RETRIES", 3),
				InitialDelay: getEnv("ALERT_WEBHOOK_BACKOFF_INITIAL", "1s"),
				MaxDelay:     getEnv("ALERT_WEBHOOK_BACKOFF_MAX", "30s"),
				Multiplier:   getEnvFloat("ALERT_WEBHOOK_BACKOFF_MULTIPLIER", 2),
				APIKey:       getEnv("ALERT_WEBHOOK_API_KEY", ""),
			},
			Ingest: IngestConfig{
				IdempotencyTTL: getEnv("INGEST_IDEMPOTENCY_TTL", "5m"),
			},
		},
	}

	if configFile != "" {
		if err := loadFromFile(cfg, configFile); err != nil {
			log.Err(err)
			return nil, err
		}
	}

	// fill reasonable defaults when fields omitted in file
	if cfg.Server.BindAddr == "" {
		cfg.Server.BindAddr = "0.0.0.0:8080"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}
	// Redis.Addr gets no backfill: clearing it in the config file disables
	// the cache and the server runs with the noop fallback.
	if cfg.Alerting.Webhook.Timeout == "" {
		cfg.Alerting.Webhook.Timeout = "10s"
	}
	if cfg.Alerting.Webhook.Retries == 0 {
		cfg.Alerting.Webhook.Retries = 3
	}
	if cfg.Alerting.Webhook.Multiplier == 0 {
		cfg.Alerting.Webhook.Multiplier = 2
	}
	if cfg.Alerting.Ingest.IdempotencyTTL == "" {
		cfg.Alerting.Ingest.IdempotencyTTL = "5m"
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}

	return nil
}

func parseDuration(s string, d time.Duration) time.Duration {
	if s == "" {
		return d
	}
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return d
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if v := strings.TrimSpace(p); v != "" {
				out = append(out, v)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
