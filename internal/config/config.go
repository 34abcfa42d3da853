// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// StaticDir is the absolute path of the directory served at /static/.
	StaticDir string

	DBDriver          string
	DBDSN             string
	SQLitePath        string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	// DBLogSQL logs every statement at debug level. Ignored unless LogLevel is debug.
	DBLogSQL         bool
	DBBreakerTimeout time.Duration

	MQTTEnabled           bool
	MQTTBroker            string
	MQTTPort              int
	MQTTClientID          string
	MQTTTopicPrefix       string
	StatusPublishInterval time.Duration
}

// SQLLoggingEnabled reports whether statements should go through the logging connector.
func (c Config) SQLLoggingEnabled() bool {
	return c.DBLogSQL && c.LogLevel <= slog.LevelDebug
}

func LoadFromEnv() (Config, error) {
	var cfg Config
	var err error

	cfg.AppEnv = envString("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	if cfg.LogLevel, err = parseLogLevel(envString("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}

	cfg.HTTPAddr = envString("HTTP_ADDR", ":8080")

	staticDir := envString("STATIC_DIR", "static")
	if cfg.StaticDir, err = filepath.Abs(staticDir); err != nil {
		return Config{}, fmt.Errorf("STATIC_DIR %q: %w", staticDir, err)
	}

	cfg.DBDriver = envString("DB_DRIVER", "sqlite3")
	cfg.DBDSN = envString("DB_DSN", "")
	cfg.SQLitePath = envString("SQLITE_PATH", "../dev/sqlite/duckwatch.db")

	if cfg.DBMaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 1); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", 1); err != nil {
		return Config{}, err
	}
	if cfg.DBConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 0); err != nil {
		return Config{}, err
	}
	if cfg.DBLogSQL, err = envBool("DB_LOG_SQL", false); err != nil {
		return Config{}, err
	}
	if cfg.DBBreakerTimeout, err = envDuration("DB_BREAKER_TIMEOUT", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DBBreakerTimeout <= 0 {
		return Config{}, errors.New("DB_BREAKER_TIMEOUT must be positive")
	}

	if cfg.MQTTEnabled, err = envBool("MQTT_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.MQTTBroker = envString("MQTT_BROKER", "localhost")
	if cfg.MQTTPort, err = envInt("MQTT_PORT", 1883); err != nil {
		return Config{}, err
	}
	if cfg.MQTTPort < 1 || cfg.MQTTPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (allowed: 1-65535)", cfg.MQTTPort)
	}
	cfg.MQTTClientID = envString("MQTT_CLIENT_ID", "duckwatch-server")
	cfg.MQTTTopicPrefix = strings.Trim(envString("MQTT_TOPIC_PREFIX", "ponds"), "/")
	if cfg.StatusPublishInterval, err = envDuration("STATUS_PUBLISH_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.StatusPublishInterval <= 0 {
		return Config{}, errors.New("STATUS_PUBLISH_INTERVAL must be positive")
	}

	return cfg, nil
}

// envString returns the trimmed value of key, or def when unset or blank.
func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
