// Package config は環境変数 (.env を含む) からアプリケーション設定を読み込みます。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Port            int
	GinMode         string
	AllowOrigins    []string
	LogLevel        string
	LogFormat       string
	LogFile         string
	LogMaxSizeMB    int
	MetricsEnabled  bool
	ShutdownTimeout time.Duration
}

// Addr は http.Server に渡すリッスンアドレスを返します。
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load は envFile を読み込んだ上で環境変数から Config を構築します。
// envFile が存在しない場合はエラーにせず、環境変数とデフォルト値だけを使います。
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		GinMode:      getEnv("GIN_MODE", "release"),
		AllowOrigins: splitList(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "console")),
		LogFile:      os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.Port, err = getInt("APP_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("APP_PORT out of range: %d", cfg.Port)
	}
	if cfg.LogMaxSizeMB, err = getInt("LOG_MAX_SIZE_MB", 100); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = getBool("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "console" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
