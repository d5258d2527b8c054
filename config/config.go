// Package config loads the application configuration from the environment
// and an optional .env file.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. LIRASHIELD_DB.
const EnvPrefix = "LIRASHIELD"

// Config holds application configuration.
type Config struct {
	DBPath         string
	LogLevel       string
	LogFormat      string
	HTTPTimeout    time.Duration
	FetchRetries   int
	FetchBackoff   time.Duration
	TefasChunkDays int
	TefasRate      time.Duration
	YearsBack      int
	CacheDir       string
	CPIExtrapolate bool
	Weighting      string
}

// Load loads configuration from environment variables and the .env file if present.
func Load() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("db", "portfolio.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("http_timeout", "20s")
	v.SetDefault("fetch_retries", 3)
	v.SetDefault("fetch_backoff", "2s")
	v.SetDefault("tefas_chunk_days", 60)
	v.SetDefault("tefas_rate", "500ms")
	v.SetDefault("years_back", 5)
	v.SetDefault("cache_dir", "")
	v.SetDefault("cpi_extrapolate", false)
	v.SetDefault("weighting", "quantity")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		DBPath:         v.GetString("db"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		HTTPTimeout:    v.GetDuration("http_timeout"),
		FetchRetries:   v.GetInt("fetch_retries"),
		FetchBackoff:   v.GetDuration("fetch_backoff"),
		TefasChunkDays: v.GetInt("tefas_chunk_days"),
		TefasRate:      v.GetDuration("tefas_rate"),
		YearsBack:      v.GetInt("years_back"),
		CacheDir:       v.GetString("cache_dir"),
		CPIExtrapolate: v.GetBool("cpi_extrapolate"),
		Weighting:      v.GetString("weighting"),
	}

	switch {
	case cfg.DBPath == "":
		return nil, fmt.Errorf("config: %s_DB must not be empty", EnvPrefix)
	case cfg.HTTPTimeout <= 0:
		return nil, fmt.Errorf("config: invalid %s_HTTP_TIMEOUT %q", EnvPrefix, v.GetString("http_timeout"))
	case cfg.FetchRetries < 1:
		return nil, fmt.Errorf("config: %s_FETCH_RETRIES must be at least 1, got %d", EnvPrefix, cfg.FetchRetries)
	case cfg.TefasChunkDays < 1 || cfg.TefasChunkDays > 90:
		return nil, fmt.Errorf("config: %s_TEFAS_CHUNK_DAYS must be within [1, 90], got %d", EnvPrefix, cfg.TefasChunkDays)
	case cfg.YearsBack < 1:
		return nil, fmt.Errorf("config: %s_YEARS_BACK must be at least 1, got %d", EnvPrefix, cfg.YearsBack)
	}
	return cfg, nil
}
