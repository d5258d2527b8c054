package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "portfolio.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.FetchRetries)
	assert.Equal(t, 2*time.Second, cfg.FetchBackoff)
	assert.Equal(t, 60, cfg.TefasChunkDays)
	assert.Equal(t, 500*time.Millisecond, cfg.TefasRate)
	assert.Equal(t, 5, cfg.YearsBack)
	assert.False(t, cfg.CPIExtrapolate)
	assert.Equal(t, "quantity", cfg.Weighting)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LIRASHIELD_DB", "/tmp/lira.db")
	t.Setenv("LIRASHIELD_HTTP_TIMEOUT", "5s")
	t.Setenv("LIRASHIELD_CPI_EXTRAPOLATE", "true")
	t.Setenv("LIRASHIELD_TEFAS_CHUNK_DAYS", "30")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lira.db", cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.True(t, cfg.CPIExtrapolate)
	assert.Equal(t, 30, cfg.TefasChunkDays)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"LIRASHIELD_FETCH_RETRIES":    "0",
		"LIRASHIELD_TEFAS_CHUNK_DAYS": "120",
		"LIRASHIELD_YEARS_BACK":       "0",
		"LIRASHIELD_HTTP_TIMEOUT":     "never",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
