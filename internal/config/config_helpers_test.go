package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_MalformedValuesFallBack covers the env helpers through the raffle
// keys they read. A typo in one value keeps that key's default.
func TestLoad_MalformedValuesFallBack(t *testing.T) {
	tests := []struct {
		key   string
		value string
		check func(t *testing.T, cfg *Config)
	}{
		{"WATCHTIME_TICKETS_PER_HOUR", "ten", func(t *testing.T, cfg *Config) {
			assert.Equal(t, int64(DefaultWatchtimeRate), cfg.WatchtimeRate)
		}},
		{"GIFTED_SUB_TICKETS_PER_SUB", "1.5", func(t *testing.T, cfg *Config) {
			assert.Equal(t, int64(DefaultGiftedSubRate), cfg.GiftedSubRate)
		}},
		{"WATCHTIME_CONVERT_INTERVAL", "5", func(t *testing.T, cfg *Config) {
			assert.Equal(t, DefaultWatchtimeInterval, cfg.WatchtimeInterval, "bare numbers are not durations")
		}},
		{"WAGER_POLL_INTERVAL", "", func(t *testing.T, cfg *Config) {
			assert.Equal(t, DefaultWagerPollInterval, cfg.WagerPollInterval)
		}},
		{"WAGER_FETCH_RPS", "fast", func(t *testing.T, cfg *Config) {
			assert.InDelta(t, DefaultWagerFetchRPS, cfg.WagerFetchRPS, 0.0001)
		}},
		{"AUTO_DRAW", "yes please", func(t *testing.T, cfg *Config) {
			assert.False(t, cfg.AutoDraw)
		}},
		{"DB_MAX_CONNS", "lots", func(t *testing.T, cfg *Config) {
			assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("API_KEY", "test-key")
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoad_JobIntervals(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("API_KEY", "test-key")
	t.Setenv("WATCHTIME_CONVERT_INTERVAL", "90s")
	t.Setenv("WAGER_POLL_INTERVAL", "15m")
	t.Setenv("PERIOD_CHECK_INTERVAL", "500ms")
	t.Setenv("GIFT_ID_BUCKET", "2m")
	t.Setenv("ROLLOVER_CRON", "0 12 * * 1")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.WatchtimeInterval)
	assert.Equal(t, 15*time.Minute, cfg.WagerPollInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.TransitionInterval)
	assert.Equal(t, 2*time.Minute, cfg.GiftIDBucket)
	assert.Equal(t, "0 12 * * 1", cfg.RolloverCron)
}

func TestLoad_DatabasePoolConfig(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDBMaxConns, cfg.DBMaxConns)
	assert.Equal(t, DefaultDBMaxConnIdleTime, cfg.DBMaxConnIdleTime)
	assert.Equal(t, DefaultDBMaxConnLifetime, cfg.DBMaxConnLifetime)

	t.Setenv("DB_MAX_CONNS", "50")
	t.Setenv("DB_MAX_CONN_IDLE_TIME", "10m")
	t.Setenv("DB_MAX_CONN_LIFETIME", "1h")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.DBMaxConns)
	assert.Equal(t, 10*time.Minute, cfg.DBMaxConnIdleTime)
	assert.Equal(t, time.Hour, cfg.DBMaxConnLifetime)
}

func TestLoad_RejectsUnusableRaffleSettings(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"WAGER_TICKETS_PER_UNIT", "-5", "WAGER_TICKETS_PER_UNIT must not be negative"},
		{"WATCHTIME_TICKETS_PER_HOUR", "-1", "WATCHTIME_TICKETS_PER_HOUR must not be negative"},
		{"WAGER_UNIT_USD", "0", "WAGER_UNIT_USD must be at least 1"},
		{"WAGER_FETCH_RPS", "-2", "WAGER_FETCH_RPS must be positive"},
		{"ROLLOVER_CRON", "first of the month", "ROLLOVER_CRON"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnvVars(t)
			t.Setenv("API_KEY", "test-key")
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ZeroRateSwitchesSourceOff(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("API_KEY", "test-key")
	t.Setenv("GIFTED_SUB_TICKETS_PER_SUB", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Zero(t, cfg.GiftedSubRate)
}
