package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds the application configuration
type Config struct {
	Port        int
	APIKey      string // API key for authentication
	Environment string
	ServiceName string
	Version     string

	LogLevel  string
	LogFormat string
	LogDir    string

	DBUser            string
	DBPassword        string
	DBHost            string
	DBPort            string
	DBName            string
	DBMaxConns        int
	DBMaxConnIdleTime time.Duration
	DBMaxConnLifetime time.Duration
	AutoMigrate       bool

	// Default earning rates applied when a tenant is first registered
	WatchtimeRate int64
	GiftedSubRate int64
	WagerRate     int64
	WagerUnit     int64

	WatchtimeInterval  time.Duration
	WagerPollInterval  time.Duration
	TransitionInterval time.Duration
	RolloverCron       string
	WagerFetchTimeout  time.Duration
	WagerFetchRPS      float64
	GiftIDBucket       time.Duration
	AutoDraw           bool

	WorkerCount     int
	WorkerQueueSize int

	EventMaxRetries  int
	EventRetryDelay  time.Duration
	DeadLetterPath   string
	RedisAddr        string
	RedisPassword    string
	RedisChannel     string
	DiscordToken     string
	DiscordChannelID string
	TrustedProxies   []string
	DefaultTenantIDs []string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		APIKey:      getEnv("API_KEY", ""),
		Environment: getEnv("ENVIRONMENT", DefaultEnvironment),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Version:     getEnv("VERSION", DefaultVersion),

		LogLevel:  getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat: getEnv("LOG_FORMAT", DefaultLogFormat),
		LogDir:    getEnv("LOG_DIR", DefaultLogDir),

		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBName:            getEnv("DB_NAME", DefaultDBName),
		DBMaxConns:        getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", DefaultDBMaxConnIdleTime),
		DBMaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", DefaultDBMaxConnLifetime),
		AutoMigrate:       getEnvAsBool("AUTO_MIGRATE", true),

		WatchtimeRate: int64(getEnvAsInt("WATCHTIME_TICKETS_PER_HOUR", DefaultWatchtimeRate)),
		GiftedSubRate: int64(getEnvAsInt("GIFTED_SUB_TICKETS_PER_SUB", DefaultGiftedSubRate)),
		WagerRate:     int64(getEnvAsInt("WAGER_TICKETS_PER_UNIT", DefaultWagerRate)),
		WagerUnit:     int64(getEnvAsInt("WAGER_UNIT_USD", DefaultWagerUnit)),

		WatchtimeInterval:  getEnvAsDuration("WATCHTIME_CONVERT_INTERVAL", DefaultWatchtimeInterval),
		WagerPollInterval:  getEnvAsDuration("WAGER_POLL_INTERVAL", DefaultWagerPollInterval),
		TransitionInterval: getEnvAsDuration("PERIOD_CHECK_INTERVAL", DefaultTransitionInterval),
		RolloverCron:       getEnv("ROLLOVER_CRON", DefaultRolloverCron),
		WagerFetchTimeout:  getEnvAsDuration("WAGER_FETCH_TIMEOUT", DefaultWagerFetchTimeout),
		WagerFetchRPS:      getEnvAsFloat("WAGER_FETCH_RPS", DefaultWagerFetchRPS),
		GiftIDBucket:       getEnvAsDuration("GIFT_ID_BUCKET", DefaultGiftIDBucket),
		AutoDraw:           getEnvAsBool("AUTO_DRAW", false),

		WorkerCount:     getEnvAsInt("WORKER_COUNT", DefaultWorkerCount),
		WorkerQueueSize: getEnvAsInt("WORKER_QUEUE_SIZE", DefaultWorkerQueueSize),

		EventMaxRetries:  getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay:  getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),
		DeadLetterPath:   getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisChannel:     getEnv("REDIS_CHANNEL", DefaultRedisChannel),
		DiscordToken:     getEnv("DISCORD_TOKEN", ""),
		DiscordChannelID: getEnv("DISCORD_ANNOUNCE_CHANNEL_ID", ""),
		TrustedProxies:   getEnvAsList("TRUSTED_PROXIES"),
		DefaultTenantIDs: getEnvAsList("TENANT_IDS"),
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	if err := cfg.validateRaffle(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateRaffle rejects settings that would make ticket math or scheduling
// meaningless. Zero rates are allowed and switch a source off.
func (c *Config) validateRaffle() error {
	rates := map[string]int64{
		"WATCHTIME_TICKETS_PER_HOUR": c.WatchtimeRate,
		"GIFTED_SUB_TICKETS_PER_SUB": c.GiftedSubRate,
		"WAGER_TICKETS_PER_UNIT":     c.WagerRate,
	}
	for key, v := range rates {
		if v < 0 {
			return fmt.Errorf(ErrMsgNegativeRate, key, v)
		}
	}
	if c.WagerUnit < 1 {
		return fmt.Errorf(ErrMsgInvalidWagerUnit, c.WagerUnit)
	}
	if c.WagerFetchRPS <= 0 {
		return fmt.Errorf(ErrMsgInvalidFetchRPS, c.WagerFetchRPS)
	}
	if _, err := cron.ParseStandard(c.RolloverCron); err != nil {
		return fmt.Errorf(ErrMsgInvalidRolloverCron, c.RolloverCron, err)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an integer environment variable, falling back to the
// default when unset or malformed
func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration parses values like "30s" or "5m"
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated variable, dropping blank items
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
