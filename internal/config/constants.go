package config

import "time"

// Service defaults
const (
	DefaultEnvironment = "dev"
	DefaultServiceName = "brandish-raffle"
	DefaultVersion     = "dev"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogDir      = "logs"
	DefaultDBName      = "brandishraffle"
)

// Database pool defaults
const (
	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute
)

// Earning rate defaults
const (
	DefaultWatchtimeRate = 10
	DefaultGiftedSubRate = 15
	DefaultWagerRate     = 20
	DefaultWagerUnit     = 1000
)

// Background job defaults
const (
	DefaultWatchtimeInterval  = 5 * time.Minute
	DefaultWagerPollInterval  = 10 * time.Minute
	DefaultTransitionInterval = time.Minute
	DefaultRolloverCron       = "0 0 1 * *"
	DefaultWagerFetchTimeout  = 30 * time.Second
	DefaultWagerFetchRPS      = 2.0
	DefaultGiftIDBucket       = time.Minute
	DefaultWorkerCount        = 4
	DefaultWorkerQueueSize    = 100
)

// Event delivery defaults
const (
	DefaultEventMaxRetries = 5
	DefaultEventRetryDelay = 2 * time.Second
	DefaultDeadLetterPath  = "logs/event_deadletter.jsonl"
	DefaultRedisChannel    = "raffle.events"
)

// Validation errors
const (
	ErrMsgNegativeRate        = "%s must not be negative, got %d"
	ErrMsgInvalidWagerUnit    = "WAGER_UNIT_USD must be at least 1, got %d"
	ErrMsgInvalidFetchRPS     = "WAGER_FETCH_RPS must be positive, got %v"
	ErrMsgInvalidRolloverCron = "ROLLOVER_CRON %q is not a 5-field cron expression: %w"
)
