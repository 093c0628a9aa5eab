package database

import (
	"errors"
	"time"
)

// Database Connection Pool Constants
const (
	// DefaultMinConnections is the minimum number of connections to maintain in the pool
	DefaultMinConnections int32 = 2

	// ConnectTimeout bounds the initial connect and ping
	ConnectTimeout = 10 * time.Second

	// DefaultStatementTimeout applies to every raffle session unless the DSN sets one
	DefaultStatementTimeout = 30 * time.Second

	// ApplicationName shows up in pg_stat_activity
	ApplicationName = "brandish-raffle"

	// GooseDialect is the goose dialect used for embedded migrations
	GooseDialect = "postgres"
)

// Postgres runtime parameters set on every connection
const (
	ParamApplicationName  = "application_name"
	ParamStatementTimeout = "statement_timeout"
)

// ErrSchemaBehind means the database has not been migrated to the version
// this binary was built with.
var ErrSchemaBehind = errors.New("database schema is behind the embedded migrations")

// Error Messages - Database Operations
const (
	ErrMsgFailedToParseConnString   = "failed to parse connection string"
	ErrMsgFailedToCreatePool        = "failed to create connection pool"
	ErrMsgFailedToPingDatabase      = "failed to ping database"
	ErrMsgFailedToMigrate           = "failed to apply migrations"
	ErrMsgFailedToReadMigrations    = "failed to read embedded migrations"
	ErrMsgFailedToReadSchemaVersion = "failed to read schema version"
)

// Log Messages
const (
	LogMsgSuccessfullyConnectedToDatabase = "Successfully connected to the database"
	LogMsgMigrationsApplied               = "Database migrations applied"
)
