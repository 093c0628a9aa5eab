package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the part of the connection pool the HTTP layer needs
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// NewPool opens the raffle database pool. Sessions are tagged with the
// service name and a statement timeout is applied so a slow leaderboard or
// draw query cannot hold a connection indefinitely.
func NewPool(connString string, maxConns int, maxIdle, maxLife time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	if maxConns > math.MaxInt32 {
		maxConns = math.MaxInt32
	}
	config.MaxConns = int32(maxConns)
	config.MinConns = min(DefaultMinConnections, config.MaxConns)
	config.MaxConnLifetime = maxLife
	config.MaxConnIdleTime = maxIdle

	params := config.ConnConfig.RuntimeParams
	if _, ok := params[ParamApplicationName]; !ok {
		params[ParamApplicationName] = ApplicationName
	}
	if _, ok := params[ParamStatementTimeout]; !ok {
		params[ParamStatementTimeout] = strconv.FormatInt(DefaultStatementTimeout.Milliseconds(), 10)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, err)
	}

	slog.Default().Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", config.MaxConns,
		"application_name", params[ParamApplicationName])
	return pool, nil
}
