package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/osse101/BrandishRaffle_Go/internal/bootstrap"
	"github.com/osse101/BrandishRaffle_Go/internal/config"
	"github.com/osse101/BrandishRaffle_Go/internal/database"
	"github.com/osse101/BrandishRaffle_Go/internal/draw"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

func openPool() (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	pool, err := database.NewPool(cfg.GetDBConnString(), cfg.DBMaxConns, cfg.DBMaxConnIdleTime, cfg.DBMaxConnLifetime)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

func startMigrate(cctx *cli.Context) error {
	_, pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(cctx.Context, pool); err != nil {
		return err
	}
	return printStatus(cctx.Context, cctx, pool)
}

func showMigrationStatus(cctx *cli.Context) error {
	_, pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()
	return printStatus(cctx.Context, cctx, pool)
}

func printStatus(ctx context.Context, cctx *cli.Context, pool *pgxpool.Pool) error {
	version, err := database.MigrationStatus(ctx, pool)
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "schema version: %d\n", version)
	return nil
}

// rolloverNow runs the monthly rollover by hand. Events go to a local bus
// only, so nothing is announced.
func rolloverNow(cctx *cli.Context) error {
	cfg, pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()

	services := bootstrap.InitializeServices(cfg, bootstrap.InitializeRepositories(pool), event.NewMemoryBus())

	tenantID := cctx.String("tenant")
	if tenantID == "" {
		return services.Periods.RolloverAll(cctx.Context)
	}

	p, err := services.Periods.Rollover(cctx.Context, tenantID, cctx.String("actor"))
	if err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "tenant %s: period %d open until %s\n", tenantID, p.ID, p.EndAt.Format("2006-01-02 15:04 MST"))
	return nil
}

// exportProof writes a stored draw's proof so it can be published and
// checked later with verify
func exportProof(cctx *cli.Context) error {
	cfg, pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()

	services := bootstrap.InitializeServices(cfg, bootstrap.InitializeRepositories(pool), event.NewMemoryBus())
	result, err := services.Draws.Result(cctx.Context, cctx.String("tenant"), cctx.Int64("period"))
	if err != nil {
		return err
	}

	out := cctx.String("out")
	if err := utils.SaveJSON(out, draw.ProofFromResult(*result)); err != nil {
		return err
	}
	fmt.Fprintf(cctx.App.Writer, "proof for period %d written to %s\n", result.PeriodID, out)
	return nil
}
