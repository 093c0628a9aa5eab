package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "rafflectl"
	app.Usage = "Operate and audit the raffle service"
	app.Commands = []*cli.Command{
		{
			Action:      startMigrate,
			Name:        "migrate",
			Usage:       "Apply pending database migrations",
			Category:    "Database",
			Description: `Runs every pending goose migration against DB_* from the environment.`,
		},
		{
			Action:   showMigrationStatus,
			Name:     "status",
			Usage:    "Print the current schema version",
			Category: "Database",
		},
		{
			Action:    verifyProof,
			Name:      "verify",
			Usage:     "Recompute a draw from a published proof",
			ArgsUsage: "<proof.json>",
			Category:  "Audit",
			Flags: []cli.Flag{
				&cli.BoolFlag{Name: "json", Usage: "print the verification as JSON"},
			},
			Description: `Reads a proof exported from GET /draws/{periodID} and checks the
proof hash, ticket ranges, winning ticket and winner. No database is needed.`,
		},
		{
			Action:    simulateProof,
			Name:      "simulate",
			Usage:     "Replay a published snapshot with fresh seeds",
			ArgsUsage: "<proof.json>",
			Category:  "Audit",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "iterations", Value: 10000, Usage: "number of simulated draws"},
			},
		},
		{
			Action:   exportProof,
			Name:     "export",
			Usage:    "Write a stored draw's proof to a JSON file",
			Category: "Audit",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "tenant", Required: true},
				&cli.Int64Flag{Name: "period", Required: true},
				&cli.StringFlag{Name: "out", Value: "proof.json"},
			},
		},
		{
			Action:   rolloverNow,
			Name:     "rollover",
			Usage:    "End every tenant's active period and open the next month",
			Category: "Operations",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "tenant", Usage: "roll over a single tenant"},
				&cli.StringFlag{Name: "actor", Value: "rafflectl", Usage: "recorded as the actor that ended the period"},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("rafflectl failed", "error", err)
		os.Exit(1)
	}
}
