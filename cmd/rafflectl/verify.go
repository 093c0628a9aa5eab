package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/draw"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

// readProof accepts a proof or a full draw result as returned by the API.
// Proof fields are a subset of the result's, so both decode strictly into it.
func readProof(path string) (draw.Proof, error) {
	var result domain.DrawResult
	if err := utils.LoadJSON(path, &result); err != nil {
		return draw.Proof{}, err
	}
	return draw.ProofFromResult(result), nil
}

func verifyProof(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return cli.ShowSubcommandHelp(cctx)
	}

	proof, err := readProof(cctx.Args().First())
	if err != nil {
		return err
	}

	v := draw.VerifyOffline(proof)
	out := cctx.App.Writer

	if cctx.Bool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "period:         %d\n", proof.PeriodID)
		fmt.Fprintf(out, "proof hash:     %s\n", v.ProofHash)
		fmt.Fprintf(out, "winning ticket: %d of %d\n", v.WinningTicket, proof.TotalTickets)
		fmt.Fprintf(out, "winner:         %s\n", v.WinnerAccountID)
		if v.Valid {
			fmt.Fprintln(out, "result:         VALID")
		} else {
			fmt.Fprintf(out, "result:         INVALID (%s)\n", v.Reason)
		}
	}

	if !v.Valid {
		return cli.Exit("", 2)
	}
	return nil
}

// simulateProof replays a published snapshot many times with fresh seeds to
// show each entrant's observed odds next to their ticket share
func simulateProof(cctx *cli.Context) error {
	if cctx.NArg() != 1 {
		return cli.ShowSubcommandHelp(cctx)
	}

	proof, err := readProof(cctx.Args().First())
	if err != nil {
		return err
	}

	sim, err := draw.SimulateEntries(cctx.Context, proof.Entries, proof.TotalTickets, cctx.Int("iterations"))
	if err != nil {
		return err
	}
	sim.PeriodID = proof.PeriodID

	out := cctx.App.Writer
	fmt.Fprintf(out, "period %d, %d tickets, %d iterations\n", sim.PeriodID, sim.TotalTickets, sim.Iterations)
	for _, e := range sim.Entrants {
		fmt.Fprintf(out, "%-24s %8d tickets  expected %6.2f%%  observed %6.2f%%\n",
			e.AccountID, e.Tickets, e.ExpectedPercent, e.ObservedPercent)
	}
	return nil
}
