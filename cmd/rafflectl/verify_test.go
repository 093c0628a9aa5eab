package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/draw"
)

func buildResult(t *testing.T) domain.DrawResult {
	t.Helper()
	entries, total := draw.BuildEntries([]domain.Participant{
		{AccountID: "alice", Tickets: 10},
		{AccountID: "bob", Tickets: 25},
		{AccountID: "carol", Tickets: 5},
	})
	const serverSeed = "0f1e2d3c4b5a69788796a5b4c3d2e1f0"
	clientSeed := draw.ClientSeed(9, total, len(entries))
	ticket, err := draw.WinningTicket(serverSeed, clientSeed, 1, total)
	require.NoError(t, err)
	winner, ok := draw.FindWinner(entries, ticket)
	require.True(t, ok)

	return domain.DrawResult{
		PeriodID:          9,
		TenantID:          "brandish",
		WinnerAccountID:   winner.AccountID,
		WinningTicket:     ticket,
		TotalTickets:      total,
		TotalParticipants: len(entries),
		ServerSeed:        serverSeed,
		ClientSeed:        clientSeed,
		Nonce:             1,
		ProofHash:         draw.ProofHash(serverSeed, clientSeed, 1),
		Entries:           entries,
	}
}

func writeJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "proof.json")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func runVerify(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := &cli.App{
		Writer:         &out,
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{{
			Name:   "verify",
			Action: verifyProof,
			Flags:  []cli.Flag{&cli.BoolFlag{Name: "json"}},
		}},
	}
	err := app.Run(append([]string{"rafflectl", "verify"}, args...))
	return out.String(), err
}

func TestReadProof_AcceptsDrawResult(t *testing.T) {
	result := buildResult(t)
	proof, err := readProof(writeJSON(t, result))
	require.NoError(t, err)

	assert.Equal(t, draw.ProofFromResult(result), proof)
}

func TestVerify_ValidProof(t *testing.T) {
	path := writeJSON(t, draw.ProofFromResult(buildResult(t)))

	out, err := runVerify(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "VALID")
	assert.NotContains(t, out, "INVALID")
}

func TestVerify_TamperedProofFails(t *testing.T) {
	result := buildResult(t)
	result.ServerSeed = "forged"
	path := writeJSON(t, result)

	out, err := runVerify(t, "--json", path)
	require.Error(t, err)

	var v draw.Verification
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.False(t, v.Valid)
	assert.Equal(t, draw.ReasonProofHash, v.Reason)
}

func TestReadProof_Errors(t *testing.T) {
	_, err := readProof(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0600))
	_, err = readProof(bad)
	assert.Error(t, err)
}

func TestSimulate_PrintsEveryEntrant(t *testing.T) {
	path := writeJSON(t, buildResult(t))

	var out bytes.Buffer
	app := &cli.App{
		Writer: &out,
		Commands: []*cli.Command{{
			Name:   "simulate",
			Action: simulateProof,
			Flags:  []cli.Flag{&cli.IntFlag{Name: "iterations", Value: 2000}},
		}},
	}
	require.NoError(t, app.Run([]string{"rafflectl", "simulate", path}))

	for _, name := range []string{"alice", "bob", "carol"} {
		assert.Contains(t, out.String(), name)
	}
	assert.Contains(t, out.String(), "2000 iterations")
}
