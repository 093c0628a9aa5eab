package draw

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

var zeroSeed = strings.Repeat("00", domain.DrawServerSeedBytes)

func TestBuildEntries(t *testing.T) {
	entries, total := BuildEntries([]domain.Participant{
		{AccountID: "a", Tickets: 10},
		{AccountID: "ghost", Tickets: 0},
		{AccountID: "b", Tickets: 25},
	})

	assert.Equal(t, int64(35), total)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.DrawEntry{Position: 1, AccountID: "a", Tickets: 10, RangeStart: 1, RangeEnd: 10}, entries[0])
	assert.Equal(t, domain.DrawEntry{Position: 2, AccountID: "b", Tickets: 25, RangeStart: 11, RangeEnd: 35}, entries[1])
}

func TestFindWinner(t *testing.T) {
	entries, _ := BuildEntries([]domain.Participant{
		{AccountID: "a", Tickets: 10},
		{AccountID: "b", Tickets: 25},
		{AccountID: "c", Tickets: 1},
	})

	tests := []struct {
		ticket int64
		want   string
		found  bool
	}{
		{1, "a", true},
		{10, "a", true},
		{11, "b", true},
		{35, "b", true},
		{36, "c", true},
		{0, "", false},
		{37, "", false},
	}
	for _, tt := range tests {
		e, ok := FindWinner(entries, tt.ticket)
		assert.Equal(t, tt.found, ok, "ticket %d", tt.ticket)
		assert.Equal(t, tt.want, e.AccountID, "ticket %d", tt.ticket)
	}
}

func TestWinningTicket_KnownVectors(t *testing.T) {
	tests := []struct {
		name       string
		clientSeed string
		nonce      int64
		total      int64
		want       int64
		proofHash  string
	}{
		{"two entrants", "7:35:2", 7, 35, 25, "f955e2d9caf8fc4b12e63576287aea7dd9e31a5e7dbfc39bdfeec9e041af52ac"},
		{"five entrants", "42:1000:5", 42, 1000, 112, "01eea7f1cc69a717dec0bc88498ce0e7274d6d1d7de2bd3506c55dd094d5d0a7"},
		{"single ticket", "3:1:1", 3, 1, 1, "f7e299a703fb6bd2e250e8a107b1406783637f67b47b22eed7bd59ffc46ebdd2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := WinningTicket(zeroSeed, tt.clientSeed, tt.nonce, tt.total)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.proofHash, ProofHash(zeroSeed, tt.clientSeed, tt.nonce))
		})
	}
}

func TestWinningTicket_InRange(t *testing.T) {
	for _, total := range []int64{1, 2, 3, 7, 1000, 1 << 40} {
		for nonce := int64(1); nonce <= 50; nonce++ {
			got, err := WinningTicket(zeroSeed, ClientSeed(nonce, total, 1), nonce, total)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, got, int64(1))
			assert.LessOrEqual(t, got, total)
		}
	}
}

func TestWinningTicket_NoTickets(t *testing.T) {
	_, err := WinningTicket(zeroSeed, "1:0:0", 1, 0)
	assert.ErrorIs(t, err, domain.ErrNoParticipants)
}

func TestClientSeed(t *testing.T) {
	assert.Equal(t, "12:350:4", ClientSeed(12, 350, 4))
}

func validProof(t *testing.T) Proof {
	t.Helper()
	entries, total := BuildEntries([]domain.Participant{
		{AccountID: "a", Tickets: 10},
		{AccountID: "b", Tickets: 25},
	})
	// "7:35:2" selects ticket 25 for the zero seed
	return Proof{
		PeriodID:        7,
		WinnerAccountID: "b",
		WinningTicket:   25,
		TotalTickets:    total,
		ServerSeed:      zeroSeed,
		ClientSeed:      ClientSeed(7, total, len(entries)),
		Nonce:           7,
		ProofHash:       ProofHash(zeroSeed, "7:35:2", 7),
		Entries:         entries,
	}
}

func TestVerifyOffline(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		v := VerifyOffline(validProof(t))
		assert.True(t, v.Valid, v.Reason)
		assert.Equal(t, int64(25), v.WinningTicket)
		assert.Equal(t, "b", v.WinnerAccountID)
	})

	tests := []struct {
		name   string
		tamper func(p *Proof)
		reason string
	}{
		{"no entries", func(p *Proof) { p.Entries = nil }, ReasonNoEntries},
		{"gap in ranges", func(p *Proof) { p.Entries[1].RangeStart = 12 }, ReasonRangeMismatch},
		{"inflated tickets", func(p *Proof) { p.Entries[0].Tickets = 11 }, ReasonRangeMismatch},
		{"wrong total", func(p *Proof) { p.TotalTickets = 40 }, ReasonTotalMismatch},
		{"swapped client seed", func(p *Proof) { p.ClientSeed = "7:35:3" }, ReasonClientSeed},
		{"other server seed", func(p *Proof) { p.ServerSeed = strings.Repeat("11", 32) }, ReasonProofHash},
		{"edited ticket", func(p *Proof) { p.WinningTicket = 3 }, ReasonWinningTicket},
		{"edited winner", func(p *Proof) { p.WinnerAccountID = "a" }, ReasonWinner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProof(t)
			tt.tamper(&p)
			v := VerifyOffline(p)
			assert.False(t, v.Valid)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func BenchmarkWinningTicket(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = WinningTicket(zeroSeed, "1:1000000:500", int64(i), 1_000_000)
	}
}

func BenchmarkFindWinner(b *testing.B) {
	participants := make([]domain.Participant, 10_000)
	for i := range participants {
		participants[i] = domain.Participant{AccountID: string(rune('a' + i%26)), Tickets: int64(i%50 + 1)}
	}
	entries, total := BuildEntries(participants)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FindWinner(entries, int64(i)%total+1)
	}
}

func TestSimulateEntries(t *testing.T) {
	entries, total := BuildEntries([]domain.Participant{
		{AccountID: "small", Tickets: 10},
		{AccountID: "large", Tickets: 90},
	})

	sim, err := SimulateEntries(context.Background(), entries, total, 20000)
	require.NoError(t, err)
	require.Len(t, sim.Entrants, 2)

	wins := sim.Entrants[0].Wins + sim.Entrants[1].Wins
	assert.Equal(t, 20000, wins)
	assert.InDelta(t, 90.0, sim.Entrants[1].ObservedPercent, 2.0)
	assert.InDelta(t, 90.0, sim.Entrants[1].ExpectedPercent, 0.001)
}

func TestSimulateEntries_Empty(t *testing.T) {
	_, err := SimulateEntries(context.Background(), nil, 0, 10)
	assert.ErrorIs(t, err, domain.ErrNoParticipants)
}

func TestSimulateEntries_Cancelled(t *testing.T) {
	entries, total := BuildEntries([]domain.Participant{{AccountID: "a", Tickets: 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SimulateEntries(ctx, entries, total, 10)
	assert.ErrorIs(t, err, context.Canceled)
}
