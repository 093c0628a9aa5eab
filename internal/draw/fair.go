package draw

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

// Proof is the published material a third party needs to recompute a draw
type Proof struct {
	PeriodID        int64              `json:"period_id"`
	WinnerAccountID string             `json:"winner_account_id"`
	WinningTicket   int64              `json:"winning_ticket_number"`
	TotalTickets    int64              `json:"total_tickets"`
	ServerSeed      string             `json:"server_seed"`
	ClientSeed      string             `json:"client_seed"`
	Nonce           int64              `json:"nonce"`
	ProofHash       string             `json:"proof_hash"`
	Entries         []domain.DrawEntry `json:"entries"`
}

// ProofFromResult extracts the verifiable part of a stored draw
func ProofFromResult(r domain.DrawResult) Proof {
	return Proof{
		PeriodID:        r.PeriodID,
		WinnerAccountID: r.WinnerAccountID,
		WinningTicket:   r.WinningTicket,
		TotalTickets:    r.TotalTickets,
		ServerSeed:      r.ServerSeed,
		ClientSeed:      r.ClientSeed,
		Nonce:           r.Nonce,
		ProofHash:       r.ProofHash,
		Entries:         r.Entries,
	}
}

// Verification is the outcome of recomputing a draw from its proof
type Verification struct {
	Valid           bool   `json:"valid"`
	Reason          string `json:"reason,omitempty"`
	ProofHash       string `json:"computed_proof_hash"`
	WinningTicket   int64  `json:"computed_winning_ticket"`
	WinnerAccountID string `json:"computed_winner_account_id"`
}

// BuildEntries lays participants out on contiguous ticket ranges starting
// at 1, in the order given. Participants without tickets are left out.
func BuildEntries(participants []domain.Participant) ([]domain.DrawEntry, int64) {
	entries := make([]domain.DrawEntry, 0, len(participants))
	var running int64
	for _, p := range participants {
		if p.Tickets <= 0 {
			continue
		}
		entries = append(entries, domain.DrawEntry{
			Position:   len(entries) + 1,
			AccountID:  p.AccountID,
			Tickets:    p.Tickets,
			RangeStart: running + 1,
			RangeEnd:   running + p.Tickets,
		})
		running += p.Tickets
	}
	return entries, running
}

// ClientSeed binds the derivation to the shape of the snapshot
func ClientSeed(periodID, totalTickets int64, participants int) string {
	return fmt.Sprintf(ClientSeedFormat, periodID, totalTickets, participants)
}

// ProofHash is the hex SHA-256 of "server_seed:client_seed:nonce"
func ProofHash(serverSeed, clientSeed string, nonce int64) string {
	sum := roundHash(serverSeed, clientSeed, nonce, 0)
	return hex.EncodeToString(sum[:])
}

// roundHash returns the digest used by derivation round i. Round 0 is the
// proof hash itself; later rounds append ":i".
func roundHash(serverSeed, clientSeed string, nonce int64, round int) [sha256.Size]byte {
	msg := serverSeed + ":" + clientSeed + ":" + strconv.FormatInt(nonce, 10)
	if round > 0 {
		msg += ":" + strconv.Itoa(round)
	}
	return sha256.Sum256([]byte(msg))
}

// WinningTicket derives a number uniform in [1, total] from the seeds. The
// first 8 bytes of each round's digest are read as a big-endian uint64 and
// values at or above the largest multiple of total are rejected.
func WinningTicket(serverSeed, clientSeed string, nonce, total int64) (int64, error) {
	if total <= 0 {
		return 0, domain.ErrNoParticipants
	}

	n := uint64(total)
	limit := math.MaxUint64 - (math.MaxUint64%n+1)%n
	for round := 0; round < maxDerivationRounds; round++ {
		sum := roundHash(serverSeed, clientSeed, nonce, round)
		v := binary.BigEndian.Uint64(sum[:8])
		if v <= limit {
			return int64(v%n) + 1, nil
		}
	}
	return 0, fmt.Errorf("no unbiased value after %d rounds", maxDerivationRounds)
}

// FindWinner returns the entry whose range contains ticket
func FindWinner(entries []domain.DrawEntry, ticket int64) (domain.DrawEntry, bool) {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].RangeEnd >= ticket })
	if i < len(entries) && entries[i].Contains(ticket) {
		return entries[i], true
	}
	return domain.DrawEntry{}, false
}

// VerifyOffline recomputes a draw from its proof alone. It needs no
// database, so anyone holding the published proof can run it.
func VerifyOffline(p Proof) Verification {
	v := Verification{ProofHash: ProofHash(p.ServerSeed, p.ClientSeed, p.Nonce)}

	if len(p.Entries) == 0 {
		v.Reason = ReasonNoEntries
		return v
	}

	var running int64
	for _, e := range p.Entries {
		if e.Tickets <= 0 || e.RangeStart != running+1 || e.RangeEnd != running+e.Tickets {
			v.Reason = ReasonRangeMismatch
			return v
		}
		running = e.RangeEnd
	}
	if running != p.TotalTickets {
		v.Reason = ReasonTotalMismatch
		return v
	}
	if p.ClientSeed != ClientSeed(p.PeriodID, p.TotalTickets, len(p.Entries)) {
		v.Reason = ReasonClientSeed
		return v
	}
	if v.ProofHash != p.ProofHash {
		v.Reason = ReasonProofHash
		return v
	}

	ticket, err := WinningTicket(p.ServerSeed, p.ClientSeed, p.Nonce, p.TotalTickets)
	if err != nil {
		v.Reason = err.Error()
		return v
	}
	v.WinningTicket = ticket
	if ticket != p.WinningTicket {
		v.Reason = ReasonWinningTicket
		return v
	}

	winner, _ := FindWinner(p.Entries, ticket)
	v.WinnerAccountID = winner.AccountID
	if winner.AccountID != p.WinnerAccountID {
		v.Reason = ReasonWinner
		return v
	}

	v.Valid = true
	return v
}

// SimulateEntries draws iterations times over a fixed snapshot with fresh
// randomness and tallies the wins. Nothing is persisted.
func SimulateEntries(ctx context.Context, entries []domain.DrawEntry, total int64, iterations int) (*Simulation, error) {
	if total <= 0 || len(entries) == 0 {
		return nil, domain.ErrNoParticipants
	}

	wins := make([]int, len(entries))
	for i := 0; i < iterations; i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		ticket, err := utils.SecureRandomInt(1, total)
		if err != nil {
			return nil, err
		}
		if e, ok := FindWinner(entries, ticket); ok {
			wins[e.Position-1]++
		}
	}

	sim := &Simulation{Iterations: iterations, TotalTickets: total}
	for i, e := range entries {
		sim.Entrants = append(sim.Entrants, SimulatedEntrant{
			AccountID:       e.AccountID,
			Tickets:         e.Tickets,
			Wins:            wins[i],
			ExpectedPercent: float64(e.Tickets) / float64(total) * 100,
			ObservedPercent: float64(wins[i]) / float64(iterations) * 100,
		})
	}
	return sim, nil
}
