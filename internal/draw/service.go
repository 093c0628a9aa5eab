package draw

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
	"github.com/osse101/BrandishRaffle_Go/internal/utils"
)

// Options are the caller-supplied parts of a draw
type Options struct {
	DrawnBy string
	Prize   string
}

// Probability is one account's chance of winning the current snapshot
type Probability struct {
	AccountID    string  `json:"account_id"`
	Tickets      int64   `json:"tickets"`
	TotalTickets int64   `json:"total_tickets"`
	Percent      float64 `json:"probability_percent"`
	Odds         string  `json:"odds"`
}

// SimulatedEntrant is one participant's tally from a simulation
type SimulatedEntrant struct {
	AccountID       string  `json:"account_id"`
	Tickets         int64   `json:"tickets"`
	Wins            int     `json:"wins"`
	ExpectedPercent float64 `json:"expected_percent"`
	ObservedPercent float64 `json:"observed_percent"`
}

// Simulation reports repeated draws over one snapshot without persisting anything
type Simulation struct {
	PeriodID     int64              `json:"period_id"`
	Iterations   int                `json:"iterations"`
	TotalTickets int64              `json:"total_tickets"`
	Entrants     []SimulatedEntrant `json:"entrants"`
}

// Service runs and verifies provably fair raffle draws
type Service interface {
	// Draw selects a winner for an ended period, stores the result and moves the period to drawn
	Draw(ctx context.Context, tenantID string, periodID int64, opts Options) (*domain.DrawResult, error)

	// AutoDraw is Draw on behalf of the scheduler
	AutoDraw(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error)

	Result(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error)
	History(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error)

	// Verify recomputes a stored draw from its seeds and snapshot
	Verify(ctx context.Context, tenantID string, periodID int64) (*Verification, error)

	WinProbability(ctx context.Context, tenantID string, periodID int64, accountID string) (*Probability, error)
	Simulate(ctx context.Context, tenantID string, periodID int64, iterations int) (*Simulation, error)

	Exclude(ctx context.Context, tenantID, accountID, reason, adminID string) (*domain.Exclusion, error)
	Include(ctx context.Context, tenantID, accountID string) error
	Exclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error)
}

type service struct {
	repo repository.Draw
	bus  event.Bus
	now  func() time.Time
	seed func() (string, error)
}

// NewService creates a new draw service
func NewService(repo repository.Draw, bus event.Bus) Service {
	return &service{
		repo: repo,
		bus:  bus,
		now:  time.Now,
		seed: func() (string, error) { return utils.SecureRandomHex(domain.DrawServerSeedBytes) },
	}
}

func (s *service) Draw(ctx context.Context, tenantID string, periodID int64, opts Options) (*domain.DrawResult, error) {
	serverSeed, err := s.seed()
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToGenerateSeed, err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	period, err := tx.GetPeriodForUpdate(ctx, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToLoadPeriod, err)
	}
	switch period.Status {
	case domain.PeriodActive:
		return nil, fmt.Errorf("%w: period %d", domain.ErrPeriodNotEnded, periodID)
	case domain.PeriodDrawn:
		return nil, fmt.Errorf("%w: period %d", domain.ErrPeriodAlreadyDrawn, periodID)
	}

	participants, err := tx.GetDrawParticipants(ctx, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToLoadEntrants, err)
	}
	entries, total := BuildEntries(participants)
	if total == 0 {
		logger.FromContext(ctx).Warn(LogMsgNoParticipants, "tenant_id", tenantID, "period_id", periodID)
		return nil, fmt.Errorf("%w: period %d", domain.ErrNoParticipants, periodID)
	}

	clientSeed := ClientSeed(periodID, total, len(entries))
	ticket, err := WinningTicket(serverSeed, clientSeed, periodID, total)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToDeriveTicket, err)
	}
	winner, ok := FindWinner(entries, ticket)
	if !ok {
		return nil, fmt.Errorf(ErrContextFailedToDeriveTicket, fmt.Errorf("ticket %d outside 1..%d", ticket, total))
	}

	drawnBy := strings.TrimSpace(opts.DrawnBy)
	if drawnBy == "" {
		drawnBy = domain.SystemActor
	}
	now := s.now().UTC()
	result := &domain.DrawResult{
		PeriodID:          periodID,
		TenantID:          tenantID,
		WinnerAccountID:   winner.AccountID,
		WinningTicket:     ticket,
		TotalTickets:      total,
		TotalParticipants: len(entries),
		ServerSeed:        serverSeed,
		ClientSeed:        clientSeed,
		Nonce:             periodID,
		ProofHash:         ProofHash(serverSeed, clientSeed, periodID),
		Prize:             strings.TrimSpace(opts.Prize),
		DrawnBy:           drawnBy,
		DrawnAt:           now,
		Entries:           entries,
	}

	if err := tx.InsertDrawResult(ctx, result); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToSaveResult, err)
	}
	if err := tx.UpdatePeriodStatus(ctx, periodID, domain.PeriodDrawn, now); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToMarkDrawn, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	log := logger.FromContext(ctx)
	log.Info(LogMsgDrawCompleted,
		"tenant_id", tenantID,
		"period_id", periodID,
		"winner", result.WinnerAccountID,
		"winning_ticket", ticket,
		"total_tickets", total,
		"participants", result.TotalParticipants,
		"proof_hash", result.ProofHash)

	if s.bus != nil {
		if err := s.bus.Publish(ctx, event.NewDrawCompletedEvent(*result)); err != nil {
			log.Warn(LogMsgPublishFailed, "tenant_id", tenantID, "period_id", periodID, "error", err)
		}
	}
	return result, nil
}

func (s *service) AutoDraw(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	return s.Draw(ctx, tenantID, periodID, Options{DrawnBy: domain.SystemActor})
}

func (s *service) Result(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	return s.repo.GetDrawResult(ctx, tenantID, periodID)
}

func (s *service) History(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error) {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	if limit > domain.MaxHistoryLimit {
		limit = domain.MaxHistoryLimit
	}
	return s.repo.ListDrawResults(ctx, tenantID, limit)
}

func (s *service) Verify(ctx context.Context, tenantID string, periodID int64) (*Verification, error) {
	result, err := s.repo.GetDrawResult(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	v := VerifyOffline(ProofFromResult(*result))
	if !v.Valid {
		logger.FromContext(ctx).Error(LogMsgVerifyFailed, "tenant_id", tenantID, "period_id", periodID, "reason", v.Reason)
	}
	return &v, nil
}

// snapshot loads the eligible participants of a period. periodID 0 means
// the active period.
func (s *service) snapshot(ctx context.Context, tenantID string, periodID int64) (int64, []domain.DrawEntry, int64, error) {
	var period *domain.RafflePeriod
	var err error
	if periodID == 0 {
		period, err = s.repo.GetActivePeriod(ctx, tenantID)
	} else {
		period, err = s.repo.GetPeriod(ctx, tenantID, periodID)
	}
	if err != nil {
		return 0, nil, 0, err
	}

	participants, err := s.repo.ListParticipants(ctx, tenantID, period.ID)
	if err != nil {
		return 0, nil, 0, fmt.Errorf(ErrContextFailedToLoadEntrants, err)
	}
	entries, total := BuildEntries(participants)
	return period.ID, entries, total, nil
}

func (s *service) WinProbability(ctx context.Context, tenantID string, periodID int64, accountID string) (*Probability, error) {
	_, entries, total, err := s.snapshot(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.AccountID == accountID {
			return &Probability{
				AccountID:    accountID,
				Tickets:      e.Tickets,
				TotalTickets: total,
				Percent:      float64(e.Tickets) / float64(total) * 100,
				Odds:         fmt.Sprintf("%d/%d", e.Tickets, total),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotRanked, accountID)
}

func (s *service) Simulate(ctx context.Context, tenantID string, periodID int64, iterations int) (*Simulation, error) {
	if iterations <= 0 {
		iterations = domain.DefaultSimulationIterations
	}
	if iterations > domain.MaxSimulationIterations {
		return nil, fmt.Errorf("%w: at most %d iterations", domain.ErrInvalidInput, domain.MaxSimulationIterations)
	}

	id, entries, total, err := s.snapshot(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: period %d", domain.ErrNoParticipants, id)
	}

	sim, err := SimulateEntries(ctx, entries, total, iterations)
	if err != nil {
		return nil, err
	}
	sim.PeriodID = id

	logger.FromContext(ctx).Debug(LogMsgSimulationFinish, "tenant_id", tenantID, "period_id", id, "iterations", iterations)
	return sim, nil
}

func (s *service) Exclude(ctx context.Context, tenantID, accountID, reason, adminID string) (*domain.Exclusion, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrInvalidInput)
	}

	exclusion := &domain.Exclusion{
		TenantID:  tenantID,
		AccountID: accountID,
		Reason:    strings.TrimSpace(reason),
		CreatedBy: adminID,
	}
	if err := s.repo.AddExclusion(ctx, exclusion); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToSaveExclusion, err)
	}

	logger.FromContext(ctx).Info(LogMsgAccountExcluded, "tenant_id", tenantID, "account_id", accountID, "admin", adminID)
	return exclusion, nil
}

func (s *service) Include(ctx context.Context, tenantID, accountID string) error {
	if err := s.repo.RemoveExclusion(ctx, tenantID, accountID); err != nil {
		return fmt.Errorf(ErrContextFailedToRemoveExclusion, err)
	}
	logger.FromContext(ctx).Info(LogMsgAccountIncluded, "tenant_id", tenantID, "account_id", accountID)
	return nil
}

func (s *service) Exclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error) {
	return s.repo.ListExclusions(ctx, tenantID)
}
