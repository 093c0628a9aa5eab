package period

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/concurrency"
	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// CheckpointSeeder snapshots watch time when a period opens. It writes
// through the transaction that inserts the period.
type CheckpointSeeder interface {
	SeedCheckpoints(ctx context.Context, tx repository.Tx, period domain.RafflePeriod) (int, error)
}

// AutoDrawer draws an ended period for tenants with auto draw enabled
type AutoDrawer interface {
	AutoDraw(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error)
}

// TenantProvider is the subset of the tenant service the scheduler needs
type TenantProvider interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	Ensure(ctx context.Context, tenantID string) (*domain.Tenant, error)
}

// Service manages the raffle period lifecycle: active -> ended -> drawn
type Service interface {
	Current(ctx context.Context, tenantID string) (*domain.RafflePeriod, error)
	Get(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error)
	List(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error)

	// Start opens the monthly period containing now. With restart, an active
	// period is ended in the same transaction.
	Start(ctx context.Context, tenantID string, restart bool) (*domain.RafflePeriod, error)

	// End closes a period. periodID 0 means the active period. Ending a period
	// that is already ended or drawn returns it unchanged.
	End(ctx context.Context, tenantID string, periodID int64, endedBy string) (*domain.RafflePeriod, error)

	// Rollover ends the active period, if any, and opens the next calendar month
	Rollover(ctx context.Context, tenantID, actor string) (*domain.RafflePeriod, error)

	// RolloverAll is the scheduled rollover. A tenant whose active period
	// still runs, because SetEndDate moved its end out, is left alone.
	RolloverAll(ctx context.Context) error

	// SetEndDate moves the active period's end
	SetEndDate(ctx context.Context, tenantID string, endAt time.Time) (*domain.RafflePeriod, error)

	// CheckTransitions ends expired periods and opens their successors
	CheckTransitions(ctx context.Context) (int, error)

	// EnsureActive returns the active period, opening one when none exists
	EnsureActive(ctx context.Context, tenantID string) (*domain.RafflePeriod, error)
}

type service struct {
	repo    repository.Period
	tenants TenantProvider
	bus     event.Bus
	locks   *concurrency.LockManager
	seeder  CheckpointSeeder
	drawer  AutoDrawer
	now     func() time.Time
}

// NewService creates a new period service. seeder and drawer may be nil.
func NewService(repo repository.Period, tenants TenantProvider, bus event.Bus, locks *concurrency.LockManager, seeder CheckpointSeeder, drawer AutoDrawer) Service {
	if locks == nil {
		locks = concurrency.NewLockManager()
	}
	return &service{
		repo:    repo,
		tenants: tenants,
		bus:     bus,
		locks:   locks,
		seeder:  seeder,
		drawer:  drawer,
		now:     time.Now,
	}
}

// transition is the committed outcome of ending and opening periods
type transition struct {
	ended   *domain.RafflePeriod
	created *domain.RafflePeriod
	at      time.Time
	endedBy string
	seeded  int
}

// boundsFunc chooses the new period's window given the period being replaced
type boundsFunc func(replaced *domain.RafflePeriod, now time.Time) (time.Time, time.Time)

func currentMonth(_ *domain.RafflePeriod, now time.Time) (time.Time, time.Time) {
	return domain.MonthBounds(now)
}

// nextBounds returns the calendar month that follows the replaced period.
// A period cut short by SetEndDate is followed by the rest of its month.
func nextBounds(replaced *domain.RafflePeriod, now time.Time) (time.Time, time.Time) {
	ref := now
	if replaced != nil && replaced.EndAt.After(now) {
		ref = replaced.EndAt
	}
	start, end := domain.MonthBounds(ref)
	if replaced != nil && replaced.EndAt.After(start) && replaced.EndAt.Before(end) {
		start = replaced.EndAt.UTC()
	}
	return start, end
}

func (s *service) lock(tenantID string) func() {
	mu := s.locks.GetLock(concurrency.PeriodKey(tenantID))
	mu.Lock()
	return mu.Unlock
}

func (s *service) Current(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return s.repo.GetActivePeriod(ctx, tenantID)
}

func (s *service) Get(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	if periodID == 0 {
		return s.Current(ctx, tenantID)
	}
	return s.repo.GetPeriod(ctx, tenantID, periodID)
}

func (s *service) List(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error) {
	if limit <= 0 || limit > domain.MaxHistoryLimit {
		limit = domain.MaxHistoryLimit
	}
	return s.repo.ListPeriods(ctx, tenantID, limit)
}

func (s *service) Start(ctx context.Context, tenantID string, restart bool) (*domain.RafflePeriod, error) {
	if _, err := s.tenants.Ensure(ctx, tenantID); err != nil {
		return nil, err
	}

	unlock := s.lock(tenantID)
	defer unlock()

	t, err := s.replaceActive(ctx, tenantID, restart, 0, domain.SystemActor, currentMonth)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, t)
	return t.created, nil
}

func (s *service) EnsureActive(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	active, err := s.repo.GetActivePeriod(ctx, tenantID)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, domain.ErrNoActivePeriod) {
		return nil, err
	}

	created, err := s.Start(ctx, tenantID, false)
	if errors.Is(err, domain.ErrPeriodAlreadyActive) {
		// Lost a race with another starter
		return s.repo.GetActivePeriod(ctx, tenantID)
	}
	return created, err
}

func (s *service) Rollover(ctx context.Context, tenantID, actor string) (*domain.RafflePeriod, error) {
	if _, err := s.tenants.Ensure(ctx, tenantID); err != nil {
		return nil, err
	}

	unlock := s.lock(tenantID)
	defer unlock()

	t, err := s.replaceActive(ctx, tenantID, true, 0, actor, nextBounds)
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, t)

	logger.FromContext(ctx).Info(LogMsgPeriodRolledOver,
		"tenant_id", tenantID,
		"period_id", t.created.ID,
		"start_at", t.created.StartAt,
		"end_at", t.created.EndAt)
	return t.created, nil
}

// RolloverAll rolls every known tenant over. One tenant's failure does not
// stop the others.
func (s *service) RolloverAll(ctx context.Context) error {
	tenants, err := s.tenants.List(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, t := range tenants {
		if err := s.rolloverDue(ctx, t.ID); err != nil {
			logger.FromContext(ctx).Error(LogMsgRolloverSkipped, "tenant_id", t.ID, "error", err)
			errs = append(errs, fmt.Errorf("tenant %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

// rolloverDue replaces the tenant's active period only once its end_date has
// passed, and opens one when none is active.
func (s *service) rolloverDue(ctx context.Context, tenantID string) error {
	unlock := s.lock(tenantID)
	defer unlock()

	var expectID int64
	active, err := s.repo.GetActivePeriod(ctx, tenantID)
	switch {
	case errors.Is(err, domain.ErrNoActivePeriod):
	case err != nil:
		return err
	case !active.Expired(s.now().UTC()):
		logger.FromContext(ctx).Info(LogMsgRolloverNotDue, "tenant_id", tenantID, "period_id", active.ID, "end_at", active.EndAt)
		return nil
	default:
		expectID = active.ID
	}

	t, err := s.replaceActive(ctx, tenantID, true, expectID, domain.SystemActor, nextBounds)
	if err != nil || t == nil {
		return err
	}
	s.afterTransition(ctx, t)
	if t.ended != nil {
		s.autoDraw(ctx, *t.ended)
	}

	logger.FromContext(ctx).Info(LogMsgPeriodRolledOver,
		"tenant_id", tenantID,
		"period_id", t.created.ID,
		"start_at", t.created.StartAt,
		"end_at", t.created.EndAt)
	return nil
}

// replaceActive ends the tenant's active period when allowed and opens a new
// one in a single transaction. With expectID set, the transition only
// proceeds while that period is still active and expired; otherwise it
// returns a nil transition.
func (s *service) replaceActive(ctx context.Context, tenantID string, mayReplace bool, expectID int64, endedBy string, bounds boundsFunc) (*transition, error) {
	now := s.now().UTC()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	active, err := tx.GetActivePeriodForUpdate(ctx, tenantID)
	switch {
	case errors.Is(err, domain.ErrNoActivePeriod):
		active = nil
	case err != nil:
		return nil, err
	}

	if expectID != 0 && (active == nil || active.ID != expectID || !active.Expired(now)) {
		return nil, nil
	}

	t := &transition{at: now, endedBy: endedBy}
	if active != nil {
		if !mayReplace {
			return nil, fmt.Errorf("%w: period %d", domain.ErrPeriodAlreadyActive, active.ID)
		}
		if err := tx.UpdatePeriodStatus(ctx, active.ID, domain.PeriodEnded, now); err != nil {
			return nil, fmt.Errorf(ErrContextFailedToEndPeriod, err)
		}
		ended := *active
		ended.Status = domain.PeriodEnded
		ended.EndedAt = &now
		t.ended = &ended
	}

	start, end := bounds(active, now)
	created, err := tx.InsertPeriod(ctx, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToOpenPeriod, err)
	}
	t.created = created

	if s.seeder != nil {
		seeded, err := s.seeder.SeedCheckpoints(ctx, tx, *created)
		if err != nil {
			return nil, fmt.Errorf(ErrContextFailedToSeed, err)
		}
		t.seeded = seeded
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}
	return t, nil
}

// afterTransition runs the side effects of a committed transition. Failures
// are logged since the transition itself already happened.
func (s *service) afterTransition(ctx context.Context, t *transition) {
	log := logger.FromContext(ctx)

	if t.ended != nil {
		log.Info(LogMsgPeriodEnded, "tenant_id", t.ended.TenantID, "period_id", t.ended.ID, "ended_by", t.endedBy)
		s.publish(ctx, event.NewPeriodEndedEvent(*t.ended, t.at, t.endedBy))
	}
	if t.created == nil {
		return
	}

	log.Info(LogMsgPeriodStarted,
		"tenant_id", t.created.TenantID,
		"period_id", t.created.ID,
		"start_at", t.created.StartAt,
		"end_at", t.created.EndAt)
	log.Debug(LogMsgCheckpointsSeeded, "tenant_id", t.created.TenantID, "period_id", t.created.ID, "accounts", t.seeded)
	s.publish(ctx, event.NewPeriodStartedEvent(*t.created))
}

func (s *service) publish(ctx context.Context, evt event.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		logger.FromContext(ctx).Warn(LogMsgPublishFailed, "type", evt.Type, "error", err)
	}
}

func (s *service) End(ctx context.Context, tenantID string, periodID int64, endedBy string) (*domain.RafflePeriod, error) {
	unlock := s.lock(tenantID)
	defer unlock()

	now := s.now().UTC()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	var p *domain.RafflePeriod
	if periodID == 0 {
		p, err = tx.GetActivePeriodForUpdate(ctx, tenantID)
	} else {
		p, err = tx.GetPeriodForUpdate(ctx, tenantID, periodID)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		return p, nil
	}

	if err := tx.UpdatePeriodStatus(ctx, p.ID, domain.PeriodEnded, now); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToEndPeriod, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	p.Status = domain.PeriodEnded
	p.EndedAt = &now
	s.afterTransition(ctx, &transition{ended: p, at: now, endedBy: endedBy})
	return p, nil
}

func (s *service) SetEndDate(ctx context.Context, tenantID string, endAt time.Time) (*domain.RafflePeriod, error) {
	unlock := s.lock(tenantID)
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToBeginTx, err)
	}
	defer repository.SafeRollback(ctx, tx)

	p, err := tx.GetActivePeriodForUpdate(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	endAt = endAt.UTC()
	if !endAt.After(p.StartAt) {
		return nil, fmt.Errorf("%w: end must be after the period start %s", domain.ErrInvalidInput, p.StartAt.Format(time.RFC3339))
	}

	if err := tx.UpdatePeriodEnd(ctx, p.ID, endAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf(ErrContextFailedToCommitTx, err)
	}

	logger.FromContext(ctx).Info(LogMsgPeriodEndMoved,
		"tenant_id", tenantID,
		"period_id", p.ID,
		"from", p.EndAt,
		"to", endAt)
	p.EndAt = endAt
	return p, nil
}

// CheckTransitions ends every active period whose end has passed, opens the
// next one and, for tenants with auto draw, draws the ended period. It
// returns the number of periods transitioned.
func (s *service) CheckTransitions(ctx context.Context) (int, error) {
	expired, err := s.repo.ListExpiredActivePeriods(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	var errs []error
	transitioned := 0
	for _, p := range expired {
		ok, err := s.expire(ctx, p)
		if err != nil {
			logger.FromContext(ctx).Error(LogMsgTransitionFailed, "tenant_id", p.TenantID, "period_id", p.ID, "error", err)
			errs = append(errs, fmt.Errorf("tenant %s: %w", p.TenantID, err))
			continue
		}
		if ok {
			transitioned++
		}
	}
	return transitioned, errors.Join(errs...)
}

func (s *service) expire(ctx context.Context, p domain.RafflePeriod) (bool, error) {
	unlock := s.lock(p.TenantID)
	defer unlock()

	t, err := s.replaceActive(ctx, p.TenantID, true, p.ID, domain.SystemActor, nextBounds)
	if err != nil {
		return false, err
	}
	if t == nil {
		return false, nil
	}

	logger.FromContext(ctx).Info(LogMsgPeriodExpired, "tenant_id", p.TenantID, "period_id", p.ID, "next_period_id", t.created.ID)
	s.afterTransition(ctx, t)
	s.autoDraw(ctx, p)
	return true, nil
}

func (s *service) autoDraw(ctx context.Context, p domain.RafflePeriod) {
	if s.drawer == nil {
		return
	}
	tenant, err := s.tenants.Get(ctx, p.TenantID)
	if err != nil || !tenant.AutoDraw {
		return
	}

	_, err = s.drawer.AutoDraw(ctx, p.TenantID, p.ID)
	switch {
	case errors.Is(err, domain.ErrNoParticipants):
		logger.FromContext(ctx).Info(LogMsgAutoDrawNoEntrants, "tenant_id", p.TenantID, "period_id", p.ID)
	case err != nil:
		logger.FromContext(ctx).Error(LogMsgAutoDrawFailed, "tenant_id", p.TenantID, "period_id", p.ID, "error", err)
	}
}
