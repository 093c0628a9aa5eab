// Package memstore is an in-memory implementation of the repository
// interfaces for service tests. Transactions are serialized and work on a copy
// of the committed state, so a rollback discards every change made through it.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// state is the transactional part of the store
type state struct {
	periods      map[int64]domain.RafflePeriod
	nextPeriodID int64
	balances     map[int64]map[string]domain.TicketBalance
	ledger       []domain.LedgerEntry
	nextEntryID  int64
	checkpoints  map[int64]map[string]int64
	gifts        map[string]domain.GiftedSubEvent
	snapshots    map[int64]map[string]domain.WagerSnapshot
	draws        map[int64]domain.DrawResult
}

func newState() *state {
	return &state{
		periods:     make(map[int64]domain.RafflePeriod),
		balances:    make(map[int64]map[string]domain.TicketBalance),
		checkpoints: make(map[int64]map[string]int64),
		gifts:       make(map[string]domain.GiftedSubEvent),
		snapshots:   make(map[int64]map[string]domain.WagerSnapshot),
		draws:       make(map[int64]domain.DrawResult),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextPeriodID = s.nextPeriodID
	c.nextEntryID = s.nextEntryID
	for k, v := range s.periods {
		c.periods[k] = v
	}
	for k, inner := range s.balances {
		m := make(map[string]domain.TicketBalance, len(inner))
		for a, b := range inner {
			m[a] = b
		}
		c.balances[k] = m
	}
	c.ledger = append([]domain.LedgerEntry(nil), s.ledger...)
	for k, inner := range s.checkpoints {
		m := make(map[string]int64, len(inner))
		for a, v := range inner {
			m[a] = v
		}
		c.checkpoints[k] = m
	}
	for k, v := range s.gifts {
		c.gifts[k] = v
	}
	for k, inner := range s.snapshots {
		m := make(map[string]domain.WagerSnapshot, len(inner))
		for a, v := range inner {
			m[a] = v
		}
		c.snapshots[k] = m
	}
	for k, v := range s.draws {
		v.Entries = append([]domain.DrawEntry(nil), v.Entries...)
		c.draws[k] = v
	}
	return c
}

// Store implements every raffle repository interface in memory
type Store struct {
	txMu   sync.Mutex
	dataMu sync.RWMutex
	data   *state

	// side state is not transactional
	mu         sync.RWMutex
	tenants    map[string]domain.Tenant
	accounts   map[string]int64
	nextSeq    int64
	links      map[string]string
	readings   map[string]map[string]domain.WatchtimeReading
	wagerLinks map[string]domain.WagerLink
	exclusions map[string]map[string]domain.Exclusion

	failMu     sync.Mutex
	commitErr  error
	beginErr   error
	totalDrift int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		data:       newState(),
		tenants:    make(map[string]domain.Tenant),
		accounts:   make(map[string]int64),
		links:      make(map[string]string),
		readings:   make(map[string]map[string]domain.WatchtimeReading),
		wagerLinks: make(map[string]domain.WagerLink),
		exclusions: make(map[string]map[string]domain.Exclusion),
	}
}

func key(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// FailNextCommit makes the next Commit return err and discard the transaction
func (s *Store) FailNextCommit(err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.commitErr = err
}

// FailNextBegin makes the next BeginTx return err
func (s *Store) FailNextBegin(err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.beginErr = err
}

// CorruptTotals makes ApplyTicketDelta report a total that is off by drift
func (s *Store) CorruptTotals(drift int64) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.totalDrift = drift
}

// SetReading records a lifetime minute counter for a handle
func (s *Store) SetReading(tenantID, platform, handle string, minutes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readings[tenantID] == nil {
		s.readings[tenantID] = make(map[string]domain.WatchtimeReading)
	}
	s.readings[tenantID][key(platform, handle)] = domain.WatchtimeReading{Platform: platform, Handle: handle, Minutes: minutes}
}

// SeedPeriod inserts a committed period with the given status. It does not
// enforce the one-active-period rule.
func (s *Store) SeedPeriod(tenantID string, startAt, endAt time.Time, status domain.PeriodStatus) domain.RafflePeriod {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data.nextPeriodID++
	p := domain.RafflePeriod{
		ID:        s.data.nextPeriodID,
		TenantID:  tenantID,
		StartAt:   startAt,
		EndAt:     endAt,
		Status:    status,
		CreatedAt: time.Now(),
	}
	if status != domain.PeriodActive {
		ended := endAt
		p.EndedAt = &ended
	}
	s.data.periods[p.ID] = p
	return p
}

// SetPeriodStatus overwrites a committed period's status
func (s *Store) SetPeriodStatus(periodID int64, status domain.PeriodStatus) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	p := s.data.periods[periodID]
	p.Status = status
	s.data.periods[periodID] = p
}

// LedgerEntries returns every committed ledger row
func (s *Store) LedgerEntries() []domain.LedgerEntry {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return append([]domain.LedgerEntry(nil), s.data.ledger...)
}

// GiftEvent returns a committed gift record
func (s *Store) GiftEvent(tenantID, eventID string) (domain.GiftedSubEvent, bool) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	e, ok := s.data.gifts[key(tenantID, eventID)]
	return e, ok
}

// Checkpoint returns a committed watchtime checkpoint
func (s *Store) Checkpoint(periodID int64, accountID string) int64 {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data.checkpoints[periodID][accountID]
}

// HasCheckpoint reports whether a committed checkpoint exists
func (s *Store) HasCheckpoint(periodID int64, accountID string) bool {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	_, ok := s.data.checkpoints[periodID][accountID]
	return ok
}

// ---- Transactions ----

// BeginTx starts a serialized transaction over a copy of the committed state
func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	s.failMu.Lock()
	err := s.beginErr
	s.beginErr = nil
	s.failMu.Unlock()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.txMu.Lock()
	s.dataMu.RLock()
	working := s.data.clone()
	s.dataMu.RUnlock()
	return &memTx{s: s, st: working}, nil
}

// ---- Tenant ----

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotFound, tenantID)
	}
	t.WagerCampaignCodes = append([]string(nil), t.WagerCampaignCodes...)
	return &t, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) EnsureTenant(ctx context.Context, defaults domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[defaults.ID]; !ok {
		defaults.CreatedAt = time.Now()
		s.tenants[defaults.ID] = defaults
	}
	return nil
}

func (s *Store) UpsertTenant(ctx context.Context, tenant domain.Tenant) (*domain.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tenants[tenant.ID]; ok {
		tenant.CreatedAt = existing.CreatedAt
	} else {
		tenant.CreatedAt = time.Now()
	}
	s.tenants[tenant.ID] = tenant
	return &tenant, nil
}

// ---- Identity ----

func (s *Store) FindAccountByHandle(ctx context.Context, tenantID, platform, handle string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.links[key(tenantID, platform, handle)]
	return accountID, ok, nil
}

func (s *Store) UpsertLink(ctx context.Context, tenantID, platform, handle, accountID string) error {
	s.ensureAccount(tenantID, accountID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[key(tenantID, platform, handle)] = accountID
	return nil
}

func (s *Store) ensureAccount(tenantID, accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, accountID)
	if _, ok := s.accounts[k]; !ok {
		s.nextSeq++
		s.accounts[k] = s.nextSeq
	}
}

func (s *Store) accountSeq(tenantID, accountID string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[key(tenantID, accountID)]
}

// ---- Periods ----

func (s *Store) GetPeriod(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data.period(tenantID, periodID)
}

func (s *Store) GetActivePeriod(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.data.activePeriod(tenantID)
}

func (s *Store) ListPeriods(ctx context.Context, tenantID string, limit int) ([]domain.RafflePeriod, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.RafflePeriod
	for _, p := range s.data.periods {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListExpiredActivePeriods(ctx context.Context, now time.Time) ([]domain.RafflePeriod, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.RafflePeriod
	for _, p := range s.data.periods {
		if p.IsActive() && p.Expired(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (st *state) period(tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	p, ok := st.periods[periodID]
	if !ok || p.TenantID != tenantID {
		return nil, fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
	}
	return &p, nil
}

func (st *state) activePeriod(tenantID string) (*domain.RafflePeriod, error) {
	for _, p := range st.periods {
		if p.TenantID == tenantID && p.IsActive() {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: tenant %s", domain.ErrNoActivePeriod, tenantID)
}

// ---- Ledger reads ----

func (s *Store) GetBalance(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.TicketBalance, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	b, ok := s.data.balances[periodID][accountID]
	if !ok || b.TenantID != tenantID {
		return nil, nil
	}
	return &b, nil
}

func (s *Store) ranked(tenantID string, periodID int64) []domain.LeaderboardEntry {
	s.dataMu.RLock()
	var rows []domain.TicketBalance
	for _, b := range s.data.balances[periodID] {
		if b.TenantID == tenantID && b.Total > 0 {
			rows = append(rows, b)
		}
	}
	s.dataMu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return s.accountSeq(tenantID, rows[i].AccountID) < s.accountSeq(tenantID, rows[j].AccountID)
	})

	out := make([]domain.LeaderboardEntry, 0, len(rows))
	rank := 0
	var last int64 = -1
	for _, b := range rows {
		if b.Total != last {
			rank++
			last = b.Total
		}
		out = append(out, domain.LeaderboardEntry{Rank: rank, AccountID: b.AccountID, TotalTickets: b.Total})
	}
	return out
}

func (s *Store) GetLeaderboard(ctx context.Context, tenantID string, periodID int64, limit int) ([]domain.LeaderboardEntry, error) {
	out := s.ranked(tenantID, periodID)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetRank(ctx context.Context, tenantID string, periodID int64, accountID string) (*domain.LeaderboardEntry, error) {
	for _, e := range s.ranked(tenantID, periodID) {
		if e.AccountID == accountID {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, tenantID string, periodID int64, accountID string, limit int) ([]domain.LedgerEntry, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.LedgerEntry
	for i := len(s.data.ledger) - 1; i >= 0; i-- {
		e := s.data.ledger[i]
		if e.TenantID != tenantID || e.PeriodID != periodID {
			continue
		}
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetPeriodStats(ctx context.Context, tenantID string, periodID int64) (*domain.PeriodStats, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	stats := domain.PeriodStats{PeriodID: periodID}
	for _, b := range s.data.balances[periodID] {
		if b.TenantID != tenantID {
			continue
		}
		if b.Total > 0 {
			stats.Participants++
		}
		stats.TotalTickets += b.Total
		stats.WatchtimeTotal += b.Watchtime
		stats.GiftedSubTotal += b.GiftedSub
		stats.WagerTotal += b.Wager
		stats.BonusTotal += b.Bonus
	}
	for _, e := range s.data.ledger {
		if e.TenantID == tenantID && e.PeriodID == periodID {
			stats.LedgerEntryRows++
		}
	}
	return &stats, nil
}

func (s *Store) FindLedgerDiscrepancies(ctx context.Context, tenantID string, periodID int64) ([]domain.LedgerDiscrepancy, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()

	sums := make(map[string]int64)
	for _, e := range s.data.ledger {
		if e.TenantID == tenantID && e.PeriodID == periodID {
			sums[key(e.AccountID, string(e.Source))] += e.Delta
		}
	}
	seen := make(map[string]bool)
	out := []domain.LedgerDiscrepancy{}
	for _, b := range s.data.balances[periodID] {
		if b.TenantID != tenantID {
			continue
		}
		for _, source := range domain.AwardableSources {
			k := key(b.AccountID, string(source))
			seen[k] = true
			if b.Column(source) != sums[k] {
				out = append(out, domain.LedgerDiscrepancy{AccountID: b.AccountID, Source: source, BalanceValue: b.Column(source), LedgerSum: sums[k]})
			}
		}
	}
	for k, sum := range sums {
		if !seen[k] && sum != 0 {
			parts := strings.SplitN(k, "\x00", 2)
			out = append(out, domain.LedgerDiscrepancy{AccountID: parts[0], Source: domain.TicketSource(parts[1]), LedgerSum: sum})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountID != out[j].AccountID {
			return out[i].AccountID < out[j].AccountID
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

// ---- Watchtime ----

func (s *Store) ListReadings(ctx context.Context, tenantID string) ([]domain.WatchtimeReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.WatchtimeReading, 0, len(s.readings[tenantID]))
	for _, r := range s.readings[tenantID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Platform != out[j].Platform {
			return out[i].Platform < out[j].Platform
		}
		return out[i].Handle < out[j].Handle
	})
	return out, nil
}

// ---- Gifted subs ----

func (s *Store) ListGiftEvents(ctx context.Context, tenantID string, outcome domain.GiftOutcome, limit int) ([]domain.GiftedSubEvent, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.GiftedSubEvent
	for _, e := range s.data.gifts {
		if e.TenantID == tenantID && e.Outcome == outcome {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- Wager ----

func (s *Store) GetWagerLink(ctx context.Context, tenantID, username string) (*domain.WagerLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.wagerLinks[key(tenantID, username)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWagerLinkNotFound, username)
	}
	return &l, nil
}

func (s *Store) CreateWagerLink(ctx context.Context, link *domain.WagerLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wagerLinks[key(link.TenantID, link.Username)]; ok {
		return fmt.Errorf("%w: %s", domain.ErrWagerLinkConflict, link.Username)
	}
	for _, l := range s.wagerLinks {
		if l.TenantID == link.TenantID && l.AccountID == link.AccountID {
			return fmt.Errorf("%w: %s", domain.ErrWagerLinkConflict, link.Username)
		}
	}
	link.Verified = false
	link.CreatedAt = time.Now()
	s.wagerLinks[key(link.TenantID, link.Username)] = *link
	return nil
}

func (s *Store) VerifyWagerLink(ctx context.Context, tenantID, username, verifiedBy string, at time.Time) (*domain.WagerLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, username)
	l, ok := s.wagerLinks[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrWagerLinkNotFound, username)
	}
	l.Verified = true
	l.VerifiedBy = verifiedBy
	l.VerifiedAt = &at
	s.wagerLinks[k] = l
	return &l, nil
}

func (s *Store) ListWagerSnapshots(ctx context.Context, tenantID string, periodID int64) ([]domain.WagerSnapshot, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.WagerSnapshot
	for _, snap := range s.data.snapshots[periodID] {
		if snap.TenantID == tenantID {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---- Draws ----

func (s *Store) GetDrawResult(ctx context.Context, tenantID string, periodID int64) (*domain.DrawResult, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	d, ok := s.data.draws[periodID]
	if !ok || d.TenantID != tenantID {
		return nil, fmt.Errorf("%w: period %d", domain.ErrDrawNotFound, periodID)
	}
	d.Entries = append([]domain.DrawEntry(nil), d.Entries...)
	return &d, nil
}

func (s *Store) ListDrawResults(ctx context.Context, tenantID string, limit int) ([]domain.DrawResult, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	var out []domain.DrawResult
	for _, d := range s.data.draws {
		if d.TenantID == tenantID {
			d.Entries = nil
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DrawnAt.After(out[j].DrawnAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ListParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error) {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.participants(s.data, tenantID, periodID), nil
}

func (s *Store) participants(st *state, tenantID string, periodID int64) []domain.Participant {
	var rows []domain.TicketBalance
	for _, b := range st.balances[periodID] {
		if b.TenantID == tenantID && b.Total > 0 && !s.isExcluded(tenantID, b.AccountID) {
			rows = append(rows, b)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return s.accountSeq(tenantID, rows[i].AccountID) < s.accountSeq(tenantID, rows[j].AccountID)
	})
	out := make([]domain.Participant, 0, len(rows))
	for _, b := range rows {
		out = append(out, domain.Participant{AccountID: b.AccountID, Tickets: b.Total})
	}
	return out
}

func (s *Store) isExcluded(tenantID, accountID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exclusions[tenantID][accountID]
	return ok
}

func (s *Store) AddExclusion(ctx context.Context, exclusion *domain.Exclusion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exclusions[exclusion.TenantID] == nil {
		s.exclusions[exclusion.TenantID] = make(map[string]domain.Exclusion)
	}
	exclusion.CreatedAt = time.Now()
	s.exclusions[exclusion.TenantID][exclusion.AccountID] = *exclusion
	return nil
}

func (s *Store) RemoveExclusion(ctx context.Context, tenantID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exclusions[tenantID], accountID)
	return nil
}

func (s *Store) ListExclusions(ctx context.Context, tenantID string) ([]domain.Exclusion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Exclusion
	for _, e := range s.exclusions[tenantID] {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, nil
}

// ---- Tx ----

type memTx struct {
	s    *Store
	st   *state
	done bool
}

func (t *memTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	defer t.s.txMu.Unlock()

	t.s.failMu.Lock()
	err := t.s.commitErr
	t.s.commitErr = nil
	t.s.failMu.Unlock()
	if err != nil {
		return err
	}

	t.s.dataMu.Lock()
	t.s.data = t.st
	t.s.dataMu.Unlock()
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	if t.done {
		return errors.New(domain.ErrMsgTxClosed)
	}
	t.done = true
	t.s.txMu.Unlock()
	return nil
}

func (t *memTx) GetPeriodForShare(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return t.st.period(tenantID, periodID)
}

func (t *memTx) GetPeriodForUpdate(ctx context.Context, tenantID string, periodID int64) (*domain.RafflePeriod, error) {
	return t.st.period(tenantID, periodID)
}

func (t *memTx) GetActivePeriodForUpdate(ctx context.Context, tenantID string) (*domain.RafflePeriod, error) {
	return t.st.activePeriod(tenantID)
}

func (t *memTx) InsertPeriod(ctx context.Context, tenantID string, startAt, endAt time.Time) (*domain.RafflePeriod, error) {
	if _, err := t.st.activePeriod(tenantID); err == nil {
		return nil, fmt.Errorf("%w: tenant %s", domain.ErrPeriodAlreadyActive, tenantID)
	}
	t.st.nextPeriodID++
	p := domain.RafflePeriod{
		ID:        t.st.nextPeriodID,
		TenantID:  tenantID,
		StartAt:   startAt,
		EndAt:     endAt,
		Status:    domain.PeriodActive,
		CreatedAt: time.Now(),
	}
	t.st.periods[p.ID] = p
	return &p, nil
}

func (t *memTx) UpdatePeriodStatus(ctx context.Context, periodID int64, status domain.PeriodStatus, at time.Time) error {
	p, ok := t.st.periods[periodID]
	if !ok {
		return fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
	}
	if status == domain.PeriodActive {
		if _, err := t.st.activePeriod(p.TenantID); err == nil {
			return fmt.Errorf("%w: tenant %s", domain.ErrPeriodAlreadyActive, p.TenantID)
		}
	}
	p.Status = status
	if status == domain.PeriodEnded {
		p.EndedAt = &at
	}
	t.st.periods[periodID] = p
	return nil
}

func (t *memTx) UpdatePeriodEnd(ctx context.Context, periodID int64, endAt time.Time) error {
	p, ok := t.st.periods[periodID]
	if !ok {
		return fmt.Errorf("%w: period %d", domain.ErrPeriodNotFound, periodID)
	}
	p.EndAt = endAt
	t.st.periods[periodID] = p
	return nil
}

func (t *memTx) EnsureAccount(ctx context.Context, tenantID, accountID string) error {
	t.s.ensureAccount(tenantID, accountID)
	return nil
}

func (t *memTx) ApplyTicketDelta(ctx context.Context, tenantID string, periodID int64, accountID string, source domain.TicketSource, delta int64) (*domain.TicketBalance, error) {
	if t.st.balances[periodID] == nil {
		t.st.balances[periodID] = make(map[string]domain.TicketBalance)
	}
	b, ok := t.st.balances[periodID][accountID]
	if !ok {
		b = domain.TicketBalance{TenantID: tenantID, PeriodID: periodID, AccountID: accountID}
	}
	switch source {
	case domain.SourceWatchtime:
		b.Watchtime += delta
	case domain.SourceGiftedSub:
		b.GiftedSub += delta
	case domain.SourceWager:
		b.Wager += delta
	case domain.SourceBonus:
		b.Bonus += delta
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidSource, source)
	}
	b.Total = b.Sum()
	if b.Watchtime < 0 || b.GiftedSub < 0 || b.Wager < 0 || b.Total < 0 {
		return nil, fmt.Errorf("%w: account %s cannot go below zero", domain.ErrInsufficientTickets, accountID)
	}
	t.st.balances[periodID][accountID] = b

	t.s.failMu.Lock()
	b.Total += t.s.totalDrift
	t.s.failMu.Unlock()
	return &b, nil
}

func (t *memTx) AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	t.st.nextEntryID++
	entry.ID = t.st.nextEntryID
	entry.CreatedAt = time.Now()
	t.st.ledger = append(t.st.ledger, *entry)
	return nil
}

func (t *memTx) GetCheckpointForUpdate(ctx context.Context, periodID int64, accountID string) (int64, bool, error) {
	minutes, ok := t.st.checkpoints[periodID][accountID]
	return minutes, ok, nil
}

func (t *memTx) SetCheckpoint(ctx context.Context, tenantID string, periodID int64, accountID string, minutes int64) error {
	if t.st.checkpoints[periodID] == nil {
		t.st.checkpoints[periodID] = make(map[string]int64)
	}
	t.st.checkpoints[periodID][accountID] = minutes
	return nil
}

func (t *memTx) InsertGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) (bool, error) {
	k := key(event.TenantID, event.EventID)
	if _, ok := t.st.gifts[k]; ok {
		return false, nil
	}
	e := *event
	e.Outcome = domain.GiftPending
	t.st.gifts[k] = e
	return true, nil
}

func (t *memTx) UpdateGiftEvent(ctx context.Context, event *domain.GiftedSubEvent) error {
	k := key(event.TenantID, event.EventID)
	if _, ok := t.st.gifts[k]; !ok {
		return fmt.Errorf("gift event %s not found", event.EventID)
	}
	t.st.gifts[k] = *event
	return nil
}

func (t *memTx) GetWagerSnapshotForUpdate(ctx context.Context, periodID int64, username string) (*domain.WagerSnapshot, error) {
	snap, ok := t.st.snapshots[periodID][username]
	if !ok {
		return nil, nil
	}
	return &snap, nil
}

func (t *memTx) SaveWagerSnapshot(ctx context.Context, snapshot *domain.WagerSnapshot) error {
	if t.st.snapshots[snapshot.PeriodID] == nil {
		t.st.snapshots[snapshot.PeriodID] = make(map[string]domain.WagerSnapshot)
	}
	snapshot.UpdatedAt = time.Now()
	t.st.snapshots[snapshot.PeriodID][snapshot.Username] = *snapshot
	return nil
}

func (t *memTx) GetDrawParticipants(ctx context.Context, tenantID string, periodID int64) ([]domain.Participant, error) {
	return t.s.participants(t.st, tenantID, periodID), nil
}

func (t *memTx) InsertDrawResult(ctx context.Context, result *domain.DrawResult) error {
	if _, ok := t.st.draws[result.PeriodID]; ok {
		return fmt.Errorf("%w: period %d", domain.ErrPeriodAlreadyDrawn, result.PeriodID)
	}
	r := *result
	r.Entries = append([]domain.DrawEntry(nil), result.Entries...)
	t.st.draws[result.PeriodID] = r
	return nil
}
