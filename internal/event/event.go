package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
)

// Type represents the type of an event
type Type string

// Metadata defines the type for event metadata
type Metadata interface{}

// Event represents a generic event in the system
type Event struct {
	Version  string      `json:"version"` // Event schema version (e.g., "1.0")
	Type     Type        `json:"type"`
	Payload  interface{} `json:"payload"`
	Metadata Metadata    `json:"metadata"`
}

// GetMetadataValue extracts a value from the event metadata safely
func (e Event) GetMetadataValue(key string) interface{} {
	if e.Metadata == nil {
		return nil
	}
	if m, ok := e.Metadata.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// Raffle event types
const (
	PeriodStarted      Type = Type(domain.EventTypePeriodStarted)
	PeriodEnded        Type = Type(domain.EventTypePeriodEnded)
	DrawCompleted      Type = Type(domain.EventTypeDrawCompleted)
	GiftedSubProcessed Type = Type(domain.EventTypeGiftedSubProcessed)
	WagerPollCompleted Type = Type(domain.EventTypeWagerPollCompleted)
)

// AllRaffleTypes lists every event type the raffle publishes
var AllRaffleTypes = []Type{PeriodStarted, PeriodEnded, DrawCompleted, GiftedSubProcessed, WagerPollCompleted}

// Typed event payloads for type safety

// PeriodStartedPayloadV1 is the typed payload for period start events
type PeriodStartedPayloadV1 struct {
	TenantID string    `json:"tenant_id"`
	PeriodID int64     `json:"period_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

// PeriodEndedPayloadV1 is the typed payload for period end events
type PeriodEndedPayloadV1 struct {
	TenantID string    `json:"tenant_id"`
	PeriodID int64     `json:"period_id"`
	EndedAt  time.Time `json:"ended_at"`
	EndedBy  string    `json:"ended_by"`
}

// DrawCompletedPayloadV1 is the typed payload for draw events
type DrawCompletedPayloadV1 struct {
	TenantID          string    `json:"tenant_id"`
	PeriodID          int64     `json:"period_id"`
	WinnerAccountID   string    `json:"winner_account_id"`
	WinningTicket     int64     `json:"winning_ticket_number"`
	TotalTickets      int64     `json:"total_tickets"`
	TotalParticipants int       `json:"total_participants"`
	ServerSeed        string    `json:"server_seed"`
	ClientSeed        string    `json:"client_seed"`
	Nonce             int64     `json:"nonce"`
	ProofHash         string    `json:"proof_hash"`
	Prize             string    `json:"prize_description,omitempty"`
	DrawnAt           time.Time `json:"drawn_at"`
}

// GiftedSubProcessedPayloadV1 is the typed payload for handled gift events
type GiftedSubProcessedPayloadV1 struct {
	TenantID        string `json:"tenant_id"`
	EventID         string `json:"event_id"`
	PeriodID        int64  `json:"period_id"`
	GifterHandle    string `json:"gifter_handle"`
	GifterAccountID string `json:"gifter_account_id,omitempty"`
	GiftCount       int    `json:"gift_count"`
	TicketsAwarded  int64  `json:"tickets_awarded"`
	Outcome         string `json:"outcome"`
}

// WagerPollCompletedPayloadV1 is the typed payload for finished wager polls
type WagerPollCompletedPayloadV1 struct {
	TenantID       string `json:"tenant_id"`
	PeriodID       int64  `json:"period_id"`
	Entries        int    `json:"entries"`
	Awarded        int    `json:"awarded"`
	TicketsAwarded int64  `json:"tickets_awarded"`
	Timestamp      int64  `json:"timestamp"`
}

// Type-safe event constructors

// NewPeriodStartedEvent creates a period started event
func NewPeriodStartedEvent(p domain.RafflePeriod) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PeriodStarted,
		Payload: PeriodStartedPayloadV1{
			TenantID: p.TenantID,
			PeriodID: p.ID,
			StartAt:  p.StartAt,
			EndAt:    p.EndAt,
		},
		Metadata: map[string]interface{}{MetadataKeyTenantID: p.TenantID},
	}
}

// NewPeriodEndedEvent creates a period ended event
func NewPeriodEndedEvent(p domain.RafflePeriod, endedAt time.Time, endedBy string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    PeriodEnded,
		Payload: PeriodEndedPayloadV1{
			TenantID: p.TenantID,
			PeriodID: p.ID,
			EndedAt:  endedAt,
			EndedBy:  endedBy,
		},
		Metadata: map[string]interface{}{MetadataKeyTenantID: p.TenantID},
	}
}

// NewDrawCompletedEvent creates a draw completed event
func NewDrawCompletedEvent(r domain.DrawResult) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    DrawCompleted,
		Payload: DrawCompletedPayloadV1{
			TenantID:          r.TenantID,
			PeriodID:          r.PeriodID,
			WinnerAccountID:   r.WinnerAccountID,
			WinningTicket:     r.WinningTicket,
			TotalTickets:      r.TotalTickets,
			TotalParticipants: r.TotalParticipants,
			ServerSeed:        r.ServerSeed,
			ClientSeed:        r.ClientSeed,
			Nonce:             r.Nonce,
			ProofHash:         r.ProofHash,
			Prize:             r.Prize,
			DrawnAt:           r.DrawnAt,
		},
		Metadata: map[string]interface{}{MetadataKeyTenantID: r.TenantID},
	}
}

// NewGiftedSubProcessedEvent creates a gifted-sub processed event
func NewGiftedSubProcessedEvent(e domain.GiftedSubEvent) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    GiftedSubProcessed,
		Payload: GiftedSubProcessedPayloadV1{
			TenantID:        e.TenantID,
			EventID:         e.EventID,
			PeriodID:        e.PeriodID,
			GifterHandle:    e.GifterHandle,
			GifterAccountID: e.GifterAccountID,
			GiftCount:       e.GiftCount,
			TicketsAwarded:  e.TicketsAwarded,
			Outcome:         string(e.Outcome),
		},
		Metadata: map[string]interface{}{MetadataKeyTenantID: e.TenantID},
	}
}

// NewWagerPollCompletedEvent creates a wager poll completed event
func NewWagerPollCompletedEvent(tenantID string, periodID int64, entries, awarded int, tickets int64) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    WagerPollCompleted,
		Payload: WagerPollCompletedPayloadV1{
			TenantID:       tenantID,
			PeriodID:       periodID,
			Entries:        entries,
			Awarded:        awarded,
			TicketsAwarded: tickets,
			Timestamp:      time.Now().Unix(),
		},
		Metadata: map[string]interface{}{MetadataKeyTenantID: tenantID},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	// Handlers run synchronously in subscription order
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf(LogMsgHandlerErrorFormat, len(errs), event.Type, errs)
	}

	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
