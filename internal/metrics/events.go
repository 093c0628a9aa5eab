package metrics

import (
	"context"

	"github.com/osse101/BrandishRaffle_Go/internal/event"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
)

// EventMetricsCollector subscribes to events and records metrics
type EventMetricsCollector struct{}

// NewEventMetricsCollector creates a new event metrics collector
func NewEventMetricsCollector() *EventMetricsCollector {
	return &EventMetricsCollector{}
}

// Register subscribes to all raffle events
func (e *EventMetricsCollector) Register(bus event.Bus) error {
	for _, eventType := range event.AllRaffleTypes {
		bus.Subscribe(eventType, e.HandleEvent)
	}
	return nil
}

// HandleEvent processes events and updates metrics
func (e *EventMetricsCollector) HandleEvent(ctx context.Context, evt event.Event) error {
	log := logger.FromContext(ctx)

	EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case event.PeriodStarted:
		PeriodTransitions.WithLabelValues(TransitionStarted).Inc()

	case event.PeriodEnded:
		PeriodTransitions.WithLabelValues(TransitionEnded).Inc()

	case event.DrawCompleted:
		payload, err := event.Payload[event.DrawCompletedPayloadV1](evt)
		if err != nil {
			log.Debug(LogMsgEventPayloadDecodeFailed, "type", evt.Type, "error", err)
			return nil
		}
		PeriodTransitions.WithLabelValues(TransitionDrawn).Inc()
		DrawsCompleted.WithLabelValues(payload.TenantID).Inc()

	case event.GiftedSubProcessed:
		payload, err := event.Payload[event.GiftedSubProcessedPayloadV1](evt)
		if err != nil {
			log.Debug(LogMsgEventPayloadDecodeFailed, "type", evt.Type, "error", err)
			return nil
		}
		GiftEvents.WithLabelValues(payload.Outcome).Inc()
	}

	log.Debug(LogMsgMetricsRecorded, "type", evt.Type)
	return nil
}
