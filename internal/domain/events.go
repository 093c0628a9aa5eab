package domain

// Event type constants used across the application for event bus subscriptions
// and metrics tracking. These represent domain events that can be published
// and consumed by multiple modules.
//
// Event types follow the pattern: <entity>.<action> (e.g., "raffle.draw.completed")
const (
	// EventTypePeriodStarted is published when a new raffle period becomes active
	EventTypePeriodStarted = "raffle.period.started"

	// EventTypePeriodEnded is published when an active period stops accepting tickets
	EventTypePeriodEnded = "raffle.period.ended"

	// EventTypeDrawCompleted is published after a draw result has been persisted
	EventTypeDrawCompleted = "raffle.draw.completed"

	// EventTypeGiftedSubProcessed is published for every gifted-sub event that was not a duplicate
	EventTypeGiftedSubProcessed = "raffle.gifted_sub.processed"

	// EventTypeWagerPollCompleted is published after one tenant's wager poll finishes
	EventTypeWagerPollCompleted = "raffle.wager.poll_completed"
)
