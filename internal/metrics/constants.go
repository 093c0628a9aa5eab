package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Raffle metric names
const (
	MetricNameTicketsAwarded        = "raffle_tickets_awarded_total"
	MetricNameLedgerMutations       = "raffle_ledger_mutations_total"
	MetricNameLedgerInconsistencies = "raffle_ledger_inconsistencies_total"
	MetricNameGiftEvents            = "raffle_gift_events_total"
	MetricNameWagerPolls            = "raffle_wager_polls_total"
	MetricNameWagerFetchDuration    = "raffle_wager_fetch_duration_seconds"
	MetricNameWatchtimeHours        = "raffle_watchtime_hours_converted_total"
	MetricNameDrawsCompleted        = "raffle_draws_completed_total"
	MetricNamePeriodTransitions     = "raffle_period_transitions_total"
	MetricNameJobRuns               = "raffle_job_runs_total"
	MetricNameRequestsRejected      = "raffle_http_requests_rejected_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Raffle metric help text
const (
	HelpTextTicketsAwarded        = "Total tickets added to balances, by source"
	HelpTextLedgerMutations       = "Total committed ledger entries, by source"
	HelpTextLedgerInconsistencies = "Total balance updates rejected because total disagreed with its columns"
	HelpTextGiftEvents            = "Total gifted-sub events handled, by outcome"
	HelpTextWagerPolls            = "Total wager polls, by status"
	HelpTextWagerFetchDuration    = "Affiliate endpoint latency in seconds"
	HelpTextWatchtimeHours        = "Total whole watch hours converted into tickets"
	HelpTextDrawsCompleted        = "Total completed draws"
	HelpTextPeriodTransitions     = "Total period lifecycle transitions, by kind"
	HelpTextJobRuns               = "Total background job runs, by job and status"
	HelpTextRequestsRejected      = "Total API requests refused by the security middleware, by route scope and reason"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatus     = "status"
	LabelType       = "type"
	LabelTenant     = "tenant"
	LabelSource     = "source"
	LabelOutcome    = "outcome"
	LabelTransition = "transition"
	LabelJob        = "job"
	LabelReason     = "reason"
	LabelScope      = "scope"
)

// Label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"

	TransitionStarted = "started"
	TransitionEnded   = "ended"
	TransitionDrawn   = "drawn"

	ReasonUnauthorized = "unauthorized"
	ReasonRateLimited  = "rate_limited"

	ScopeAPI   = "api"
	ScopeAdmin = "admin"

	// UnmatchedRoutePath labels requests that did not match any route
	UnmatchedRoutePath = "unmatched"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets defines the histogram buckets for HTTP request duration
// in seconds, from 1ms to 10s.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// FetchLatencyBuckets covers outbound affiliate requests up to the fetch timeout
var FetchLatencyBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30}

// ============================================================================
// Log Messages
// ============================================================================

// Debug log messages
const (
	LogMsgEventPayloadDecodeFailed = "Event payload could not be decoded"
	LogMsgMetricsRecorded          = "Metrics recorded for event"
)
