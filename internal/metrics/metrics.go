package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Raffle Metrics
var (
	TicketsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameTicketsAwarded,
			Help: HelpTextTicketsAwarded,
		},
		[]string{LabelTenant, LabelSource},
	)

	LedgerMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerMutations,
			Help: HelpTextLedgerMutations,
		},
		[]string{LabelSource},
	)

	LedgerInconsistencies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLedgerInconsistencies,
			Help: HelpTextLedgerInconsistencies,
		},
		[]string{LabelTenant},
	)

	GiftEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameGiftEvents,
			Help: HelpTextGiftEvents,
		},
		[]string{LabelOutcome},
	)

	WagerPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWagerPolls,
			Help: HelpTextWagerPolls,
		},
		[]string{LabelTenant, LabelStatus},
	)

	WagerFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameWagerFetchDuration,
			Help:    HelpTextWagerFetchDuration,
			Buckets: FetchLatencyBuckets,
		},
		[]string{LabelStatus},
	)

	WatchtimeHoursConverted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameWatchtimeHours,
			Help: HelpTextWatchtimeHours,
		},
		[]string{LabelTenant},
	)

	DrawsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameDrawsCompleted,
			Help: HelpTextDrawsCompleted,
		},
		[]string{LabelTenant},
	)

	PeriodTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePeriodTransitions,
			Help: HelpTextPeriodTransitions,
		},
		[]string{LabelTransition},
	)

	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameJobRuns,
			Help: HelpTextJobRuns,
		},
		[]string{LabelJob, LabelStatus},
	)
)

// Security Metrics
var (
	RequestsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameRequestsRejected,
			Help: HelpTextRequestsRejected,
		},
		[]string{LabelScope, LabelReason},
	)
)

// RecordJob counts one background job run
func RecordJob(job string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	JobRuns.WithLabelValues(job, status).Inc()
}
