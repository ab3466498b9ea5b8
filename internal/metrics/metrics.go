// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the prequalification pipeline: the
// outbox publisher's circuit breaker and batch cycle, the dead letter
// queue, and NATS bus traffic. Trimmed from the teacher's broader
// media-analytics metric set to the families the three workers
// actually exercise.

var (
	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Outbox Publisher Metrics
	OutboxBacklog = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "outbox_backlog",
			Help: "Rows of the last drained outbox batch cycle that failed to publish",
		},
	)

	OutboxCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outbox_cycle_duration_seconds",
			Help:    "Duration of one outbox publisher batch cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxRowsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_rows_published_total",
			Help: "Total number of outbox rows successfully published",
		},
	)

	OutboxRowsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_rows_failed_total",
			Help: "Total number of outbox row publish attempts that failed",
		},
	)

	OutboxRowsParked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "outbox_rows_parked_total",
			Help: "Total number of outbox rows parked after exhausting max_retries",
		},
	)

	// Dead Letter Queue Metrics
	DLQEntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlq_entries_total",
			Help: "Current number of entries in the Dead Letter Queue",
		},
	)

	DLQEntriesByCategory = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dlq_entries_by_category",
			Help: "Current number of DLQ entries by error category",
		},
		[]string{"category"}, // retryable, permanent, poison
	)

	DLQMessagesAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_added_total",
			Help: "Total number of messages routed to the DLQ",
		},
		[]string{"topic"},
	)

	// NATS Bus Metrics
	NATSMessagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nats_messages_published_total",
			Help: "Total number of messages published to NATS",
		},
	)

	NATSMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_consumed_total",
			Help: "Total number of messages consumed from NATS",
		},
		[]string{"topic", "consumer_group"},
	)

	NATSMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_processed_total",
			Help: "Total number of messages successfully processed",
		},
		[]string{"topic", "consumer_group"},
	)

	NATSMessagesDeduplicated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_deduplicated_total",
			Help: "Total number of messages skipped because their fingerprint was already processed",
		},
		[]string{"topic", "consumer_group"},
	)

	NATSProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_processing_duration_seconds",
			Help:    "Duration of one message's idempotent-consumer processing",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic", "consumer_group"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordCircuitBreakerTransition records a circuit breaker state change
// and updates the current-state gauge. States follow gobreaker's own
// ordering: 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, stateValue float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(stateValue)
}

// RecordCircuitBreakerRequest records one request's outcome through a
// circuit breaker: "success", "failure", or "rejected" (circuit open).
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordOutboxCycle records one batch cycle's duration and per-row
// outcomes.
func RecordOutboxCycle(duration time.Duration, published, failed int) {
	OutboxCycleDuration.Observe(duration.Seconds())
	OutboxRowsPublished.Add(float64(published))
	OutboxRowsFailed.Add(float64(failed))
}

// RecordOutboxParked records a row parked after exhausting max_retries.
func RecordOutboxParked() {
	OutboxRowsParked.Inc()
}

// SetOutboxBacklog sets the outbox_backlog gauge. OutboxPublisherService
// sets it after each cycle that drained and committed rows, to the number
// of that cycle's rows that failed to publish; other cycles leave it
// unchanged.
func SetOutboxBacklog(n int) {
	OutboxBacklog.Set(float64(n))
}

// RecordDLQEntry records a message routed to a topic's DLQ.
func RecordDLQEntry(topic, category string) {
	DLQMessagesAdded.WithLabelValues(topic).Inc()
	DLQEntriesByCategory.WithLabelValues(category).Inc()
}

// UpdateDLQGauges sets the DLQ size gauges from a periodic count query.
func UpdateDLQGauges(totalEntries int64, entriesByCategory map[string]int64) {
	DLQEntriesTotal.Set(float64(totalEntries))
	for category, count := range entriesByCategory {
		DLQEntriesByCategory.WithLabelValues(category).Set(float64(count))
	}
}

// RecordNATSPublish records a message published to NATS.
func RecordNATSPublish() {
	NATSMessagesPublished.Inc()
}

// RecordNATSConsume records a message consumed from NATS before its
// idempotency check.
func RecordNATSConsume(topic, consumerGroup string) {
	NATSMessagesConsumed.WithLabelValues(topic, consumerGroup).Inc()
}

// RecordNATSProcessed records a message that passed the idempotent
// consumer's full algorithm and committed its side effects.
func RecordNATSProcessed(topic, consumerGroup string) {
	NATSMessagesProcessed.WithLabelValues(topic, consumerGroup).Inc()
}

// RecordNATSDeduplicated records a message skipped because its
// fingerprint already had a processed_messages row.
func RecordNATSDeduplicated(topic, consumerGroup string) {
	NATSMessagesDeduplicated.WithLabelValues(topic, consumerGroup).Inc()
}

// RecordNATSProcessingDuration records the duration of one message's
// idempotent-consumer processing, from dequeue to commit or DLQ route.
func RecordNATSProcessingDuration(topic, consumerGroup string, duration time.Duration) {
	NATSProcessingDuration.WithLabelValues(topic, consumerGroup).Observe(duration.Seconds())
}
