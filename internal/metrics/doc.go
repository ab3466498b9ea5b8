// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package metrics provides Prometheus metrics collection and export for
the prequalification pipeline's three workers.

# Overview

The package instruments:
  - Circuit breaker state, transitions, and per-request outcomes
    (the Outbox Publisher's gobreaker wrapper)
  - Outbox Publisher batch cycles: backlog depth, cycle duration,
    published/failed/parked row counts
  - Dead Letter Queue size and category breakdown
  - NATS bus traffic: publishes, consumes, successful processing,
    fingerprint deduplication, and per-message processing duration

# Metrics Endpoint

Metrics are exposed at the address configured by metrics_addr
(see internal/config), in Prometheus text format:

	curl http://localhost:9090/metrics

# Available Metrics

Circuit Breaker:
  - circuit_breaker_state: current state, 0=closed 1=half-open 2=open (gauge)
    Labels: name
  - circuit_breaker_requests_total: requests by outcome (counter)
    Labels: name, result (success, failure, rejected)
  - circuit_breaker_consecutive_failures: current streak (gauge)
    Labels: name
  - circuit_breaker_state_transitions_total: transitions (counter)
    Labels: name, from_state, to_state

Outbox Publisher:
  - outbox_backlog: rows of the last drained batch cycle that failed to
    publish (gauge); not a count of all unpublished rows in outbox_events
  - outbox_cycle_duration_seconds: one batch cycle's wall time (histogram)
  - outbox_rows_published_total / outbox_rows_failed_total (counters)
  - outbox_rows_parked_total: rows that exhausted max_retries (counter)

Dead Letter Queue:
  - dlq_entries_total: current DLQ size (gauge)
  - dlq_entries_by_category: size broken down by error category (gauge)
    Labels: category (retryable, permanent, poison)
  - dlq_messages_added_total: messages routed to a topic's DLQ (counter)
    Labels: topic

NATS Bus:
  - nats_messages_published_total (counter)
  - nats_messages_consumed_total / nats_messages_processed_total (counters)
    Labels: topic, consumer_group
  - nats_messages_deduplicated_total: skipped via the idempotency ledger (counter)
    Labels: topic, consumer_group
  - nats_processing_duration_seconds: per-message consumer latency (histogram)
    Labels: topic, consumer_group

System:
  - app_info: version/go_version labels (gauge, always 1)
  - app_uptime_seconds (gauge)

# Usage

Metrics are package-level promauto collectors, registered against the
default Prometheus registry on first import — there is no explicit
Init call, matching the teacher's registration style. Workers call the
Record, Update and Set helper functions rather than touching the
collectors directly.
*/
package metrics
