// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package eventprocessor implements the transactional outbox publisher and
// idempotent consumer protocol that move a loan application through its
// pipeline stages over NATS JetStream, using Watermill as the publish/
// subscribe layer.
//
// # Architecture: Outbox Out, Idempotent Consumer In
//
// Nothing in this package ever publishes a domain mutation directly to the
// bus. Every state change a worker makes to an application is committed to
// Postgres in the same transaction as an outbox_events row; OutboxPublisherService
// polls that table, publishes each row to its topic, and only then marks the
// row published:
//
//	Worker tx:  UPDATE applications ... ; INSERT INTO outbox_events ...
//	                              │
//	                              ▼
//	              OutboxPublisherService (poll, batch, publish)
//	                              │
//	                              ▼
//	                    NATS JetStream (durable)
//	                              │
//	                              ▼
//	                         Consumer.Serve
//	              (check processed_messages, dispatch, commit-then-ack)
//
// On the consuming side, Consumer looks up the incoming message's
// fingerprint (aggregate_id:topic:partition:offset) in the processed_messages
// table before dispatching a Handler. A Handler's mutation, its outbox row,
// and the processed_messages insert are committed together by
// OptimisticConcurrencyEngine.Apply; only once that commit succeeds does the
// consumer ack the JetStream message. A crash between publish and ack
// redelivers the message, and the idempotency check turns the redelivery
// into a safe no-op rather than a duplicate mutation.
//
// # Why the outbox instead of publish-then-commit
//
// Publishing before the database transaction commits risks a published
// event for a write that never lands; committing before publishing risks a
// committed write whose event is lost if the process crashes in between.
// The outbox row is written atomically with the write, so publication
// becomes a replayable side effect of already-durable state rather than a
// second source of truth.
//
// # Error classification
//
// A Handler's return value is run through Classify. CategoryRetryable
// messages are nacked for JetStream redelivery; CategoryPermanent and
// CategoryPoison messages are routed to the topic's DLQ instead of retried
// indefinitely, since redelivering a message that can never succeed only
// wastes consumer throughput. See errors.go.
//
// # Circuit breaker
//
// Publisher wraps every broker publish in a gobreaker circuit breaker.
// After consecutive publish failures cross the configured threshold the
// breaker opens and fails fast, giving a struggling NATS cluster room to
// recover instead of being hit with a thundering herd of outbox retries.
//
// # Key components
//
//   - Publisher: Watermill NATS publisher with circuit breaker protection
//     and outbox-derived message IDs for broker-side deduplication
//   - Subscriber: durable JetStream pull consumer
//   - Consumer: idempotency check, Handler dispatch, DLQ routing, ack/nack
//   - OutboxPublisherService: polls and drains outbox_events on an interval
//   - OptimisticConcurrencyEngine: retries a mutation against version
//     conflicts and co-commits its outbox row and processed-message record
//   - EnsureStreams: idempotent JetStream stream provisioning, run once at
//     startup since Publisher, and Subscriber when bound by StreamName,
//     run with AutoProvision disabled
package eventprocessor
