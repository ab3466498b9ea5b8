// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is a row in outbox_events: an intent to publish, created in
// the same transaction as the aggregate mutation that produced it.
type OutboxEvent struct {
	ID            int64
	AggregateID   uuid.UUID
	EventType     string
	Payload       []byte // JSON, verbatim on the wire
	TopicName     string
	PartitionKey  string
	Published     bool
	PublishedAt   *time.Time
	ErrorMessage  *string
	RetryCount    int
	CreatedAt     time.Time
}

// MaxErrorMessageLen is the truncation ceiling applied to a publish
// failure's error text before it is persisted (§4.1).
const MaxErrorMessageLen = 500

// TruncateError clamps an error string to MaxErrorMessageLen runes so a
// single oversized driver error can't bloat the outbox_events row.
func TruncateError(s string) string {
	r := []rune(s)
	if len(r) <= MaxErrorMessageLen {
		return s
	}
	return string(r[:MaxErrorMessageLen])
}

// MessageFingerprint builds the idempotency ledger key: aggregate_id,
// topic, partition, and offset together identify one delivery of one
// event, regardless of how many times the bus redelivers it.
func MessageFingerprint(aggregateID uuid.UUID, topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s:%s:%d:%d", aggregateID, topic, partition, offset)
}

// ProcessedMessage is the idempotency ledger row: presence means a
// consumer group has already observed this offset, on this partition, for
// this aggregate.
type ProcessedMessage struct {
	ID            int64
	MessageID     string // fingerprint: aggregate_id:topic:partition:offset
	TopicName     string
	PartitionNum  int
	OffsetNum     int64
	ConsumerGroup string
	ProcessedAt   time.Time
}

// AuditOperation tags what a service did to a sensitive identifier.
type AuditOperation string

const (
	AuditEncrypt AuditOperation = "ENCRYPT"
	AuditDecrypt AuditOperation = "DECRYPT"
	AuditMask    AuditOperation = "MASK"
)

// AuditLog is an append-only compliance trail entry for PAN access.
type AuditLog struct {
	ID            int64
	ApplicationID uuid.UUID
	ServiceName   string
	Operation     AuditOperation
	AccessedAt    time.Time
}
