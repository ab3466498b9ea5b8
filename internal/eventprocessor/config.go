// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"time"
)

// PublisherConfig holds the watermill NATS publisher's JetStream settings.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,            // Nats-Msg-Id set to "outbox-<row id>" by PublishOutboxEvent for broker-side dedup
	}
}

// SubscriberConfig holds the watermill NATS subscriber's JetStream settings
// for one of the two consumers (scoring, decision).
type SubscriberConfig struct {
	URL            string
	DurableName    string
	QueueGroup     string
	AckWaitTimeout time.Duration
	MaxDeliver     int
	MaxAckPending  int
	CloseTimeout   time.Duration
	MaxReconnects  int
	ReconnectWait  time.Duration
	// StreamName is the JetStream stream to bind to. Optional: when it is
	// empty NewSubscriber leaves AutoProvision on; binding by name avoids
	// relying on auto-provisioning in a multi-consumer-group topology.
	StreamName string
	// SubscribersCount is the number of parallel subscription instances
	// watermill opens for this durable. Kept at 1: the idempotent
	// consumer's ordering guarantee (§5) requires strictly sequential
	// per-partition processing, which a second subscriber instance
	// would violate.
	SubscribersCount int
}

// DefaultSubscriberConfig returns production defaults for a subscriber,
// parameterized by the durable consumer group name.
func DefaultSubscriberConfig(url, durableName string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurableName:      durableName,
		QueueGroup:       durableName,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,    // upstream retry visibility only; the idempotency ledger is authoritative
		MaxAckPending:    1000, // flow control
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		SubscribersCount: 1,
	}
}

// StreamConfig defines a topic's JetStream stream settings.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// SubmissionStreamConfig returns the stream configuration for the
// application-submitted topic (and its dead letter sibling).
func SubmissionStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "LOAN_APPLICATIONS_SUBMITTED",
		Subjects:        []string{"loan_applications_submitted", "loan_applications_submitted_dlq"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 * 1024 * 1024 * 1024,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// CreditReportStreamConfig returns the stream configuration for the
// credit-report-generated topic (and its dead letter sibling).
func CreditReportStreamConfig() StreamConfig {
	return StreamConfig{
		Name:            "CREDIT_REPORTS_GENERATED",
		Subjects:        []string{"credit_reports_generated", "credit_reports_generated_dlq"},
		MaxAge:          7 * 24 * time.Hour,
		MaxBytes:        1 * 1024 * 1024 * 1024,
		MaxMsgs:         -1,
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// CircuitBreakerConfig holds the outbox publisher's circuit breaker
// tunables. Defaults match the spec's literal contract: 5 consecutive
// failures open the circuit, 30s in OPEN before probing, 2 consecutive
// successes in HALF_OPEN close it.
//
// MaxRequests/Interval/Timeout are gobreaker's own settings names;
// OpenTimeout and SuccessThreshold mirror them under the spec's
// vocabulary so callers can read either. NewCircuitBreaker reads the
// gobreaker-named fields plus FailureThreshold, never OpenTimeout or
// SuccessThreshold, so DefaultCircuitBreakerConfig keeps both in sync.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of trial requests allowed in HALF_OPEN;
	// gobreaker closes the circuit once all of them succeed, so this
	// equals SuccessThreshold.
	MaxRequests uint32
	// Interval is how often CLOSED-state counts reset to zero. Zero
	// means never, which is required for a pure consecutive-failure
	// trip condition.
	Interval time.Duration
	// Timeout is how long the circuit stays OPEN before probing again.
	Timeout time.Duration

	FailureThreshold uint32
	OpenTimeout      time.Duration
	SuccessThreshold uint32
}

// DefaultCircuitBreakerConfig returns the spec's production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      2,
		Interval:         0,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		SuccessThreshold: 2,
	}
}
