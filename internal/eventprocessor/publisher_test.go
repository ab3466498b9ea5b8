// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	natsgo "github.com/nats-io/nats.go"
)

func TestPublisher_PublishSetsMsgIDHeader(t *testing.T) {
	fakePub := &fakeWMPublisher{}
	pub := &Publisher{publisher: fakePub}

	row := newOutboxRow(7, "loan_applications_submitted")
	if err := pub.PublishOutboxEvent(context.Background(), row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fakePub.count() != 1 {
		t.Fatalf("expected 1 message, got %d", fakePub.count())
	}
	got := fakePub.sent[0]
	wantID := "outbox-7"
	if got.UUID != wantID {
		t.Errorf("expected message UUID %q, got %q", wantID, got.UUID)
	}
	if got.Metadata.Get(natsgo.MsgIdHdr) != wantID {
		t.Errorf("expected Nats-Msg-Id header %q, got %q", wantID, got.Metadata.Get(natsgo.MsgIdHdr))
	}
	if got.Metadata.Get("aggregate_id") != row.AggregateID.String() {
		t.Errorf("expected aggregate_id metadata %q, got %q", row.AggregateID.String(), got.Metadata.Get("aggregate_id"))
	}
	if fakePub.topics[0] != row.TopicName {
		t.Errorf("expected topic %q, got %q", row.TopicName, fakePub.topics[0])
	}
}

func TestPublisher_ClosedPublisherRejectsPublish(t *testing.T) {
	fakePub := &fakeWMPublisher{}
	pub := &Publisher{publisher: fakePub}

	if err := pub.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !fakePub.closed {
		t.Error("expected underlying publisher to be closed")
	}

	row := newOutboxRow(1, "loan_applications_submitted")
	err := pub.PublishOutboxEvent(context.Background(), row)
	if err == nil {
		t.Fatal("expected an error publishing through a closed Publisher")
	}
}

func TestPublisher_CircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	fakePub := &fakeWMPublisher{failWith: errors.New("broker down")}
	pub := &Publisher{publisher: fakePub}
	pub.SetCircuitBreaker(NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test-outbox",
		MaxRequests:      2,
		Interval:         0,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}))

	ctx := context.Background()
	row := newOutboxRow(1, "loan_applications_submitted")
	for i := 0; i < 5; i++ {
		if err := pub.PublishOutboxEvent(ctx, row); err == nil {
			t.Fatalf("attempt %d: expected underlying publish failure", i)
		}
	}

	if CircuitBreakerState(pub.circuitBreaker) != "open" {
		t.Fatalf("expected circuit breaker open after 5 consecutive failures, state=%s", CircuitBreakerState(pub.circuitBreaker))
	}

	// Clear the underlying failure; the breaker should still fail fast
	// without reaching the publisher at all.
	fakePub.failWith = nil
	before := fakePub.count()
	if err := pub.PublishOutboxEvent(ctx, row); err == nil {
		t.Fatal("expected circuit breaker to fail fast while OPEN")
	}
	if fakePub.count() != before {
		t.Error("expected no underlying publish call while circuit is OPEN")
	}
}
