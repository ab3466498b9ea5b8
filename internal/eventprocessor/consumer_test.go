// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/tomtom215/cartographus/internal/domain"
)

// fakeIdempotencyStore is an in-memory store.IdempotencyStore used to
// exercise Consumer.processOne without a database.
type fakeIdempotencyStore struct {
	mu        sync.Mutex
	processed map[string]bool
	inserted  []*domain.ProcessedMessage
}

func newFakeIdempotencyStore(alreadyProcessed ...string) *fakeIdempotencyStore {
	s := &fakeIdempotencyStore{processed: make(map[string]bool)}
	for _, fp := range alreadyProcessed {
		s.processed[fp] = true
	}
	return s
}

func (s *fakeIdempotencyStore) IsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[fingerprint], nil
}

func (s *fakeIdempotencyStore) InsertProcessedMessage(ctx context.Context, msg *domain.ProcessedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[msg.MessageID] = true
	s.inserted = append(s.inserted, msg)
	return nil
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func newSubmissionMessage(t *testing.T, aggID uuid.UUID, sequence string) *message.Message {
	t.Helper()
	msgID, err := uuid.NewV7()
	if err != nil {
		t.Fatal(err)
	}
	msg := message.NewMessage(msgID.String(), []byte(`{"application_id":"`+aggID.String()+`"}`))
	msg.Metadata.Set("aggregate_id", aggID.String())
	if sequence != "" {
		msg.Metadata.Set("nats_sequence", sequence)
	}
	return msg
}

func TestConsumer_ProcessOne_SkipsAlreadyProcessed(t *testing.T) {
	aggID, _ := uuid.NewV7()
	msg := newSubmissionMessage(t, aggID, "1")
	fp := domain.MessageFingerprint(aggID, "loan_applications_submitted", 0, 1)

	idem := newFakeIdempotencyStore(fp)
	dlqPub := &fakeWMPublisher{}
	handlerCalled := false
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		handlerCalled = true
		return nil
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if handlerCalled {
		t.Error("expected handler not to be invoked for an already-processed fingerprint")
	}
	if !acked(msg) {
		t.Error("expected duplicate delivery to be acked")
	}
	if dlqPub.count() != 0 {
		t.Error("expected no DLQ traffic for a duplicate delivery")
	}
}

func TestConsumer_ProcessOne_NewMessageInvokesHandlerAndAcks(t *testing.T) {
	aggID, _ := uuid.NewV7()
	msg := newSubmissionMessage(t, aggID, "5")

	idem := newFakeIdempotencyStore()
	dlqPub := &fakeWMPublisher{}
	var gotAggID uuid.UUID
	var gotCtx MessageContext
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		gotAggID = id
		gotCtx = mc
		return nil
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if gotAggID != aggID {
		t.Errorf("expected handler to receive aggregate id %s, got %s", aggID, gotAggID)
	}
	if gotCtx.Offset != 5 {
		t.Errorf("expected offset 5 from nats_sequence metadata, got %d", gotCtx.Offset)
	}
	if gotCtx.Topic != "loan_applications_submitted" {
		t.Errorf("unexpected topic in MessageContext: %s", gotCtx.Topic)
	}
	if !acked(msg) {
		t.Error("expected successful handling to ack the message")
	}
}

func TestConsumer_ProcessOne_RetryableErrorNacksWithoutDLQ(t *testing.T) {
	aggID, _ := uuid.NewV7()
	msg := newSubmissionMessage(t, aggID, "1")

	idem := newFakeIdempotencyStore()
	dlqPub := &fakeWMPublisher{}
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		return NewRetryableError("select-application", errors.New("connection reset"))
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if !nacked(msg) {
		t.Error("expected a retryable failure to nack the message for redelivery")
	}
	if acked(msg) {
		t.Error("a nacked message must not also be acked")
	}
	if dlqPub.count() != 0 {
		t.Error("expected no DLQ traffic for a retryable failure")
	}
}

func TestConsumer_ProcessOne_PermanentErrorRoutesToDLQAndAcks(t *testing.T) {
	aggID, _ := uuid.NewV7()
	msg := newSubmissionMessage(t, aggID, "1")

	idem := newFakeIdempotencyStore()
	dlqPub := &fakeWMPublisher{}
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		return NewPermanentError("business-rule", errors.New("fingerprint mismatch"))
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if !acked(msg) {
		t.Error("expected the original message to be acked once routed to the DLQ")
	}
	if dlqPub.count() != 1 {
		t.Fatalf("expected exactly 1 DLQ publish, got %d", dlqPub.count())
	}
	if dlqPub.topics[0] != "loan_applications_submitted_dlq" {
		t.Errorf("expected DLQ topic loan_applications_submitted_dlq, got %s", dlqPub.topics[0])
	}
}

func TestConsumer_ProcessOne_MissingAggregateIDIsPoisonAndAcks(t *testing.T) {
	msgID, _ := uuid.NewV7()
	msg := message.NewMessage(msgID.String(), []byte(`{}`))
	// aggregate_id metadata deliberately omitted.

	idem := newFakeIdempotencyStore()
	dlqPub := &fakeWMPublisher{}
	handlerCalled := false
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		handlerCalled = true
		return nil
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if handlerCalled {
		t.Error("a poison message (no aggregate_id) must never reach the business handler")
	}
	if !acked(msg) {
		t.Error("expected a poison message to be acked so the bus position advances past it")
	}
	if dlqPub.count() != 1 {
		t.Fatalf("expected exactly 1 DLQ publish for a poison message, got %d", dlqPub.count())
	}
}

func TestConsumer_ProcessOne_UnclassifiedErrorIsTreatedAsPoison(t *testing.T) {
	aggID, _ := uuid.NewV7()
	msg := newSubmissionMessage(t, aggID, "1")

	idem := newFakeIdempotencyStore()
	dlqPub := &fakeWMPublisher{}
	handler := func(ctx context.Context, id uuid.UUID, mc MessageContext, payload []byte) error {
		return errors.New("some unwrapped library error")
	}

	c := NewConsumer(nil, idem, &Publisher{publisher: dlqPub}, "loan_applications_submitted", "scoring", handler)
	c.processOne(context.Background(), msg)

	if !acked(msg) {
		t.Error("expected an unclassified error to be treated as poison and acked")
	}
	if dlqPub.count() != 1 {
		t.Errorf("expected unclassified error to route to the DLQ, got %d DLQ publishes", dlqPub.count())
	}
}
