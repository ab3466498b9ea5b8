// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/encryption"
	"github.com/tomtom215/cartographus/internal/eventprocessor"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/store"
)

// ScoringWorker is the business logic behind the credit-scoring stage
// (§4.4). It decodes a SubmissionEvent, runs the pure Score function,
// writes the score onto the Application row, and emits a
// ScoreReportEvent through the outbox — all co-committed with the
// processed_messages row via the optimistic concurrency engine, per the
// idempotent consumer protocol (§4.2).
type ScoringWorker struct {
	engine        *eventprocessor.OptimisticConcurrencyEngine
	codec         *encryption.Codec
	audit         store.AuditStore
	outputTopic   string
	consumerGroup string
}

// NewScoringWorker wires a ScoringWorker. engine must be constructed
// against the same store as the consumer's idempotency ledger.
func NewScoringWorker(engine *eventprocessor.OptimisticConcurrencyEngine, codec *encryption.Codec, audit store.AuditStore, outputTopic, consumerGroup string) *ScoringWorker {
	return &ScoringWorker{
		engine:        engine,
		codec:         codec,
		audit:         audit,
		outputTopic:   outputTopic,
		consumerGroup: consumerGroup,
	}
}

// Handle implements eventprocessor.Handler. Decode failures are returned
// unwrapped, which eventprocessor.Classify treats as CategoryPoison —
// exactly the behavior the spec wants for a payload the consumer cannot
// even parse.
func (w *ScoringWorker) Handle(ctx context.Context, aggregateID uuid.UUID, msgCtx eventprocessor.MessageContext, payload []byte) error {
	var evt domain.SubmissionEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode submission event: %w", err)
	}

	annualIncome, err := decimal.NewFromString(evt.AnnualIncome)
	if err != nil {
		return fmt.Errorf("parse annual_income: %w", err)
	}
	requestedAmount, err := decimal.NewFromString(evt.RequestedAmount)
	if err != nil {
		return fmt.Errorf("parse requested_amount: %w", err)
	}

	panCiphertext, err := w.codec.DecodeWire(evt.PANNumberEncrypted)
	if err != nil {
		return fmt.Errorf("decode pan wire format: %w", err)
	}
	panPlaintext, err := w.codec.Decrypt(panCiphertext)
	if err != nil {
		return fmt.Errorf("decrypt pan: %w", err)
	}
	w.recordAudit(ctx, aggregateID)

	// product_type is not part of the submission wire schema (§6); the
	// original source material never surfaced the field past intake, so
	// every application scores as PERSONAL. See DESIGN.md.
	score := domain.Score(aggregateID, panPlaintext, annualIncome, domain.ProductPersonal)

	reportEvent := domain.ScoreReportEvent{
		ApplicationID:           evt.ApplicationID,
		PANNumber:               evt.PANNumberEncrypted,
		ApplicantName:           evt.FirstName + " " + evt.LastName,
		CIBILScore:              score,
		AnnualIncome:            evt.AnnualIncome,
		RequestedAmount:         requestedAmount.StringFixed(2),
		CreditReportGeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	reportPayload, err := json.Marshal(reportEvent)
	if err != nil {
		return fmt.Errorf("marshal score report event: %w", err)
	}

	now := time.Now().UTC()
	outboxEvent := &domain.OutboxEvent{
		AggregateID:  aggregateID,
		EventType:    "credit_report_generated",
		Payload:      reportPayload,
		TopicName:    w.outputTopic,
		PartitionKey: aggregateID.String(),
		CreatedAt:    now,
	}
	processedMessage := &domain.ProcessedMessage{
		MessageID:     msgCtx.Fingerprint,
		TopicName:     msgCtx.Topic,
		PartitionNum:  msgCtx.Partition,
		OffsetNum:     msgCtx.Offset,
		ConsumerGroup: msgCtx.ConsumerGroup,
		ProcessedAt:   now,
	}

	return w.engine.Apply(ctx, aggregateID, func(app *domain.Application) error {
		app.Score = &score
		return nil
	}, outboxEvent, processedMessage)
}

// recordAudit appends a best-effort compliance trail entry for the PAN
// decrypt this handler just performed. Retention and exact content are
// out of scope (§9); a failure here never blocks scoring, since the
// audit trail's lifecycle is explicitly decoupled from processing (§3).
func (w *ScoringWorker) recordAudit(ctx context.Context, aggregateID uuid.UUID) {
	entry := &domain.AuditLog{
		ApplicationID: aggregateID,
		ServiceName:   "scoring-worker",
		Operation:     domain.AuditDecrypt,
		AccessedAt:    time.Now().UTC(),
	}
	if err := w.audit.InsertAuditLog(ctx, entry); err != nil {
		logging.WithComponent(w.consumerGroup).Warn().Err(err).Str("aggregate_id", aggregateID.String()).Msg("audit log insert failed")
	}
}
