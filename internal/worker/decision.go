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
	"github.com/tomtom215/cartographus/internal/eventprocessor"
)

// DecisionWorker is the business logic behind the decision stage
// (§4.5). It decodes a ScoreReportEvent, runs the pure Decide function,
// and moves the Application row to its terminal state under optimistic
// locking. It emits no outbox event of its own: the decision is the
// last stage of the pipeline.
type DecisionWorker struct {
	engine *eventprocessor.OptimisticConcurrencyEngine
}

// NewDecisionWorker wires a DecisionWorker against engine.
func NewDecisionWorker(engine *eventprocessor.OptimisticConcurrencyEngine) *DecisionWorker {
	return &DecisionWorker{engine: engine}
}

// Handle implements eventprocessor.Handler.
func (w *DecisionWorker) Handle(ctx context.Context, aggregateID uuid.UUID, msgCtx eventprocessor.MessageContext, payload []byte) error {
	var evt domain.ScoreReportEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode score report event: %w", err)
	}

	annualIncome, err := decimal.NewFromString(evt.AnnualIncome)
	if err != nil {
		return fmt.Errorf("parse annual_income: %w", err)
	}
	requestedAmount, err := decimal.NewFromString(evt.RequestedAmount)
	if err != nil {
		return fmt.Errorf("parse requested_amount: %w", err)
	}
	monthlyIncome := annualIncome.Div(decimal.NewFromInt(12))

	decision := domain.Decide(monthlyIncome, requestedAmount, evt.CIBILScore)

	now := time.Now().UTC()
	processedMessage := &domain.ProcessedMessage{
		MessageID:     msgCtx.Fingerprint,
		TopicName:     msgCtx.Topic,
		PartitionNum:  msgCtx.Partition,
		OffsetNum:     msgCtx.Offset,
		ConsumerGroup: msgCtx.ConsumerGroup,
		ProcessedAt:   now,
	}

	return w.engine.Apply(ctx, aggregateID, func(app *domain.Application) error {
		// A terminal status is never revised (§3 invariant). Reaching
		// this mutate callback at all means the idempotency ledger
		// hadn't yet recorded this fingerprint when the check ran
		// (e.g. the loser of a concurrent update in scenario #6,
		// retrying after the winner already committed); treat the
		// no-op as success rather than re-deciding.
		if app.Status.Terminal() {
			return nil
		}
		app.Status = decision.Status
		app.DecisionReason = &decision.Reason
		app.MaxApprovedAmt = decision.MaxApprovedAmt
		return nil
	}, nil, processedMessage)
}
