// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package worker

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/eventprocessor"
)

func TestDecisionWorker_Handle_PreApproved(t *testing.T) {
	app := newTestApplication(t, decimal.NewFromInt(900000), decimal.NewFromInt(500000))
	score := 790
	app.Score = &score
	fake := newFakeApplicationStore(app)
	engine := eventprocessor.NewOptimisticConcurrencyEngine(fake, 3)
	worker := NewDecisionWorker(engine)

	evt := domain.ScoreReportEvent{
		ApplicationID:   app.ID.String(),
		CIBILScore:      790,
		AnnualIncome:    "900000",
		RequestedAmount: "500000",
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	err = worker.Handle(context.Background(), app.ID, eventprocessor.MessageContext{}, payload)
	require.NoError(t, err)

	stored := fake.get(app.ID)
	require.Equal(t, domain.StatusPreApproved, stored.Status)
	require.NotNil(t, stored.MaxApprovedAmt)
	require.NotNil(t, stored.DecisionReason)
	require.Equal(t, app.Version+1, stored.Version)
}

func TestDecisionWorker_Handle_RejectedBelowThreshold(t *testing.T) {
	app := newTestApplication(t, decimal.NewFromInt(900000), decimal.NewFromInt(500000))
	score := 600
	app.Score = &score
	fake := newFakeApplicationStore(app)
	engine := eventprocessor.NewOptimisticConcurrencyEngine(fake, 3)
	worker := NewDecisionWorker(engine)

	evt := domain.ScoreReportEvent{
		ApplicationID:   app.ID.String(),
		CIBILScore:      600,
		AnnualIncome:    "900000",
		RequestedAmount: "500000",
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	err = worker.Handle(context.Background(), app.ID, eventprocessor.MessageContext{}, payload)
	require.NoError(t, err)

	stored := fake.get(app.ID)
	require.Equal(t, domain.StatusRejected, stored.Status)
	require.Nil(t, stored.MaxApprovedAmt)
}

func TestDecisionWorker_Handle_TerminalApplicationIsNoOp(t *testing.T) {
	app := newTestApplication(t, decimal.NewFromInt(900000), decimal.NewFromInt(500000))
	app.Status = domain.StatusRejected
	reason := "already decided"
	app.DecisionReason = &reason
	fake := newFakeApplicationStore(app)
	engine := eventprocessor.NewOptimisticConcurrencyEngine(fake, 3)
	worker := NewDecisionWorker(engine)

	evt := domain.ScoreReportEvent{
		ApplicationID:   app.ID.String(),
		CIBILScore:      790, // would otherwise pre-approve; must not flip a terminal status
		AnnualIncome:    "900000",
		RequestedAmount: "500000",
	}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)

	err = worker.Handle(context.Background(), app.ID, eventprocessor.MessageContext{}, payload)
	require.NoError(t, err)

	stored := fake.get(app.ID)
	require.Equal(t, domain.StatusRejected, stored.Status)
	require.Equal(t, "already decided", *stored.DecisionReason)
}

func TestDecisionWorker_Handle_MalformedPayloadIsPoison(t *testing.T) {
	fake := newFakeApplicationStore()
	engine := eventprocessor.NewOptimisticConcurrencyEngine(fake, 3)
	worker := NewDecisionWorker(engine)

	err := worker.Handle(context.Background(), newUUID(t), eventprocessor.MessageContext{}, []byte("not json"))
	require.Error(t, err)
	require.Equal(t, eventprocessor.CategoryPoison, eventprocessor.Classify(err))
}
