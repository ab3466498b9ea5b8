// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/store"
	"github.com/tomtom215/cartographus/internal/testinfra"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	testinfra.SkipIfNoDocker(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("prequal_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, DefaultPoolConfig(dsn))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))

	return New(pool)
}

func sampleApplication(t *testing.T) *domain.Application {
	t.Helper()
	app, err := domain.NewApplication(
		[]byte("ciphertext"), fmt.Sprintf("%064d", time.Now().UnixNano()),
		"Ada", "Lovelace", time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		"ada@example.com", "555-0100",
		decimal.NewFromInt(500000), decimal.NewFromInt(900000),
		time.Now().UTC(),
	)
	require.NoError(t, err)
	return app
}

func TestStore_InsertAndSelectApplication(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := sampleApplication(t)
	require.NoError(t, s.InsertApplication(ctx, app, nil))

	fetched, err := s.SelectApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, app.PANHash, fetched.PANHash)
	require.Equal(t, domain.StatusPending, fetched.Status)
	require.Equal(t, 1, fetched.Version)
}

func TestStore_InsertApplication_DuplicateFingerprint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := sampleApplication(t)
	require.NoError(t, s.InsertApplication(ctx, app, nil))

	dup := sampleApplication(t)
	dup.PANHash = app.PANHash

	err := s.InsertApplication(ctx, dup, nil)
	require.ErrorIs(t, err, store.ErrDuplicateFingerprint)
}

func TestStore_TryUpdateApplicationWithVersion_Succeeds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := sampleApplication(t)
	require.NoError(t, s.InsertApplication(ctx, app, nil))

	err := s.TryUpdateApplicationWithVersion(ctx, app.ID, 1, func(a *domain.Application) error {
		a.Status = domain.StatusPreApproved
		score := 790
		a.Score = &score
		return nil
	}, nil, nil)
	require.NoError(t, err)

	fetched, err := s.SelectApplication(ctx, app.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPreApproved, fetched.Status)
	require.Equal(t, 2, fetched.Version)
}

func TestStore_TryUpdateApplicationWithVersion_ConflictOnStaleVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := sampleApplication(t)
	require.NoError(t, s.InsertApplication(ctx, app, nil))

	// Advance the row to version 2 behind the caller's back.
	require.NoError(t, s.TryUpdateApplicationWithVersion(ctx, app.ID, 1, func(a *domain.Application) error {
		a.Status = domain.StatusRejected
		return nil
	}, nil, nil))

	err := s.TryUpdateApplicationWithVersion(ctx, app.ID, 1, func(a *domain.Application) error {
		a.Status = domain.StatusManualReview
		return nil
	}, nil, nil)
	require.ErrorIs(t, err, store.ErrVersionConflict)
}

func TestStore_OutboxDrainAndApplyResults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	app := sampleApplication(t)
	outboxEvent := &domain.OutboxEvent{
		AggregateID:  app.ID,
		EventType:    "application_submitted",
		Payload:      []byte(`{"application_id":"` + app.ID.String() + `"}`),
		TopicName:    domain.TopicSubmission,
		PartitionKey: app.ID.String(),
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.InsertApplication(ctx, app, outboxEvent))

	batch, err := s.DrainOutboxBatch(ctx, 10, 5)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.False(t, batch[0].Published)

	require.NoError(t, s.ApplyOutboxResults(ctx, []store.OutboxResult{
		{ID: batch[0].ID, Published: true},
	}))

	remaining, err := s.DrainOutboxBatch(ctx, 10, 5)
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestStore_IdempotencyLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fingerprint := uuid.NewString() + ":topic:0:1"

	processed, err := s.IsProcessed(ctx, fingerprint)
	require.NoError(t, err)
	require.False(t, processed)

	require.NoError(t, s.InsertProcessedMessage(ctx, &domain.ProcessedMessage{
		MessageID:     fingerprint,
		TopicName:     domain.TopicSubmission,
		PartitionNum:  0,
		OffsetNum:     1,
		ConsumerGroup: "scoring-worker",
		ProcessedAt:   time.Now().UTC(),
	}))

	processed, err = s.IsProcessed(ctx, fingerprint)
	require.NoError(t, err)
	require.True(t, processed)
}
