// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/store"
)

// newUUID generates a fresh aggregate id for tests that need one not
// already tied to a stored application.
func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id
}

// fakeApplicationStore is an in-memory store.ApplicationStore used to
// exercise the workers' handlers without a database. It also satisfies
// store.AuditStore so ScoringWorker's audit insert has somewhere to go.
type fakeApplicationStore struct {
	mu           sync.Mutex
	applications map[uuid.UUID]*domain.Application
	auditLogs    []*domain.AuditLog

	// forceVersionConflictOnce, if > 0, makes the next N
	// TryUpdateApplicationWithVersion calls fail with
	// store.ErrVersionConflict regardless of the supplied version.
	forceVersionConflictOnce int
}

func newFakeApplicationStore(apps ...*domain.Application) *fakeApplicationStore {
	s := &fakeApplicationStore{applications: make(map[uuid.UUID]*domain.Application)}
	for _, a := range apps {
		clone := *a
		s.applications[a.ID] = &clone
	}
	return s
}

func (s *fakeApplicationStore) InsertApplication(ctx context.Context, app *domain.Application, outboxEvent *domain.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *app
	s.applications[app.ID] = &clone
	return nil
}

func (s *fakeApplicationStore) SelectApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *app
	return &clone, nil
}

func (s *fakeApplicationStore) TryUpdateApplicationWithVersion(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	mutate func(app *domain.Application) error,
	outboxEvent *domain.OutboxEvent,
	processedMessage *domain.ProcessedMessage,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forceVersionConflictOnce > 0 {
		s.forceVersionConflictOnce--
		return store.ErrVersionConflict
	}

	app, ok := s.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	if app.Version != expectedVersion {
		return store.ErrVersionConflict
	}

	clone := *app
	if err := mutate(&clone); err != nil {
		return err
	}
	clone.Version = app.Version + 1
	s.applications[id] = &clone
	return nil
}

func (s *fakeApplicationStore) InsertAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *fakeApplicationStore) get(id uuid.UUID) *domain.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[id]
	if !ok {
		return nil
	}
	clone := *app
	return &clone
}
