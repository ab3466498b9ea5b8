// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package store defines the typed data-access interfaces the three
// workers depend on. internal/store/postgres provides the pgx/v5
// implementation; workers are constructed against these interfaces so
// tests can supply fakes without a database.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tomtom215/cartographus/internal/domain"
)

// ErrNotFound is returned when a lookup by id or fingerprint matches no row.
var ErrNotFound = errors.New("store: not found")

// ErrVersionConflict is returned by TryUpdateApplicationWithVersion when
// the row's version no longer matches the caller's expected version.
var ErrVersionConflict = errors.New("store: version conflict")

// ErrDuplicateFingerprint is returned by InsertApplication when pan_hash
// already exists on another row.
var ErrDuplicateFingerprint = errors.New("store: duplicate fingerprint")

// ApplicationStore persists the Application aggregate and its
// transactional outbox co-commits.
type ApplicationStore interface {
	// InsertApplication inserts a new application and its outbox row in
	// one transaction. Returns ErrDuplicateFingerprint if pan_hash
	// collides with an existing row.
	InsertApplication(ctx context.Context, app *domain.Application, outboxEvent *domain.OutboxEvent) error

	// SelectApplication reads an application by id. Returns ErrNotFound
	// if no row exists.
	SelectApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error)

	// TryUpdateApplicationWithVersion applies mutate to a freshly-read
	// copy of the application and issues a single UPDATE gated on the
	// expected version, co-committing outboxEvent (if non-nil) and a
	// processed_messages row (if non-nil) in the same transaction.
	// Returns ErrVersionConflict if the row's version moved under it;
	// the caller is expected to retry.
	TryUpdateApplicationWithVersion(
		ctx context.Context,
		id uuid.UUID,
		expectedVersion int,
		mutate func(app *domain.Application) error,
		outboxEvent *domain.OutboxEvent,
		processedMessage *domain.ProcessedMessage,
	) error
}

// OutboxResult is the per-row outcome of one batch cycle's publish
// attempts, applied together at the end of the cycle.
type OutboxResult struct {
	ID        int64
	Published bool
	ErrMsg    string // empty when Published is true
}

// OutboxStore is the Outbox Publisher's view of the store: draining
// unpublished rows and committing a batch cycle's results.
type OutboxStore interface {
	// DrainOutboxBatch selects up to limit oldest unpublished rows whose
	// retry_count < maxRetries, ordered by created_at ascending.
	DrainOutboxBatch(ctx context.Context, limit, maxRetries int) ([]*domain.OutboxEvent, error)

	// ApplyOutboxResults commits every row's outcome from one batch
	// cycle in a single transaction: published rows get
	// published=true/published_at=now/error_message=null; failed rows
	// get retry_count+1 and a truncated error_message.
	ApplyOutboxResults(ctx context.Context, results []OutboxResult) error
}

// IdempotencyStore is the idempotent consumer's ledger.
type IdempotencyStore interface {
	// IsProcessed reports whether fingerprint already has a
	// processed_messages row.
	IsProcessed(ctx context.Context, fingerprint string) (bool, error)

	// InsertProcessedMessage records fingerprint as processed in its own
	// transaction. Workers that need the record co-committed with their
	// business side-effects pass it to TryUpdateApplicationWithVersion
	// instead.
	InsertProcessedMessage(ctx context.Context, msg *domain.ProcessedMessage) error
}

// AuditStore records PAN access.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry *domain.AuditLog) error
}

// Store is the union every worker is constructed against.
type Store interface {
	ApplicationStore
	OutboxStore
	IdempotencyStore
	AuditStore
}
