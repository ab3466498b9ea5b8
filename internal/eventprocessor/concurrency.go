// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/store"
)

// OptimisticConcurrencyEngine retries a mutate-and-update cycle against
// an ApplicationStore up to maxRetries times on store.ErrVersionConflict,
// re-reading the row between attempts. It is the one place callers
// reach for read-mutate-write against the Application aggregate; every
// worker goes through it rather than calling
// TryUpdateApplicationWithVersion directly.
type OptimisticConcurrencyEngine struct {
	store      store.ApplicationStore
	maxRetries int
}

// NewOptimisticConcurrencyEngine constructs an engine bound to store,
// retrying up to maxRetries times before giving up.
func NewOptimisticConcurrencyEngine(s store.ApplicationStore, maxRetries int) *OptimisticConcurrencyEngine {
	return &OptimisticConcurrencyEngine{store: s, maxRetries: maxRetries}
}

// Apply reads the application by id, applies mutate to it, and issues a
// versioned update co-committing outboxEvent and processedMessage (both
// may be nil) in one transaction. On store.ErrVersionConflict it
// re-reads the row and retries, up to maxRetries retries after the first
// attempt (maxRetries+1 attempts in all).
//
// Errors are always returned pre-classified:
//   - the initial read missing the row is a *PermanentError (the
//     aggregate this message names does not exist and never will)
//   - any other read failure, or retry exhaustion, is a *RetryableError
//   - mutate's own error is returned unwrapped, since mutate is
//     expected to return its own classified error when it fails
func (e *OptimisticConcurrencyEngine) Apply(
	ctx context.Context,
	id uuid.UUID,
	mutate func(app *domain.Application) error,
	outboxEvent *domain.OutboxEvent,
	processedMessage *domain.ProcessedMessage,
) error {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		app, err := e.store.SelectApplication(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return NewPermanentError("select-application", err)
			}
			return NewRetryableError("select-application", err)
		}

		clone := *app
		if err := mutate(&clone); err != nil {
			return err
		}

		err = e.store.TryUpdateApplicationWithVersion(ctx, id, app.Version, func(a *domain.Application) error {
			*a = clone
			return nil
		}, outboxEvent, processedMessage)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return NewRetryableError("update-application", err)
		}
		lastErr = err
	}

	return NewRetryableError("update-application",
		fmt.Errorf("exhausted %d attempts, last error: %w", e.maxRetries+1, lastErr))
}
