// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/store"
)

// DrainOutboxBatch selects up to limit oldest unpublished rows whose
// retry_count < maxRetries. The query runs outside any caller
// transaction, so its FOR UPDATE SKIP LOCKED row locks end when the
// SELECT returns; they do not keep a second publisher instance from
// draining and publishing the same rows. The spec treats a single active
// publisher as the norm.
func (s *Store) DrainOutboxBatch(ctx context.Context, limit, maxRetries int) ([]*domain.OutboxEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, aggregate_id, event_type, payload, topic_name, partition_key,
		       published, published_at, error_message, retry_count, created_at
		FROM outbox_events
		WHERE published = FALSE AND retry_count < $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, maxRetries, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox batch: %w", err)
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		var ev domain.OutboxEvent
		if err := rows.Scan(
			&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.TopicName, &ev.PartitionKey,
			&ev.Published, &ev.PublishedAt, &ev.ErrorMessage, &ev.RetryCount, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox rows: %w", err)
	}
	return events, nil
}

// ApplyOutboxResults commits every row's outcome from one batch cycle in
// a single transaction, per §4.1: "All updates within a cycle are
// committed in one database transaction at the end of the cycle."
func (s *Store) ApplyOutboxResults(ctx context.Context, results []store.OutboxResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgxBatch{}
	for _, r := range results {
		if r.Published {
			batch.Queue(`
				UPDATE outbox_events
				SET published = TRUE, published_at = now(), error_message = NULL
				WHERE id = $1
			`, r.ID)
		} else {
			batch.Queue(`
				UPDATE outbox_events
				SET retry_count = retry_count + 1, error_message = $2
				WHERE id = $1
			`, r.ID, domain.TruncateError(r.ErrMsg))
		}
	}

	if err := batch.Send(ctx, tx); err != nil {
		return fmt.Errorf("apply outbox results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
