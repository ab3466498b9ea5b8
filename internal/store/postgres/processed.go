// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tomtom215/cartographus/internal/domain"
)

// IsProcessed reports whether fingerprint already has a processed_messages
// row, the idempotent consumer's replay check (§4.2 step 3).
func (s *Store) IsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)
	`, fingerprint).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return exists, nil
}

// InsertProcessedMessage records fingerprint as processed, outside of any
// caller-managed transaction. Workers that need the processed_messages
// insert to co-commit with business side-effects pass a
// *domain.ProcessedMessage into TryUpdateApplicationWithVersion instead,
// which calls insertProcessedMessage in the same tx.
func (s *Store) InsertProcessedMessage(ctx context.Context, msg *domain.ProcessedMessage) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertProcessedMessage(ctx, tx, msg); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertProcessedMessage(ctx context.Context, tx pgx.Tx, msg *domain.ProcessedMessage) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO processed_messages
			(message_id, topic_name, partition_num, offset_num, consumer_group, processed_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, msg.MessageID, msg.TopicName, msg.PartitionNum, msg.OffsetNum, msg.ConsumerGroup, msg.ProcessedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Another instance of this consumer group already recorded
			// this fingerprint. The error is not returned here, but
			// Postgres has aborted tx, so the caller's Commit fails and
			// nothing written in tx is kept.
			return nil
		}
		return fmt.Errorf("insert processed message: %w", err)
	}
	return nil
}
