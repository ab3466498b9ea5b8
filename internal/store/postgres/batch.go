// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// pgxBatch is a thin wrapper over pgx.Batch for queueing a cycle's worth
// of outbox updates and sending them as one round-trip, grounded on
// alex-bogatiuk-metapus's use of pgx.Batch + tx.SendBatch for the same
// "many independent writes, one round-trip" shape.
type pgxBatch struct {
	batch pgx.Batch
}

func (b *pgxBatch) Queue(sql string, args ...any) {
	b.batch.Queue(sql, args...)
}

func (b *pgxBatch) Send(ctx context.Context, tx pgx.Tx) error {
	results := tx.SendBatch(ctx, &b.batch)
	defer results.Close()

	for i := 0; i < b.batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}
