// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tomtom215/cartographus/internal/store"
)

// Store implements store.Store against a pgxpool.Pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an already-connected pool. Call Migrate separately; New does
// not touch the schema.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pool, e.g. for health checks.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

var _ store.Store = (*Store)(nil)
