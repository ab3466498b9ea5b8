// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL is the persisted-state layout the store package assumes. It
// is applied with IF NOT EXISTS everywhere so Migrate is safe to call on
// every process start.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS applications (
    id                    UUID PRIMARY KEY,
    pan_encrypted         BYTEA NOT NULL,
    pan_hash              CHAR(64) NOT NULL UNIQUE,
    first_name            TEXT NOT NULL,
    last_name             TEXT NOT NULL,
    date_of_birth         DATE NOT NULL,
    email                 TEXT NOT NULL,
    phone_number          TEXT NOT NULL,
    requested_amount      NUMERIC(14,2) NOT NULL,
    annual_income         NUMERIC(14,2) NOT NULL,
    status                VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    score                 INTEGER,
    decision_reason       TEXT,
    max_approved_amount   NUMERIC(14,2),
    version               INTEGER NOT NULL DEFAULT 1,
    created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);

CREATE TABLE IF NOT EXISTS outbox_events (
    id             BIGSERIAL PRIMARY KEY,
    aggregate_id   UUID NOT NULL,
    event_type     TEXT NOT NULL,
    payload        JSONB NOT NULL,
    topic_name     TEXT NOT NULL,
    partition_key  TEXT NOT NULL,
    published      BOOLEAN NOT NULL DEFAULT FALSE,
    published_at   TIMESTAMPTZ,
    error_message  TEXT,
    retry_count    INTEGER NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_outbox_unpublished ON outbox_events(published, created_at);

CREATE TABLE IF NOT EXISTS processed_messages (
    id             BIGSERIAL PRIMARY KEY,
    message_id     VARCHAR(255) NOT NULL UNIQUE,
    topic_name     TEXT NOT NULL,
    partition_num  INTEGER NOT NULL,
    offset_num     BIGINT NOT NULL,
    consumer_group TEXT NOT NULL,
    processed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS audit_log (
    id             BIGSERIAL PRIMARY KEY,
    application_id UUID NOT NULL,
    service_name   TEXT NOT NULL,
    operation      VARCHAR(20) NOT NULL,
    accessed_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the schema. It is idempotent and safe to call
// concurrently from multiple worker instances at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
