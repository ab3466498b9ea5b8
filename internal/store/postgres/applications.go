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
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/store"
)

const uniqueViolation = "23505"

// InsertApplication inserts a new application and its outbox row
// atomically: invariant 1 (§8) requires the application row and its
// outbox row to commit together or not at all.
func (s *Store) InsertApplication(ctx context.Context, app *domain.Application, outboxEvent *domain.OutboxEvent) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO applications
			(id, pan_encrypted, pan_hash, first_name, last_name, date_of_birth,
			 email, phone_number, requested_amount, annual_income, status,
			 version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		app.ID, app.PANEncrypted, app.PANHash, app.FirstName, app.LastName, app.DateOfBirth,
		app.Email, app.PhoneNumber, app.RequestedAmount, app.AnnualIncome, string(app.Status),
		app.Version, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return store.ErrDuplicateFingerprint
		}
		return fmt.Errorf("insert application: %w", err)
	}

	if outboxEvent != nil {
		if err := insertOutboxEvent(ctx, tx, outboxEvent); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SelectApplication reads an application by id.
func (s *Store) SelectApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, pan_encrypted, pan_hash, first_name, last_name, date_of_birth,
		       email, phone_number, requested_amount, annual_income, status,
		       score, decision_reason, max_approved_amount, version, created_at, updated_at
		FROM applications WHERE id = $1
	`, id)

	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select application: %w", err)
	}
	return app, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var app domain.Application
	var status string
	var maxApproved decimal.NullDecimal

	err := row.Scan(
		&app.ID, &app.PANEncrypted, &app.PANHash, &app.FirstName, &app.LastName, &app.DateOfBirth,
		&app.Email, &app.PhoneNumber, &app.RequestedAmount, &app.AnnualIncome, &status,
		&app.Score, &app.DecisionReason, &maxApproved, &app.Version, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.Status = domain.Status(status)
	if maxApproved.Valid {
		app.MaxApprovedAmt = &maxApproved.Decimal
	}
	return &app, nil
}

// TryUpdateApplicationWithVersion reads the current row, applies mutate in
// memory, and issues a single UPDATE gated on expectedVersion, co-committing
// outboxEvent and processedMessage (both optional) in the same
// transaction. The whole read-mutate-write happens inside one transaction
// so a concurrent writer's commit is visible as a version mismatch rather
// than a lost update.
func (s *Store) TryUpdateApplicationWithVersion(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	mutate func(app *domain.Application) error,
	outboxEvent *domain.OutboxEvent,
	processedMessage *domain.ProcessedMessage,
) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT id, pan_encrypted, pan_hash, first_name, last_name, date_of_birth,
		       email, phone_number, requested_amount, annual_income, status,
		       score, decision_reason, max_approved_amount, version, created_at, updated_at
		FROM applications WHERE id = $1
	`, id)

	app, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select application for update: %w", err)
	}

	if app.Version != expectedVersion {
		return store.ErrVersionConflict
	}

	if err := mutate(app); err != nil {
		return fmt.Errorf("apply mutation: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE applications
		SET status = $1, score = $2, decision_reason = $3, max_approved_amount = $4,
		    version = $5, updated_at = now()
		WHERE id = $6 AND version = $7
	`, string(app.Status), app.Score, app.DecisionReason, app.MaxApprovedAmt,
		expectedVersion+1, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrVersionConflict
	}

	if outboxEvent != nil {
		if err := insertOutboxEvent(ctx, tx, outboxEvent); err != nil {
			return err
		}
	}
	if processedMessage != nil {
		if err := insertProcessedMessage(ctx, tx, processedMessage); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, ev *domain.OutboxEvent) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events
			(aggregate_id, event_type, payload, topic_name, partition_key, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ev.AggregateID, ev.EventType, ev.Payload, ev.TopicName, ev.PartitionKey, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
