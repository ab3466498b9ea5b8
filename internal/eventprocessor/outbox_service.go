// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"context"
	"time"

	"github.com/tomtom215/cartographus/internal/domain"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/metrics"
	"github.com/tomtom215/cartographus/internal/store"
)

// OutboxPublisherService is the suture.Service that drains outbox_events
// on a fixed interval and publishes each row to its topic (§4.1). Rows
// that publish successfully are marked published in one batch
// transaction per cycle; rows that fail are attempted up to maxRetries
// times in all before being parked in place — the publisher never deletes or
// DLQs an outbox row itself.
type OutboxPublisherService struct {
	store        store.OutboxStore
	publisher    *Publisher
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
}

// NewOutboxPublisherService wires an OutboxPublisherService. pollInterval
// and batchSize come from Config.PollInterval/BatchSize; maxRetries from
// Config.MaxRetries (the outbox row's own retry_count ceiling, distinct
// from MaxUpdateRetries which bounds the optimistic concurrency engine).
func NewOutboxPublisherService(s store.OutboxStore, publisher *Publisher, pollInterval time.Duration, batchSize, maxRetries int) *OutboxPublisherService {
	return &OutboxPublisherService{
		store:        s,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
	}
}

// Serve runs the drain-publish-commit cycle until ctx is canceled,
// satisfying suture.Service. ctx is checked between cycles, but the
// cycle in flight passes the same ctx to DrainOutboxBatch and
// ApplyOutboxResults: if shutdown cancels it mid-batch the apply can
// fail, and rows already sent to the broker stay unpublished in
// outbox_events and are published again on a later cycle.
func (s *OutboxPublisherService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *OutboxPublisherService) runCycle(ctx context.Context) {
	start := time.Now()
	logger := logging.WithComponent("outbox-publisher")

	rows, err := s.store.DrainOutboxBatch(ctx, s.batchSize, s.maxRetries)
	if err != nil {
		logger.Error().Err(err).Msg("drain outbox batch failed")
		return
	}
	if len(rows) == 0 {
		return
	}

	results := make([]store.OutboxResult, 0, len(rows))
	var published, failed, parked int

	for _, row := range rows {
		if err := s.publisher.PublishOutboxEvent(ctx, row); err != nil {
			results = append(results, store.OutboxResult{
				ID:        row.ID,
				Published: false,
				ErrMsg:    domain.TruncateError(err.Error()),
			})
			failed++
			if row.RetryCount+1 >= s.maxRetries {
				parked++
			}
			continue
		}
		results = append(results, store.OutboxResult{ID: row.ID, Published: true})
		published++
	}

	if err := s.store.ApplyOutboxResults(ctx, results); err != nil {
		logger.Error().Err(err).Msg("apply outbox results failed")
		return
	}

	metrics.RecordOutboxCycle(time.Since(start), published, failed)
	for i := 0; i < parked; i++ {
		metrics.RecordOutboxParked()
	}
	metrics.SetOutboxBacklog(len(rows) - published)
}
