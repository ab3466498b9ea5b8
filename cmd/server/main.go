// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cartographus/internal/config"
	"github.com/tomtom215/cartographus/internal/encryption"
	"github.com/tomtom215/cartographus/internal/eventprocessor"
	"github.com/tomtom215/cartographus/internal/logging"
	"github.com/tomtom215/cartographus/internal/store/postgres"
	"github.com/tomtom215/cartographus/internal/supervisor"
	"github.com/tomtom215/cartographus/internal/supervisor/services"
	"github.com/tomtom215/cartographus/internal/worker"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("fatal startup error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	encKey, err := cfg.DecodedEncryptionKey()
	if err != nil {
		return fmt.Errorf("decode encryption key: %w", err)
	}
	codec, err := encryption.NewCodec(encKey)
	if err != nil {
		return fmt.Errorf("construct pan codec: %w", err)
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	pgStore := postgres.New(pool)

	if err := eventprocessor.EnsureStreams(cfg.KafkaBootstrapServers,
		eventprocessor.SubmissionStreamConfig(),
		eventprocessor.CreditReportStreamConfig(),
	); err != nil {
		return fmt.Errorf("ensure jetstream streams: %w", err)
	}

	publisher, err := eventprocessor.NewPublisher(eventprocessor.DefaultPublisherConfig(cfg.KafkaBootstrapServers), nil)
	if err != nil {
		return fmt.Errorf("construct publisher: %w", err)
	}
	defer publisher.Close()
	publisher.SetCircuitBreaker(eventprocessor.NewCircuitBreaker(eventprocessor.DefaultCircuitBreakerConfig("outbox-publisher")))

	scoringConsumerGroup := cfg.ConsumerGroupID + "-scoring"
	decisionConsumerGroup := cfg.ConsumerGroupID + "-decision"

	scoringSubCfg := eventprocessor.DefaultSubscriberConfig(cfg.KafkaBootstrapServers, scoringConsumerGroup)
	scoringSubCfg.StreamName = eventprocessor.SubmissionStreamConfig().Name
	scoringSub, err := eventprocessor.NewSubscriber(&scoringSubCfg, nil)
	if err != nil {
		return fmt.Errorf("construct scoring subscriber: %w", err)
	}
	defer scoringSub.Close()

	decisionSubCfg := eventprocessor.DefaultSubscriberConfig(cfg.KafkaBootstrapServers, decisionConsumerGroup)
	decisionSubCfg.StreamName = eventprocessor.CreditReportStreamConfig().Name
	decisionSub, err := eventprocessor.NewSubscriber(&decisionSubCfg, nil)
	if err != nil {
		return fmt.Errorf("construct decision subscriber: %w", err)
	}
	defer decisionSub.Close()

	engine := eventprocessor.NewOptimisticConcurrencyEngine(pgStore, cfg.MaxUpdateRetries)

	scoringWorker := worker.NewScoringWorker(engine, codec, pgStore, cfg.OutputTopic, scoringConsumerGroup)
	decisionWorker := worker.NewDecisionWorker(engine)

	scoringConsumer := eventprocessor.NewConsumer(scoringSub, pgStore, publisher, cfg.InputTopic, scoringConsumerGroup, scoringWorker.Handle)
	decisionConsumer := eventprocessor.NewConsumer(decisionSub, pgStore, publisher, cfg.OutputTopic, decisionConsumerGroup, decisionWorker.Handle)

	outboxService := eventprocessor.NewOutboxPublisherService(pgStore, publisher, cfg.PollInterval(), cfg.BatchSize, cfg.MaxRetries)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("construct supervisor tree: %w", err)
	}
	tree.AddPublisherService(outboxService)
	tree.AddScoringService(scoringConsumer)
	tree.AddDecisionService(decisionConsumer)
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
	tree.AddPublisherService(services.NewHTTPServerService(metricsServer, 10*time.Second))

	logger.Info().
		Str("database_url", redactDSN(cfg.DatabaseURL)).
		Str("bus_url", cfg.KafkaBootstrapServers).
		Str("metrics_addr", cfg.MetricsAddr).
		Str("input_topic", cfg.InputTopic).
		Str("output_topic", cfg.OutputTopic).
		Msg("prequalification pipeline starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree stopped: %w", err)
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil {
		for _, svc := range report {
			logger.Warn().Str("service", svc.Name).Msg("service did not stop within shutdown timeout")
		}
	}

	logger.Info().Msg("prequalification pipeline stopped")
	return nil
}

// redactDSN strips credentials from a connection string before it
// reaches a log line; only the database_url's host/path shape is worth
// logging for operational visibility.
func redactDSN(dsn string) string {
	for i := 0; i < len(dsn); i++ {
		if dsn[i] == '@' {
			for j := i - 1; j >= 0; j-- {
				if dsn[j] == '/' {
					return dsn[:j+1] + "***" + dsn[i:]
				}
			}
		}
	}
	return dsn
}
