// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package supervisor provides process supervision for the prequalification
pipeline using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of the three long-running workers, giving each Erlang/OTP-style
supervision: automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes workers into three branches for failure
isolation:

	RootSupervisor ("prequal-pipeline")
	├── PublisherSupervisor ("outbox-publisher")
	│   └── OutboxPublisherService
	├── ScoringSupervisor ("scoring-worker")
	│   └── ScoringConsumerService
	└── DecisionSupervisor ("decision-worker")
	    └── DecisionConsumerService

This hierarchy ensures that a panic or crash in the decision consumer
does not stop the outbox publisher from continuing to drain committed
events, and vice versa.

# Usage Example

	import (
	    "log/slog"
	    "github.com/tomtom215/cartographus/internal/supervisor"
	)

	func main() {
	    logger := slog.Default()
	    config := supervisor.DefaultTreeConfig()

	    tree, err := supervisor.NewSupervisorTree(logger, config)
	    if err != nil {
	        log.Fatal(err)
	    }

	    tree.AddPublisherService(publisherSvc)
	    tree.AddScoringService(scoringSvc)
	    tree.AddDecisionService(decisionSvc)

	    ctx := context.Background()
	    if err := tree.Serve(ctx); err != nil {
	        log.Printf("Supervisor stopped: %v", err)
	    }
	}

# Configuration

Default values match suture's production-ready defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

# Service Interface

All workers implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (will not be restarted); return an error for
a crash (will be restarted with backoff); return promptly on context
cancellation.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
