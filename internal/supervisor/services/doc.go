// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package services adapts components that don't speak suture.Service
// natively onto the interface the supervisor tree expects.
//
// The pipeline has exactly one such component: the Prometheus metrics
// HTTP endpoint. *http.Server exposes ListenAndServe (blocks until the
// listener closes) and Shutdown (drains in-flight requests against a
// context deadline), not Serve(ctx context.Context) error. HTTPServerService
// bridges the two, so the metrics endpoint can be added to the same
// supervisor branch as the outbox publisher and restarted by suture on
// crash like any other service.
package services
