// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package services adapts components with non-suture lifecycles
// (ListenAndServe/Shutdown) onto the suture.Service interface the
// supervisor tree expects. The pipeline's only such component is the
// Prometheus metrics endpoint; Watermill's Consumer/OutboxPublisherService
// already satisfy suture.Service directly and need no wrapper.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods, letting
// HTTPServerService be tested against a fake without a real listener.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService wraps an HTTP server as a supervised service,
// translating ListenAndServe's blocking-call lifecycle into suture's
// context-aware Serve. Used to run the Prometheus /metrics endpoint
// under the same supervisor branch as the outbox publisher.
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewHTTPServerService wraps server with a bounded graceful-shutdown
// window. shutdownTimeout <= 0 falls back to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPServerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            "http-server",
	}
}

// Serve implements suture.Service: start ListenAndServe in a goroutine,
// then wait for either it to fail or ctx to be canceled, in which case
// Shutdown is given shutdownTimeout to drain in-flight scrapes.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()

		if err := h.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer; suture uses it to label log lines.
func (h *HTTPServerService) String() string {
	return h.name
}
