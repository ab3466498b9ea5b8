// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eventprocessor

import (
	"fmt"

	natsgo "github.com/nats-io/nats.go"
)

// EnsureStreams connects to url and idempotently creates (or updates)
// the JetStream streams backing the submission and credit-report
// topics. Publisher runs with AutoProvision disabled, and so does
// Subscriber whenever its StreamName is set (cmd/server sets it for
// both consumers), so something has to own stream creation explicitly — this
// is that something, called once at process start before any
// Publisher or Subscriber is constructed.
func EnsureStreams(url string, streams ...StreamConfig) error {
	nc, err := natsgo.Connect(url)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return fmt.Errorf("get jetstream context: %w", err)
	}

	for _, cfg := range streams {
		streamCfg := &natsgo.StreamConfig{
			Name:       cfg.Name,
			Subjects:   cfg.Subjects,
			MaxAge:     cfg.MaxAge,
			MaxBytes:   cfg.MaxBytes,
			MaxMsgs:    cfg.MaxMsgs,
			Duplicates: cfg.DuplicateWindow,
			Replicas:   cfg.Replicas,
			Storage:    natsgo.FileStorage,
		}

		if _, err := js.StreamInfo(cfg.Name); err != nil {
			if _, err := js.AddStream(streamCfg); err != nil {
				return fmt.Errorf("create stream %s: %w", cfg.Name, err)
			}
			continue
		}
		if _, err := js.UpdateStream(streamCfg); err != nil {
			return fmt.Errorf("update stream %s: %w", cfg.Name, err)
		}
	}

	return nil
}
