// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package worker wires the business logic of the two async pipeline
// stages — scoring and decisioning — onto the idempotent consumer
// framework in internal/eventprocessor. Each worker is a thin Handler
// closure plus a constructor; the ordering, dedup, retry, and DLQ
// mechanics live entirely in eventprocessor.Consumer.
package worker
