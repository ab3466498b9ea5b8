// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to manage Docker containers for integration tests,
// providing realistic testing environments that closely match production.
//
// # Postgres Container
//
// The store/postgres package's integration tests spin up a real Postgres
// instance per test run and apply the schema migration against it before
// exercising the store implementation:
//
//	func TestStore_Integration(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//
//	    ctx := context.Background()
//	    pgContainer, err := postgres.Run(ctx, "postgres:16-alpine")
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pgContainer)
//
//	    pool, err := pgxpool.New(ctx, dsn)
//	    // ... run the store/postgres Migrate, then exercise ApplicationStore/OutboxStore
//	}
//
// # Benefits Over Mocks
//
// Using a real database provides several advantages over a mocked
// store.ApplicationStore:
//   - Tests validate the actual SQL, including FOR UPDATE SKIP LOCKED and
//     the version-gated UPDATE that implements optimistic concurrency
//   - No mock drift between the interface and what Postgres actually does
//     with a given query
//   - Tests run against a production-equivalent engine
//
// # CI Considerations
//
// These tests require Docker and network access. In CI:
//   - Self-hosted runners have Docker pre-installed
//   - Container images are cached between runs
//   - Tests are skipped gracefully if Docker is unavailable
//
// # Network Requirements
//
// First run may need to download container images. Subsequent runs use cached images.
package testinfra
