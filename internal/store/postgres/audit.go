// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package postgres

import (
	"context"
	"fmt"

	"github.com/tomtom215/cartographus/internal/domain"
)

// InsertAuditLog appends a PAN-access record. Retention is deliberately
// not implemented here; no core code ever deletes from audit_log.
func (s *Store) InsertAuditLog(ctx context.Context, entry *domain.AuditLog) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_log (application_id, service_name, operation, accessed_at)
		VALUES ($1,$2,$3,$4)
	`, entry.ApplicationID, entry.ServiceName, string(entry.Operation), entry.AccessedAt)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
