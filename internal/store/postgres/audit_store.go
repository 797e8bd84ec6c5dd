package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// AuditStore implements domain.AuditStore on the audit_log table.
type AuditStore struct {
	q querier
}

// NewAuditStore creates an AuditStore over the given querier.
func NewAuditStore(q querier) *AuditStore {
	return &AuditStore{q: q}
}

// Log appends an entry to the audit log.
func (s *AuditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	const query = `INSERT INTO audit_log (event, detail) VALUES ($1, $2)`
	if detail == nil {
		detail = map[string]any{}
	}
	if _, err := s.q.Exec(ctx, query, event, detail); err != nil {
		return fmt.Errorf("postgres: audit log %s: %w", event, err)
	}
	return nil
}

// List returns a page of audit entries, newest first.
func (s *AuditStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	const query = `
		SELECT id, event, detail, created_at
		FROM audit_log ORDER BY id DESC LIMIT $1 OFFSET $2`
	return s.queryEntries(ctx, query, limit, opts.Offset)
}

// ListBefore returns all entries created strictly before the cutoff, oldest
// first, for archival.
func (s *AuditStore) ListBefore(ctx context.Context, before time.Time) ([]domain.AuditEntry, error) {
	const query = `
		SELECT id, event, detail, created_at
		FROM audit_log WHERE created_at < $1 ORDER BY id`
	return s.queryEntries(ctx, query, before)
}

func (s *AuditStore) queryEntries(ctx context.Context, query string, args ...any) ([]domain.AuditEntry, error) {
	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: query audit_log: %w", err)
	}
	defer rows.Close()

	var list []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Event, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan audit entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Compile-time interface check.
var _ domain.AuditStore = (*AuditStore)(nil)
