package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// AuditArchiveStore is the narrow read interface the archiver needs from the
// audit store.
type AuditArchiveStore interface {
	// ListBefore returns all entries created strictly before the cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.AuditEntry, error)
}

// ArchiveImpl implements domain.Archiver by querying aged audit entries,
// serializing them to JSONL, and uploading the result to blob storage.
//
// Deletion of archived rows from the primary store is intentionally NOT
// performed here; pruning is a separate, explicit step run after the
// archive has been verified.
type ArchiveImpl struct {
	writer domain.BlobWriter
	audit  AuditArchiveStore
}

// NewArchiver creates an ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, audit AuditArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, audit: audit}
}

// ArchiveAudit serializes all audit entries older than the cutoff to one
// JSONL object. Returns the object path and the number of entries written;
// count zero means nothing was eligible and no object was created.
func (a *ArchiveImpl) ArchiveAudit(ctx context.Context, before time.Time) (string, int, error) {
	entries, err := a.audit.ListBefore(ctx, before)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: list audit entries: %w", err)
	}
	if len(entries) == 0 {
		return "", 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return "", 0, fmt.Errorf("s3blob: encode audit entry %d: %w", e.ID, err)
		}
	}

	path := fmt.Sprintf("audit/%s/audit-before-%s.jsonl",
		before.UTC().Format("2006/01"),
		before.UTC().Format("20060102T150405Z"),
	)
	if err := a.writer.Put(ctx, path, &buf, "application/x-ndjson"); err != nil {
		return "", 0, err
	}

	return path, len(entries), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
