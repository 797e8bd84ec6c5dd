package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads immutable objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// Archiver serializes aged records to blob storage. It never deletes rows
// from the primary store; pruning is a separate, explicit operation run
// after an archive has been verified.
type Archiver interface {
	ArchiveAudit(ctx context.Context, before time.Time) (path string, count int, err error)
}
