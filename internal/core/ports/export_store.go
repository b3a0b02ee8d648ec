package ports

import (
	"context"
	"time"
)

// ExportStore holds rendered export artifacts for a bounded lifetime.
// Implementations should expire entries on their own; Get for an expired
// or unknown filename returns ok=false, not an error.
type ExportStore interface {
	Put(ctx context.Context, filename string, content []byte, contentType string, ttl time.Duration) error
	Get(ctx context.Context, filename string) (content []byte, contentType string, ok bool, err error)
}
