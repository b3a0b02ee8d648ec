package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
)

// LogRepository defines the narrow store contract the engine needs:
// predicate/sort/paginate reads, grouped counts, one write path and the
// bulk retention delete. Every read and the delete are tenant-scoped by an
// explicit argument so scoping can never be bypassed by filter content.
type LogRepository interface {
	Create(ctx context.Context, entry *log.LogEntry) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error)
	// List returns the page selected by filter.Page/filter.PageSize,
	// ordered by created_at descending.
	List(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) ([]*log.LogEntry, error)
	// Count returns the number of matching entries ignoring pagination.
	Count(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) (int, error)
	// ListAll returns up to limit matching entries ignoring pagination,
	// ordered by created_at descending. Used by the export path.
	ListAll(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter, limit int) ([]*log.LogEntry, error)
	CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error)
	CountBySeverity(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	CountByModule(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	// DeleteOlderThan removes entries created before cutoff, optionally
	// scoped to one tenant, and returns the number removed.
	DeleteOlderThan(ctx context.Context, tenantID *uuid.UUID, cutoff time.Time) (int64, error)
}

// LogService defines the ingestion, query, aggregation and cleanup
// operations exposed to collaborators.
type LogService interface {
	Log(ctx context.Context, tenantID uuid.UUID, req *log.CreateLogEntryRequest) (*log.LogEntry, error)
	GetLog(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error)
	ListLogs(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) (*log.LogEntryList, error)
	GetStats(ctx context.Context, tenantID uuid.UUID) (*log.LogStats, error)
	CleanupOldEntries(ctx context.Context, tenantID *uuid.UUID, olderThan time.Duration) (int64, error)
}

// ExportService materializes a filtered record set into a downloadable
// artifact and serves it back until it expires.
type ExportService interface {
	Export(ctx context.Context, tenantID uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error)
	GetExport(ctx context.Context, filename string) ([]byte, string, error)
}
