package ports

import (
	"context"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
)

// AlertSender notifies operators about noteworthy entries. Sending is
// best-effort: a failure must never affect the outcome of the write that
// triggered it.
type AlertSender interface {
	SendCriticalAlert(ctx context.Context, entry *log.LogEntry) error
}
