package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/core/ports"
)

// LogServiceConfig carries the engine limits the service enforces.
type LogServiceConfig struct {
	MaxPageSize     int
	DefaultPageSize int
	MaxDataBytes    int
}

type LogService struct {
	repo   ports.LogRepository
	alerts ports.AlertSender
	config *LogServiceConfig
	logger *logrus.Logger
}

// NewLogService creates the ingestion/query/aggregation service. alerts may
// be nil when critical-entry alerting is not configured.
func NewLogService(repo ports.LogRepository, alerts ports.AlertSender, config *LogServiceConfig, logger *logrus.Logger) ports.LogService {
	return &LogService{
		repo:   repo,
		alerts: alerts,
		config: config,
		logger: logger,
	}
}

// Log validates and persists exactly one entry. The write is synchronous
// and never retried here; on failure the caller decides.
func (s *LogService) Log(ctx context.Context, tenantID uuid.UUID, req *log.CreateLogEntryRequest) (*log.LogEntry, error) {
	if tenantID == uuid.Nil {
		return nil, log.ErrInvalidContext
	}
	if err := req.Validate(s.config.MaxDataBytes); err != nil {
		return nil, err
	}

	entry := &log.LogEntry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Module:     req.Module,
		Action:     req.Action,
		Severity:   req.Severity,
		ActorID:    req.ActorID,
		ActorEmail: req.ActorEmail,
		ActorName:  req.ActorName,
		ClientID:   req.ClientID,
		Resource:   req.Resource,
		ResourceID: req.ResourceID,
		Data:       req.Data,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		RequestID:  req.RequestID,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "module": entry.Module, "action": entry.Action}).WithError(err).Error("failed to persist log entry")
		}
		return nil, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "id": entry.ID, "module": entry.Module, "action": entry.Action, "severity": entry.Severity}).Debug("log entry persisted")
	}

	// Post-write, best-effort: an alert failure never affects the write.
	if s.alerts != nil && entry.Severity == log.SeverityCritical {
		if err := s.alerts.SendCriticalAlert(ctx, entry); err != nil && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "id": entry.ID}).WithError(err).Warn("failed to send critical-entry alert")
		}
	}

	return entry, nil
}

// GetLog returns one entry scoped to the tenant. A cross-tenant id fails
// with the same ErrNotFound as an absent one.
func (s *LogService) GetLog(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error) {
	if tenantID == uuid.Nil {
		return nil, log.ErrInvalidContext
	}
	return s.repo.GetByID(ctx, tenantID, id)
}

// ListLogs returns one page of the tenant's entries matching the filter,
// most recent first.
func (s *LogService) ListLogs(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) (*log.LogEntryList, error) {
	if tenantID == uuid.Nil {
		return nil, log.ErrInvalidContext
	}
	if filter == nil {
		filter = &log.LogFilter{}
	}
	if err := filter.Normalize(s.config.DefaultPageSize, s.config.MaxPageSize); err != nil {
		return nil, err
	}

	total, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*log.LogEntry{}
	}

	pages := 0
	if total > 0 {
		pages = (total + filter.PageSize - 1) / filter.PageSize
	}

	return &log.LogEntryList{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Pages:    pages,
	}, nil
}

// GetStats summarizes the tenant's whole history. The two time-bucketed
// counts use UTC day and Monday-start week boundaries at call time.
func (s *LogService) GetStats(ctx context.Context, tenantID uuid.UUID) (*log.LogStats, error) {
	if tenantID == uuid.Nil {
		return nil, log.ErrInvalidContext
	}

	now := time.Now().UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekStart := todayStart.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))

	total, err := s.repo.Count(ctx, tenantID, &log.LogFilter{})
	if err != nil {
		return nil, err
	}
	bySeverity, err := s.repo.CountBySeverity(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	byModule, err := s.repo.CountByModule(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	today, err := s.repo.CountSince(ctx, tenantID, todayStart)
	if err != nil {
		return nil, err
	}
	week, err := s.repo.CountSince(ctx, tenantID, weekStart)
	if err != nil {
		return nil, err
	}

	return &log.LogStats{
		TotalEntries:      total,
		EntriesBySeverity: bySeverity,
		EntriesByModule:   byModule,
		EntriesToday:      today,
		EntriesThisWeek:   week,
	}, nil
}

// CleanupOldEntries bulk-deletes entries older than the given age,
// optionally scoped to one tenant. Nothing schedules this; callers own the
// retention policy. A non-positive age deletes nothing.
func (s *LogService) CleanupOldEntries(ctx context.Context, tenantID *uuid.UUID, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	deleted, err := s.repo.DeleteOlderThan(ctx, tenantID, cutoff)
	if err != nil {
		return 0, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"deleted": deleted, "cutoff": cutoff, "tenant_id": tenantID}).Info("retention cleanup completed")
	}
	return deleted, nil
}
