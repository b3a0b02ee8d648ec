package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/core/ports"
)

// ExportServiceConfig carries the export limits.
type ExportServiceConfig struct {
	MaxExportRecords int
	MaxPageSize      int
	DefaultPageSize  int
	ExportTTL        time.Duration
}

type ExportService struct {
	repo   ports.LogRepository
	store  ports.ExportStore
	config *ExportServiceConfig
	logger *logrus.Logger
}

// NewExportService creates the export engine. store may be nil, in which
// case artifacts are returned inline but not downloadable afterwards.
func NewExportService(repo ports.LogRepository, store ports.ExportStore, config *ExportServiceConfig, logger *logrus.Logger) ports.ExportService {
	return &ExportService{
		repo:   repo,
		store:  store,
		config: config,
		logger: logger,
	}
}

// csvColumns is the fixed scalar column order; "data" is appended only
// when the caller opts in.
var csvColumns = []string{
	"id", "created_at", "module", "action", "severity",
	"actor_id", "actor_email", "actor_name",
	"tenant_id", "client_id", "resource_type", "resource_id", "ip_address",
}

// Export materializes the full matching set, ignoring pagination. The
// matching count is checked against the cap first; an oversized set fails
// rather than being truncated.
func (s *ExportService) Export(ctx context.Context, tenantID uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error) {
	if tenantID == uuid.Nil {
		return nil, log.ErrInvalidContext
	}
	if !req.Format.IsValid() {
		return nil, log.ErrInvalidExportFormat
	}

	filter := &log.LogFilter{}
	if req.Filter != nil {
		f := *req.Filter
		filter = &f
	}
	// The export path has no pages; pagination fields on the filter are
	// discarded before validation.
	filter.Page = 0
	filter.PageSize = 0
	if err := filter.Normalize(s.config.DefaultPageSize, s.config.MaxPageSize); err != nil {
		return nil, err
	}

	count, err := s.repo.Count(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	if count > s.config.MaxExportRecords {
		return nil, log.ErrExportTooLarge
	}

	entries, err := s.repo.ListAll(ctx, tenantID, filter, s.config.MaxExportRecords)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("logs_%s.%s", now.Format("20060102_150405"), req.Format)

	var content []byte
	var contentType string
	switch req.Format {
	case log.ExportFormatJSON:
		content, err = renderJSON(entries, req.IncludeData)
		contentType = "application/json"
	default:
		content, err = renderCSV(entries, req.IncludeData)
		contentType = "text/csv"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	expiresAt := now.Add(s.config.ExportTTL)
	if s.store != nil {
		if err := s.store.Put(ctx, filename, content, contentType, s.config.ExportTTL); err != nil {
			return nil, fmt.Errorf("failed to store export artifact: %w", err)
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"tenant_id": tenantID, "filename": filename, "format": req.Format, "records": len(entries)}).Info("export generated")
	}

	return &log.LogExport{
		Content:     content,
		Filename:    filename,
		ContentType: contentType,
		RecordCount: len(entries),
		ExpiresAt:   expiresAt,
	}, nil
}

// GetExport returns a previously generated artifact until it expires.
func (s *ExportService) GetExport(ctx context.Context, filename string) ([]byte, string, error) {
	if s.store == nil {
		return nil, "", log.ErrNotFound
	}
	content, contentType, ok, err := s.store.Get(ctx, filename)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", log.ErrNotFound
	}
	return content, contentType, nil
}

func renderCSV(entries []*log.LogEntry, includeData bool) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := csvColumns
	if includeData {
		header = append(append([]string{}, csvColumns...), "data")
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, e := range entries {
		row := []string{
			e.ID.String(),
			e.CreatedAt.Format(time.RFC3339Nano),
			e.Module,
			e.Action,
			string(e.Severity),
			uuidString(e.ActorID),
			strOrEmpty(e.ActorEmail),
			strOrEmpty(e.ActorName),
			e.TenantID.String(),
			uuidString(e.ClientID),
			strOrEmpty(e.Resource),
			uuidString(e.ResourceID),
			strOrEmpty(e.IPAddress),
		}
		if includeData {
			row = append(row, dataString(e.Data))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(entries []*log.LogEntry, includeData bool) ([]byte, error) {
	out := make([]*log.LogEntry, 0, len(entries))
	for _, e := range entries {
		if includeData {
			out = append(out, e)
			continue
		}
		stripped := *e
		stripped.Data = nil
		out = append(out, &stripped)
	}
	return json.MarshalIndent(out, "", "  ")
}

func uuidString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dataString(data map[string]any) string {
	if data == nil {
		return ""
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return string(raw)
}
