package log

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity is the ordered log level of an entry. Ordering matters for
// min_severity filters: DEBUG < INFO < WARNING < ERROR < CRITICAL.
type Severity string

const (
	SeverityDebug    Severity = "DEBUG"
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityDebug:    0,
	SeverityInfo:     1,
	SeverityWarning:  2,
	SeverityError:    3,
	SeverityCritical: 4,
}

// IsValid reports whether s is a known severity level.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the position of s in the severity ordering (-1 if unknown).
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// SeveritiesAtOrAbove returns all severities with rank >= min's rank,
// used to translate a min_severity filter into an equality set.
func SeveritiesAtOrAbove(min Severity) []Severity {
	floor := min.Rank()
	var out []Severity
	for _, s := range []Severity{SeverityDebug, SeverityInfo, SeverityWarning, SeverityError, SeverityCritical} {
		if s.Rank() >= floor {
			out = append(out, s)
		}
	}
	return out
}

// LogEntry is an immutable audit record. Entries are created exclusively
// through the ingestion path and never mutated afterwards; only the bulk
// retention cleanup may remove them.
type LogEntry struct {
	ID         uuid.UUID      `json:"id" db:"id"`
	TenantID   uuid.UUID      `json:"tenant_id" db:"tenant_id"`
	Module     string         `json:"module" db:"module"`
	Action     string         `json:"action" db:"action"`
	Severity   Severity       `json:"severity" db:"severity"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty" db:"actor_id"`
	ActorEmail *string        `json:"actor_email,omitempty" db:"actor_email"`
	ActorName  *string        `json:"actor_name,omitempty" db:"actor_name"`
	ClientID   *uuid.UUID     `json:"client_id,omitempty" db:"client_id"`
	Resource   *string        `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID *uuid.UUID     `json:"resource_id,omitempty" db:"resource_id"`
	Data       map[string]any `json:"data,omitempty" db:"-"`
	IPAddress  *string        `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string        `json:"user_agent,omitempty" db:"user_agent"`
	RequestID  *uuid.UUID     `json:"request_id,omitempty" db:"request_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// CreateLogEntryRequest is the input to the ingestion gate. TenantID is
// supplied out-of-band from the resolved request context, never from the
// caller-controlled body.
type CreateLogEntryRequest struct {
	Module     string         `json:"module"`
	Action     string         `json:"action"`
	Severity   Severity       `json:"severity,omitempty"`
	ActorID    *uuid.UUID     `json:"actor_id,omitempty"`
	ActorEmail *string        `json:"actor_email,omitempty"`
	ActorName  *string        `json:"actor_name,omitempty"`
	ClientID   *uuid.UUID     `json:"client_id,omitempty"`
	Resource   *string        `json:"resource_type,omitempty"`
	ResourceID *uuid.UUID     `json:"resource_id,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	IPAddress  *string        `json:"ip_address,omitempty"`
	UserAgent  *string        `json:"user_agent,omitempty"`
	RequestID  *uuid.UUID     `json:"request_id,omitempty"`
}

// Validate checks the request before persistence. Severity defaults to INFO
// when omitted. The data payload is rejected if its serialized form exceeds
// maxDataBytes.
func (r *CreateLogEntryRequest) Validate(maxDataBytes int) error {
	r.Module = strings.TrimSpace(r.Module)
	r.Action = strings.TrimSpace(r.Action)

	if r.Module == "" {
		return &ValidationError{Field: "module", Reason: ReasonEmptyField}
	}
	if r.Action == "" {
		return &ValidationError{Field: "action", Reason: ReasonEmptyField}
	}
	if r.Severity == "" {
		r.Severity = SeverityInfo
	}
	if !r.Severity.IsValid() {
		return &ValidationError{Field: "severity", Reason: ReasonInvalidValue}
	}
	if r.Data != nil && maxDataBytes > 0 {
		raw, err := json.Marshal(r.Data)
		if err != nil {
			return &ValidationError{Field: "data", Reason: ReasonInvalidValue}
		}
		if len(raw) > maxDataBytes {
			return &ValidationError{Field: "data", Reason: ReasonPayloadTooLarge}
		}
	}
	return nil
}

// LogFilter narrows a tenant-scoped query. Every field is optional; the
// zero filter matches all of the tenant's entries. The tenant itself is
// never part of the filter.
type LogFilter struct {
	StartDate   *time.Time `json:"start_date,omitempty" query:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty" query:"end_date"`
	ActorID     *uuid.UUID `json:"actor_id,omitempty" query:"actor_id"`
	Module      *string    `json:"module,omitempty" query:"module"`
	Action      *string    `json:"action,omitempty" query:"action"`
	Severity    *Severity  `json:"severity,omitempty" query:"severity"`
	MinSeverity *Severity  `json:"min_severity,omitempty" query:"min_severity"`
	Resource    *string    `json:"resource_type,omitempty" query:"resource_type"`
	ResourceID  *uuid.UUID `json:"resource_id,omitempty" query:"resource_id"`
	ClientID    *uuid.UUID `json:"client_id,omitempty" query:"client_id"`
	Search      *string    `json:"search,omitempty" query:"search"`
	Page        int        `json:"page,omitempty" query:"page"`
	PageSize    int        `json:"page_size,omitempty" query:"page_size"`
}

// Normalize applies pagination defaults and validates the filter.
// Out-of-range pagination is an error, not a silent clamp.
func (f *LogFilter) Normalize(defaultPageSize, maxPageSize int) error {
	if f.Page == 0 {
		f.Page = 1
	}
	if f.PageSize == 0 {
		f.PageSize = defaultPageSize
	}
	if f.Page < 1 || f.PageSize < 1 || f.PageSize > maxPageSize {
		return ErrInvalidPagination
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return ErrInvalidRange
	}
	if f.Severity != nil && f.MinSeverity != nil {
		return ErrConflictingFilter
	}
	if f.Severity != nil && !f.Severity.IsValid() {
		return &ValidationError{Field: "severity", Reason: ReasonInvalidValue}
	}
	if f.MinSeverity != nil && !f.MinSeverity.IsValid() {
		return &ValidationError{Field: "min_severity", Reason: ReasonInvalidValue}
	}
	return nil
}

// LogEntryList is one page of a filtered query.
type LogEntryList struct {
	Items    []*LogEntry `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Pages    int         `json:"pages"`
}

// LogStats summarizes a tenant's whole log history. Severity and module
// maps only carry keys that were actually observed.
type LogStats struct {
	TotalEntries      int            `json:"total_entries"`
	EntriesBySeverity map[string]int `json:"entries_by_severity"`
	EntriesByModule   map[string]int `json:"entries_by_module"`
	EntriesToday      int            `json:"entries_today"`
	EntriesThisWeek   int            `json:"entries_this_week"`
}

// ExportFormat selects the export rendering.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatJSON ExportFormat = "json"
)

// IsValid reports whether f is a supported export format.
func (f ExportFormat) IsValid() bool {
	return f == ExportFormatCSV || f == ExportFormatJSON
}

// LogExportRequest asks for a one-shot materialization of a filtered set.
// Pagination fields on the filter are ignored by the export path.
type LogExportRequest struct {
	Filter      *LogFilter   `json:"filter,omitempty"`
	Format      ExportFormat `json:"format"`
	IncludeData bool         `json:"include_data"`
}

// LogExport is a rendered export artifact. Persistence and delivery of the
// artifact are the caller's concern; the engine only returns content and a
// filename/content-type hint.
type LogExport struct {
	Content     []byte    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	RecordCount int       `json:"record_count"`
	ExpiresAt   time.Time `json:"expires_at"`
}
