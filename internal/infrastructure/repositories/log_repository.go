package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	logdomain "github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/core/ports"
	"github.com/ledgerline/auditlog/internal/infrastructure/db"
)

const logColumns = `id, tenant_id, module, action, severity,
		actor_id, actor_email, actor_name, client_id,
		resource_type, resource_id, data,
		ip_address, user_agent, request_id, created_at`

type logRepository struct {
	db     *db.Database
	logger *logrus.Logger
}

// NewLogRepository creates the Postgres-backed LogRepository.
func NewLogRepository(database *db.Database, logger *logrus.Logger) ports.LogRepository {
	return &logRepository{
		db:     database,
		logger: logger,
	}
}

// Create inserts one immutable entry. There is no update path.
func (r *logRepository) Create(ctx context.Context, entry *logdomain.LogEntry) error {
	var dataJSON []byte
	if entry.Data != nil {
		raw, err := json.Marshal(entry.Data)
		if err != nil {
			return &logdomain.StorageError{Op: "marshal data payload", Err: err}
		}
		dataJSON = raw
	}

	query := `
		INSERT INTO log_entries (
			id, tenant_id, module, action, severity,
			actor_id, actor_email, actor_name, client_id,
			resource_type, resource_id, data,
			ip_address, user_agent, request_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`

	_, err := r.db.DB.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.Module,
		entry.Action,
		entry.Severity,
		entry.ActorID,
		entry.ActorEmail,
		entry.ActorName,
		entry.ClientID,
		entry.Resource,
		entry.ResourceID,
		dataJSON,
		entry.IPAddress,
		entry.UserAgent,
		entry.RequestID,
		entry.CreatedAt,
	)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"tenant_id": entry.TenantID, "module": entry.Module, "action": entry.Action}).WithError(err).Error("db: failed to insert log entry")
		}
		return &logdomain.StorageError{Op: "insert log entry", Err: err}
	}
	return nil
}

// GetByID returns one entry. Cross-tenant ids fail exactly like absent ones.
func (r *logRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*logdomain.LogEntry, error) {
	query := `SELECT ` + logColumns + ` FROM log_entries WHERE tenant_id = $1 AND id = $2`
	row := r.db.DB.QueryRowContext(ctx, query, tenantID, id)
	entry, err := scanLogEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, logdomain.ErrNotFound
		}
		return nil, &logdomain.StorageError{Op: "get log entry", Err: err}
	}
	return entry, nil
}

func (r *logRepository) List(ctx context.Context, tenantID uuid.UUID, filter *logdomain.LogFilter) ([]*logdomain.LogEntry, error) {
	limit := filter.PageSize
	offset := (filter.Page - 1) * filter.PageSize
	query, args := buildListQuery(tenantID, filter, false, limit, offset)
	return r.queryEntries(ctx, query, args)
}

func (r *logRepository) ListAll(ctx context.Context, tenantID uuid.UUID, filter *logdomain.LogFilter, limit int) ([]*logdomain.LogEntry, error) {
	query, args := buildListQuery(tenantID, filter, false, limit, 0)
	return r.queryEntries(ctx, query, args)
}

func (r *logRepository) queryEntries(ctx context.Context, query string, args []interface{}) ([]*logdomain.LogEntry, error) {
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing log list query")
	}
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute log list query")
		}
		return nil, &logdomain.StorageError{Op: "list log entries", Err: err}
	}
	defer rows.Close()

	var entries []*logdomain.LogEntry
	for rows.Next() {
		entry, err := scanLogEntry(rows)
		if err != nil {
			return nil, &logdomain.StorageError{Op: "scan log entry", Err: err}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, &logdomain.StorageError{Op: "iterate log entries", Err: err}
	}
	return entries, nil
}

// Count returns the number of matching entries, ignoring pagination.
func (r *logRepository) Count(ctx context.Context, tenantID uuid.UUID, filter *logdomain.LogFilter) (int, error) {
	query, args := buildListQuery(tenantID, filter, true, 0, 0)
	var count int
	if err := r.db.DB.GetContext(ctx, &count, query, args...); err != nil {
		return 0, &logdomain.StorageError{Op: "count log entries", Err: err}
	}
	return count, nil
}

func (r *logRepository) CountSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM log_entries WHERE tenant_id = $1 AND created_at >= $2`
	if err := r.db.DB.GetContext(ctx, &count, query, tenantID, since); err != nil {
		return 0, &logdomain.StorageError{Op: "count log entries since", Err: err}
	}
	return count, nil
}

func (r *logRepository) CountBySeverity(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	return r.groupCount(ctx, tenantID, "severity")
}

func (r *logRepository) CountByModule(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	return r.groupCount(ctx, tenantID, "module")
}

// groupCount only ever receives the fixed column names above; it is not a
// general-purpose query surface.
func (r *logRepository) groupCount(ctx context.Context, tenantID uuid.UUID, column string) (map[string]int, error) {
	query := `SELECT ` + column + `, COUNT(*) FROM log_entries WHERE tenant_id = $1 GROUP BY ` + column
	rows, err := r.db.DB.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, &logdomain.StorageError{Op: "group count log entries", Err: err}
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, &logdomain.StorageError{Op: "scan group count", Err: err}
		}
		counts[key] = count
	}
	if err := rows.Err(); err != nil {
		return nil, &logdomain.StorageError{Op: "iterate group counts", Err: err}
	}
	return counts, nil
}

// DeleteOlderThan is the single delete path; nothing else removes entries.
func (r *logRepository) DeleteOlderThan(ctx context.Context, tenantID *uuid.UUID, cutoff time.Time) (int64, error) {
	query := `DELETE FROM log_entries WHERE created_at < $1`
	args := []interface{}{cutoff}
	if tenantID != nil {
		query += ` AND tenant_id = $2`
		args = append(args, *tenantID)
	}

	res, err := r.db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, &logdomain.StorageError{Op: "delete old log entries", Err: err}
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, &logdomain.StorageError{Op: "count deleted log entries", Err: err}
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"deleted": deleted, "cutoff": cutoff}).Debug("db: old log entries deleted")
	}
	return deleted, nil
}

// buildListQuery constructs the SQL for listing or counting entries.
// tenantID always becomes the first predicate; filter content can only
// narrow within that scope.
func buildListQuery(tenantID uuid.UUID, filter *logdomain.LogFilter, isCount bool, limit, offset int) (string, []interface{}) {
	var selectClause string
	if isCount {
		selectClause = "SELECT COUNT(*)"
	} else {
		selectClause = "SELECT " + logColumns
	}

	query := selectClause + " FROM log_entries"
	conditions := []string{"tenant_id = $1"}
	args := []interface{}{tenantID}
	argIndex := 2

	if filter != nil {
		if filter.StartDate != nil {
			conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.StartDate)
			argIndex++
		}
		if filter.EndDate != nil {
			conditions = append(conditions, "created_at <= $"+strconv.Itoa(argIndex))
			args = append(args, *filter.EndDate)
			argIndex++
		}
		if filter.ActorID != nil {
			conditions = append(conditions, "actor_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.ActorID)
			argIndex++
		}
		if filter.Module != nil {
			conditions = append(conditions, "module = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.Module)
			argIndex++
		}
		if filter.Action != nil {
			// A trailing ".*" selects the whole action subtree.
			if strings.HasSuffix(*filter.Action, ".*") {
				prefix := strings.TrimSuffix(*filter.Action, "*")
				conditions = append(conditions, "action LIKE $"+strconv.Itoa(argIndex))
				args = append(args, prefix+"%")
			} else {
				conditions = append(conditions, "action = $"+strconv.Itoa(argIndex))
				args = append(args, *filter.Action)
			}
			argIndex++
		}
		if filter.Severity != nil {
			conditions = append(conditions, "severity = $"+strconv.Itoa(argIndex))
			args = append(args, string(*filter.Severity))
			argIndex++
		}
		if filter.MinSeverity != nil {
			levels := logdomain.SeveritiesAtOrAbove(*filter.MinSeverity)
			names := make([]string, len(levels))
			for i, s := range levels {
				names[i] = string(s)
			}
			conditions = append(conditions, "severity = ANY($"+strconv.Itoa(argIndex)+")")
			args = append(args, pq.Array(names))
			argIndex++
		}
		if filter.Resource != nil {
			conditions = append(conditions, "resource_type = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.Resource)
			argIndex++
		}
		if filter.ResourceID != nil {
			conditions = append(conditions, "resource_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.ResourceID)
			argIndex++
		}
		if filter.ClientID != nil {
			conditions = append(conditions, "client_id = $"+strconv.Itoa(argIndex))
			args = append(args, *filter.ClientID)
			argIndex++
		}
		if filter.Search != nil {
			pattern := "%" + *filter.Search + "%"
			conditions = append(conditions, "(action ILIKE $"+strconv.Itoa(argIndex)+" OR module ILIKE $"+strconv.Itoa(argIndex+1)+")")
			args = append(args, pattern, pattern)
			argIndex += 2
		}
	}

	query += " WHERE " + strings.Join(conditions, " AND ")

	if !isCount {
		query += " ORDER BY created_at DESC"
		if limit > 0 {
			query += " LIMIT $" + strconv.Itoa(argIndex)
			args = append(args, limit)
			argIndex++
		}
		if offset > 0 {
			query += " OFFSET $" + strconv.Itoa(argIndex)
			args = append(args, offset)
			argIndex++
		}
	}

	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLogEntry(row rowScanner) (*logdomain.LogEntry, error) {
	entry := &logdomain.LogEntry{}
	var (
		actorID    uuid.NullUUID
		actorEmail sql.NullString
		actorName  sql.NullString
		clientID   uuid.NullUUID
		resource   sql.NullString
		resourceID uuid.NullUUID
		dataJSON   []byte
		ipAddress  sql.NullString
		userAgent  sql.NullString
		requestID  uuid.NullUUID
	)

	err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.Module,
		&entry.Action,
		&entry.Severity,
		&actorID,
		&actorEmail,
		&actorName,
		&clientID,
		&resource,
		&resourceID,
		&dataJSON,
		&ipAddress,
		&userAgent,
		&requestID,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		entry.ActorID = &actorID.UUID
	}
	if actorEmail.Valid {
		entry.ActorEmail = &actorEmail.String
	}
	if actorName.Valid {
		entry.ActorName = &actorName.String
	}
	if clientID.Valid {
		entry.ClientID = &clientID.UUID
	}
	if resource.Valid {
		entry.Resource = &resource.String
	}
	if resourceID.Valid {
		entry.ResourceID = &resourceID.UUID
	}
	if len(dataJSON) > 0 {
		var data map[string]any
		if err := json.Unmarshal(dataJSON, &data); err == nil {
			entry.Data = data
		}
	}
	if ipAddress.Valid {
		entry.IPAddress = &ipAddress.String
	}
	if userAgent.Valid {
		entry.UserAgent = &userAgent.String
	}
	if requestID.Valid {
		entry.RequestID = &requestID.UUID
	}

	return entry, nil
}
