package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver/middleware"
)

const (
	testJWTSecret    = "test-secret"
	testServiceToken = "service-token"
)

type logServiceStub struct {
	logFn     func(ctx context.Context, tenantID uuid.UUID, req *log.CreateLogEntryRequest) (*log.LogEntry, error)
	getFn     func(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error)
	listFn    func(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) (*log.LogEntryList, error)
	statsFn   func(ctx context.Context, tenantID uuid.UUID) (*log.LogStats, error)
	cleanupFn func(ctx context.Context, tenantID *uuid.UUID, olderThan time.Duration) (int64, error)
}

func (s *logServiceStub) Log(ctx context.Context, tenantID uuid.UUID, req *log.CreateLogEntryRequest) (*log.LogEntry, error) {
	return s.logFn(ctx, tenantID, req)
}
func (s *logServiceStub) GetLog(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error) {
	return s.getFn(ctx, tenantID, id)
}
func (s *logServiceStub) ListLogs(ctx context.Context, tenantID uuid.UUID, filter *log.LogFilter) (*log.LogEntryList, error) {
	return s.listFn(ctx, tenantID, filter)
}
func (s *logServiceStub) GetStats(ctx context.Context, tenantID uuid.UUID) (*log.LogStats, error) {
	return s.statsFn(ctx, tenantID)
}
func (s *logServiceStub) CleanupOldEntries(ctx context.Context, tenantID *uuid.UUID, olderThan time.Duration) (int64, error) {
	return s.cleanupFn(ctx, tenantID, olderThan)
}

type exportServiceStub struct {
	exportFn func(ctx context.Context, tenantID uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error)
	getFn    func(ctx context.Context, filename string) ([]byte, string, error)
}

func (s *exportServiceStub) Export(ctx context.Context, tenantID uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error) {
	return s.exportFn(ctx, tenantID, req)
}
func (s *exportServiceStub) GetExport(ctx context.Context, filename string) ([]byte, string, error) {
	return s.getFn(ctx, filename)
}

func newTestServer(t *testing.T, logSvc *logServiceStub, exportSvc *exportServiceStub) *echo.Echo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testServiceToken), bcrypt.MinCost)
	require.NoError(t, err)

	server := httpserver.NewServer(
		&httpserver.ServerConfig{Host: "localhost", Port: "0"},
		testJWTSecret,
		string(hash),
		nil,
		httpserver.ServerDeps{LogService: logSvc, ExportService: exportSvc},
	)
	return server.Echo()
}

func bearerToken(t *testing.T, tenantID uuid.UUID, perms ...string) string {
	t.Helper()
	claims := &middleware.Claims{
		TenantID:    tenantID,
		Email:       "ops@example.com",
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func TestListLogs_Endpoint(t *testing.T) {
	tenantID := uuid.New()
	logSvc := &logServiceStub{
		listFn: func(ctx context.Context, id uuid.UUID, filter *log.LogFilter) (*log.LogEntryList, error) {
			assert.Equal(t, tenantID, id)
			require.NotNil(t, filter.Module)
			assert.Equal(t, "guardian", *filter.Module)
			assert.Equal(t, 2, filter.Page)
			return &log.LogEntryList{Items: []*log.LogEntry{}, Total: 42, Page: 2, PageSize: 50, Pages: 1}, nil
		},
	}
	e := newTestServer(t, logSvc, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs?module=guardian&page=2", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, tenantID, "logs.view"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body log.LogEntryList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body.Total)
}

func TestListLogs_Endpoint_NoToken(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListLogs_Endpoint_MissingPermission(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.export"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetLog_Endpoint_NotFound(t *testing.T) {
	logSvc := &logServiceStub{
		getFn: func(ctx context.Context, tenantID, id uuid.UUID) (*log.LogEntry, error) {
			return nil, log.ErrNotFound
		},
	}
	e := newTestServer(t, logSvc, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/"+uuid.NewString(), nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.view"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLog_Endpoint_BadID(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/not-a-uuid", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.view"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLog_Endpoint(t *testing.T) {
	tenantID := uuid.New()
	logSvc := &logServiceStub{
		logFn: func(ctx context.Context, id uuid.UUID, req *log.CreateLogEntryRequest) (*log.LogEntry, error) {
			assert.Equal(t, tenantID, id)
			assert.Equal(t, "guardian", req.Module)
			// Provenance is backfilled from the request when absent.
			require.NotNil(t, req.UserAgent)
			assert.Equal(t, "svc-guardian/1.0", *req.UserAgent)
			return &log.LogEntry{ID: uuid.New(), TenantID: id, Module: req.Module, Action: req.Action, Severity: log.SeverityInfo, CreatedAt: time.Now().UTC()}, nil
		},
	}
	e := newTestServer(t, logSvc, &exportServiceStub{})

	body := `{"tenant_id":"` + tenantID.String() + `","module":"guardian","action":"users.login"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Service-Token", testServiceToken)
	req.Header.Set("User-Agent", "svc-guardian/1.0")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateLog_Endpoint_RequiresServiceToken(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	body := `{"tenant_id":"` + uuid.NewString() + `","module":"guardian","action":"users.login"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCleanup_Endpoint(t *testing.T) {
	logSvc := &logServiceStub{
		cleanupFn: func(ctx context.Context, tenantID *uuid.UUID, olderThan time.Duration) (int64, error) {
			assert.Nil(t, tenantID)
			assert.Equal(t, 720*time.Hour, olderThan)
			return 12, nil
		},
	}
	e := newTestServer(t, logSvc, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/cleanup", strings.NewReader(`{"older_than":"720h"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Service-Token", testServiceToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(12), body["deleted_count"])
}

func TestCleanup_Endpoint_BadDuration(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/cleanup", strings.NewReader(`{"older_than":"-1h"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Service-Token", testServiceToken)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport_Endpoint(t *testing.T) {
	tenantID := uuid.New()
	expiresAt := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	exportSvc := &exportServiceStub{
		exportFn: func(ctx context.Context, id uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error) {
			assert.Equal(t, tenantID, id)
			assert.Equal(t, log.ExportFormatCSV, req.Format)
			return &log.LogExport{
				Content:     []byte("id\n"),
				Filename:    "logs_20260301_120000.csv",
				ContentType: "text/csv",
				RecordCount: 3,
				ExpiresAt:   expiresAt,
			}, nil
		},
	}
	e := newTestServer(t, &logServiceStub{}, exportSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/export", strings.NewReader(`{"format":"csv"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, tenantID, "logs.export"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/api/v1/logs/exports/logs_20260301_120000.csv", body["download_url"])
	assert.Equal(t, float64(3), body["record_count"])
	assert.Equal(t, expiresAt.Format(time.RFC3339), body["expires_at"])
}

func TestExport_Endpoint_TooLarge(t *testing.T) {
	exportSvc := &exportServiceStub{
		exportFn: func(ctx context.Context, id uuid.UUID, req *log.LogExportRequest) (*log.LogExport, error) {
			return nil, log.ErrExportTooLarge
		},
	}
	e := newTestServer(t, &logServiceStub{}, exportSvc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/logs/export", strings.NewReader(`{"format":"csv"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.export"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDownloadExport_Endpoint(t *testing.T) {
	exportSvc := &exportServiceStub{
		getFn: func(ctx context.Context, filename string) ([]byte, string, error) {
			if filename == "logs_20260301_120000.csv" {
				return []byte("id\n"), "text/csv", nil
			}
			return nil, "", log.ErrNotFound
		},
	}
	e := newTestServer(t, &logServiceStub{}, exportSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/exports/logs_20260301_120000.csv", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.export"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "logs_20260301_120000.csv")

	req = httptest.NewRequest(http.MethodGet, "/api/v1/logs/exports/logs_missing.csv", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.export"))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats_Endpoint(t *testing.T) {
	logSvc := &logServiceStub{
		statsFn: func(ctx context.Context, tenantID uuid.UUID) (*log.LogStats, error) {
			return &log.LogStats{
				TotalEntries:      10,
				EntriesBySeverity: map[string]int{"INFO": 8, "ERROR": 2},
				EntriesByModule:   map[string]int{"guardian": 10},
				EntriesToday:      1,
				EntriesThisWeek:   4,
			}, nil
		},
	}
	e := newTestServer(t, logSvc, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/logs/stats", nil)
	req.Header.Set(echo.HeaderAuthorization, bearerToken(t, uuid.New(), "logs.view"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body log.LogStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 10, body.TotalEntries)
	assert.Equal(t, 2, body.EntriesBySeverity["ERROR"])
}

func TestHealth_Endpoint(t *testing.T) {
	e := newTestServer(t, &logServiceStub{}, &exportServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
