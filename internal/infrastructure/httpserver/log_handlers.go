package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver/helpers"
)

// toHTTPError maps the engine's error taxonomy onto response codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, log.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "log entry not found")
	case errors.Is(err, log.ErrInvalidContext):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, log.ErrInvalidRange),
		errors.Is(err, log.ErrConflictingFilter),
		errors.Is(err, log.ErrInvalidPagination),
		errors.Is(err, log.ErrInvalidExportFormat),
		log.IsValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, log.ErrExportTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) listLogs(c echo.Context) error {
	tenantID, err := helpers.GetTenantIDFromContext(c)
	if err != nil {
		return err
	}
	var filter log.LogFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter parameters")
	}
	list, err := s.logSvc.ListLogs(c.Request().Context(), tenantID, &filter)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getLog(c echo.Context) error {
	tenantID, err := helpers.GetTenantIDFromContext(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid log entry id")
	}
	entry, err := s.logSvc.GetLog(c.Request().Context(), tenantID, id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) getLogStats(c echo.Context) error {
	tenantID, err := helpers.GetTenantIDFromContext(c)
	if err != nil {
		return err
	}
	stats, err := s.logSvc.GetStats(c.Request().Context(), tenantID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

// createLogRequest is the internal ingestion body. Unlike the consumer
// endpoints, the tenant travels in the body because calling services act
// on behalf of many tenants.
type createLogRequest struct {
	TenantID uuid.UUID `json:"tenant_id"`
	log.CreateLogEntryRequest
}

func (s *Server) createLog(c echo.Context) error {
	var req createLogRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	// Backfill request provenance when the caller did not supply it.
	if req.IPAddress == nil {
		if ip := c.RealIP(); ip != "" {
			req.IPAddress = &ip
		}
	}
	if req.UserAgent == nil {
		if ua := c.Request().UserAgent(); ua != "" {
			req.UserAgent = &ua
		}
	}

	entry, err := s.logSvc.Log(c.Request().Context(), req.TenantID, &req.CreateLogEntryRequest)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

type cleanupRequest struct {
	OlderThan string     `json:"older_than"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
}

func (s *Server) cleanupLogs(c echo.Context) error {
	var req cleanupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	olderThan, err := time.ParseDuration(req.OlderThan)
	if err != nil || olderThan <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "older_than must be a positive duration")
	}
	deleted, err := s.logSvc.CleanupOldEntries(c.Request().Context(), req.TenantID, olderThan)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted_count": deleted})
}
