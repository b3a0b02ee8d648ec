package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ledgerline/auditlog/internal/core/domain/log"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver/helpers"
)

type exportResponse struct {
	DownloadURL string `json:"download_url"`
	Filename    string `json:"filename"`
	RecordCount int    `json:"record_count"`
	ExpiresAt   string `json:"expires_at"`
}

func (s *Server) exportLogs(c echo.Context) error {
	tenantID, err := helpers.GetTenantIDFromContext(c)
	if err != nil {
		return err
	}
	var req log.LogExportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Format == "" {
		req.Format = log.ExportFormatCSV
	}

	export, err := s.exportSvc.Export(c.Request().Context(), tenantID, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, &exportResponse{
		DownloadURL: "/api/v1/logs/exports/" + export.Filename,
		Filename:    export.Filename,
		RecordCount: export.RecordCount,
		ExpiresAt:   export.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) downloadExport(c echo.Context) error {
	filename := c.Param("filename")
	content, contentType, err := s.exportSvc.GetExport(c.Request().Context(), filename)
	if err != nil {
		return toHTTPError(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, content)
}
