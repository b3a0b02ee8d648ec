package httpserver

import (
	"github.com/ledgerline/auditlog/internal/core/domain/permission"
)

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	logs := api.Group("/logs")

	// Internal-only write paths: no user permission model, gated by the
	// shared service token.
	logs.POST("", s.createLog, s.middleware.Internal.RequireServiceToken())
	logs.POST("/cleanup", s.cleanupLogs, s.middleware.Internal.RequireServiceToken())

	protected := logs.Group("", s.middleware.JWT.RequireJWT())
	protected.GET("", s.listLogs, s.middleware.Perm.RequirePermission(permission.ViewLogs))
	protected.GET("/stats", s.getLogStats, s.middleware.Perm.RequirePermission(permission.ViewLogs))
	protected.POST("/export", s.exportLogs, s.middleware.Perm.RequirePermission(permission.ExportLogs))
	protected.GET("/exports/:filename", s.downloadExport, s.middleware.Perm.RequirePermission(permission.ExportLogs))
	protected.GET("/:id", s.getLog, s.middleware.Perm.RequirePermission(permission.ViewLogs))
}
