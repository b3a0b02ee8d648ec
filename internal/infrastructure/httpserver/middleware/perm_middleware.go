package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ledgerline/auditlog/internal/core/domain/permission"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver/helpers"
)

type PermMiddleware struct{}

func NewPermMiddleware() *PermMiddleware {
	return &PermMiddleware{}
}

func (m *PermMiddleware) RequirePermission(p permission.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, err := helpers.GetUserPermissionsFromContext(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing permissions")
			}
			if !permission.Has(perms, p) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
