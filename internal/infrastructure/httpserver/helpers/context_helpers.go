package helpers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ledgerline/auditlog/internal/core/domain/permission"
)

func GetTenantIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetTenantIDRaw(c)
	if !ok || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid tenant context")
	}
	return id, nil
}

func GetActorIDFromContext(c echo.Context) (uuid.UUID, error) {
	id, ok := GetActorIDRaw(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid actor context")
	}
	return id, nil
}

func GetUserPermissionsFromContext(c echo.Context) ([]permission.Permission, error) {
	p, ok := GetUserPermissionsRaw(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user permissions not found")
	}
	return p, nil
}

// GetBearerTokenFromContext extracts the bearer token from the
// Authorization header.
func GetBearerTokenFromContext(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
