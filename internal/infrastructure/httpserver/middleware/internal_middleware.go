package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// InternalMiddleware gates the internal-only endpoints (create, cleanup)
// behind a shared service token. Only the bcrypt hash of the token is
// configured; the plaintext never leaves the calling services.
type InternalMiddleware struct {
	tokenHash string
	logger    *logrus.Logger
}

func NewInternalMiddleware(tokenHash string, logger *logrus.Logger) *InternalMiddleware {
	return &InternalMiddleware{tokenHash: tokenHash, logger: logger}
}

func (m *InternalMiddleware) RequireServiceToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.tokenHash == "" {
				return echo.NewHTTPError(http.StatusForbidden, "internal endpoints are disabled")
			}
			token := c.Request().Header.Get("X-Service-Token")
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing service token")
			}
			if err := bcrypt.CompareHashAndPassword([]byte(m.tokenHash), []byte(token)); err != nil {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).Warn("service token rejected")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid service token")
			}
			return next(c)
		}
	}
}
