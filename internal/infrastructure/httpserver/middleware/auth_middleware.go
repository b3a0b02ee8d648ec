package middleware

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/ledgerline/auditlog/internal/core/domain/permission"
	"github.com/ledgerline/auditlog/internal/infrastructure/httpserver/helpers"
)

// Claims is the pre-validated actor+tenant context issued by the auth
// collaborator. The actor id travels in the registered subject claim.
type Claims struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	jwt.RegisteredClaims
}

type JWTMiddleware struct {
	secret []byte
	logger *logrus.Logger
}

func NewJWTMiddleware(secret string, logger *logrus.Logger) *JWTMiddleware {
	return &JWTMiddleware{secret: []byte(secret), logger: logger}
}

// RequireJWT validates the bearer token and sets tenant, actor and
// permission context for downstream handlers.
func (m *JWTMiddleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := helpers.GetBearerTokenFromContext(c)
			if err != nil {
				return err
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return m.secret, nil
			})
			if err != nil || !token.Valid {
				if m.logger != nil {
					m.logger.WithFields(logrus.Fields{"ip": c.RealIP(), "path": c.Request().URL.Path}).WithError(err).Warn("JWT validation failed")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.TenantID == uuid.Nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "token carries no tenant")
			}

			helpers.SetTenantID(c, claims.TenantID)
			if claims.Subject != "" {
				if actorID, err := uuid.Parse(claims.Subject); err == nil {
					helpers.SetActorID(c, actorID)
				}
			}
			helpers.SetActorEmail(c, claims.Email)
			helpers.SetActorName(c, claims.Name)

			perms := make([]permission.Permission, 0, len(claims.Permissions))
			for _, p := range claims.Permissions {
				perms = append(perms, permission.Permission(p))
			}
			helpers.SetUserPermissions(c, perms)

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{"tenant_id": claims.TenantID, "actor": claims.Subject}).Debug("jwt validated and request context set")
			}
			return next(c)
		}
	}
}
