package helpers

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/ledgerline/auditlog/internal/core/domain/permission"
)

type ctxKey string

const (
	keyTenantID        ctxKey = "tenant_id"
	keyActorID         ctxKey = "actor_id"
	keyActorEmail      ctxKey = "actor_email"
	keyActorName       ctxKey = "actor_name"
	keyUserPermissions ctxKey = "user_permissions"
)

func SetTenantID(c echo.Context, id uuid.UUID) { c.Set(string(keyTenantID), id) }
func GetTenantIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyTenantID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetActorID(c echo.Context, id uuid.UUID) { c.Set(string(keyActorID), id) }
func GetActorIDRaw(c echo.Context) (uuid.UUID, bool) {
	v := c.Get(string(keyActorID))
	id, ok := v.(uuid.UUID)
	return id, ok
}

func SetActorEmail(c echo.Context, email string) { c.Set(string(keyActorEmail), email) }
func GetActorEmailRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyActorEmail))
	s, ok := v.(string)
	return s, ok
}

func SetActorName(c echo.Context, name string) { c.Set(string(keyActorName), name) }
func GetActorNameRaw(c echo.Context) (string, bool) {
	v := c.Get(string(keyActorName))
	s, ok := v.(string)
	return s, ok
}

func SetUserPermissions(c echo.Context, perms []permission.Permission) {
	c.Set(string(keyUserPermissions), perms)
}
func GetUserPermissionsRaw(c echo.Context) ([]permission.Permission, bool) {
	v := c.Get(string(keyUserPermissions))
	p, ok := v.([]permission.Permission)
	return p, ok
}
