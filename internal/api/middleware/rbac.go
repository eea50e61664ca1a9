package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// ForbiddenMessage is returned when an authenticated caller lacks the role.
const ForbiddenMessage = "admins only"

// RBAC admits callers whose role is one of allowedRoles. It must run after
// Authenticate.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, UnauthorizedMessage)
			}
			if _, ok := allowed[id.Role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, ForbiddenMessage)
			}
			return next(c)
		}
	}
}

// RequireAdmin admits admins only.
func RequireAdmin() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
