package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/api/middleware"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

// ctxIdentity returns the caller resolved by the Authenticate middleware.
// A missing identity means the route was mounted without it; treat it as an
// unauthenticated request rather than a server error.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok || id.Subject == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, middleware.UnauthorizedMessage)
	}
	return id, nil
}
