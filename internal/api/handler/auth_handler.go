package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account and signs it in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Email and password"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	pair, err := h.authService.Register(c.Request().Context(), domain.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Login authenticates a user and returns a token pair. The body may be JSON
// ({email, password}) or an OAuth2 password form ({username, password}).
//
// @Summary      Login
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body      body      loginRequest  false  "JSON credentials"
// @Param        username  formData  string        false  "Email (form login)"
// @Param        password  formData  string        false  "Password (form login)"
// @Success      200       {object}  tokenResponse
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.authService.Login(c.Request().Context(), req.credentials())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTokenResponse(pair))
}

// Refresh exchanges a refresh token for a new token pair.
//
// @Summary      Refresh tokens
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Refresh token"
// @Success      200    {object}  tokenResponse
// @Failure      401    {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = c.FormValue("token")
	}

	pair, err := h.authService.Refresh(c.Request().Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newTokenResponse(pair))
}
