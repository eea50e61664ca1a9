package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/pkg/metrics"
)

const identityKey = "identity"

// UnauthorizedMessage is returned for every authentication failure, so a
// forged token and an expired one cannot be told apart.
const UnauthorizedMessage = "could not validate credentials"

// TokenVerifier is the part of the token codec the middleware needs.
type TokenVerifier interface {
	DecodeKind(token string, kind domain.TokenKind) (domain.Claims, error)
}

// Authenticate requires a valid access token in the Authorization header and
// stores the caller's identity in the echo context.
func Authenticate(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return reject(c, "missing")
			}

			claims, err := verifier.DecodeKind(token, domain.TokenAccess)
			if err != nil {
				reason := "invalid"
				if errors.Is(err, domain.ErrTokenExpired) {
					reason = "expired"
				}
				return reject(c, reason)
			}
			if claims.Subject == "" {
				return reject(c, "invalid")
			}

			SetIdentity(c, domain.Identity{Subject: claims.Subject, Role: claims.Role})
			return next(c)
		}
	}
}

// bearerToken extracts the token from "Bearer <token>". The scheme is
// case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// reject records the reason for operators and sends the client the same 401
// whatever it was.
func reject(c echo.Context, reason string) error {
	metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, UnauthorizedMessage)
}

// SetIdentity stores the authenticated caller on the context.
func SetIdentity(c echo.Context, id domain.Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller stored by Authenticate.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(identityKey).(domain.Identity)
	return id, ok
}
