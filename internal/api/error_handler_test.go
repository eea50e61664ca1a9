package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Ayu-web-cpu/AI-Content-Explorer/internal/core/domain"
)

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"user exists", domain.ErrUserExists, http.StatusBadRequest, "email already registered"},
		{"missing credentials", domain.ErrMissingCredentials, http.StatusBadRequest, "missing credentials"},
		{"invalid credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized, "could not validate credentials"},
		{"expired token", fmt.Errorf("decode: %w", domain.ErrTokenExpired), http.StatusUnauthorized, "could not validate credentials"},
		{"wrong kind", domain.ErrTokenWrongKind, http.StatusUnauthorized, "could not validate credentials"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "admins only"},
		{"record not found", fmt.Errorf("delete: %w", domain.ErrRecordNotFound), http.StatusNotFound, "not found"},
		{"provider", fmt.Errorf("search: %w", domain.ErrProviderUnavailable), http.StatusBadGateway, "content provider unavailable"},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot, "short and stout"},
		{"unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	handler := NewHTTPErrorHandler(zerolog.Nop())
	e := echo.New()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handler(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, resp.Error)
			}

			wantHeader := ""
			if tc.code == http.StatusUnauthorized {
				wantHeader = "Bearer"
			}
			if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != wantHeader {
				t.Fatalf("WWW-Authenticate: expected %q, got %q", wantHeader, got)
			}
		})
	}
}

func TestHTTPErrorHandler_InvalidInputKeepsDetail(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	handler(fmt.Errorf("%w: query is required", domain.ErrInvalidInput), c)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Error != "invalid input: query is required" {
		t.Fatalf("unexpected message %q", resp.Error)
	}
}

func TestHTTPErrorHandler_CommittedResponseUntouched(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := c.String(http.StatusOK, "done"); err != nil {
		t.Fatalf("write: %v", err)
	}
	handler(errors.New("late failure"), c)

	if rec.Code != http.StatusOK || rec.Body.String() != "done" {
		t.Fatalf("committed response modified: %d %q", rec.Code, rec.Body.String())
	}
}

func TestHTTPErrorHandler_SingleAuthenticateHeader(t *testing.T) {
	handler := NewHTTPErrorHandler(zerolog.Nop())
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	handler(echo.NewHTTPError(http.StatusUnauthorized, "could not validate credentials"), c)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if got := rec.Header().Values(echo.HeaderWWWAuthenticate); len(got) != 1 || got[0] != "Bearer" {
		t.Fatalf("expected one Bearer challenge, got %v", got)
	}
}
