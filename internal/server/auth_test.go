package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestWithAuthRejectsMissingToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/minutes", nil)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler := withAuth(func(c echo.Context) error { return c.NoContent(http.StatusOK) }, []byte("secret"))
	err := handler(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestWithAuthAcceptsSignedToken(t *testing.T) {
	e := echo.New()
	secret := []byte("secret")
	token, err := signJWT("user-1", secret, time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/minutes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler := withAuth(func(c echo.Context) error {
		if got := c.Get("user_id"); got != "user-1" {
			t.Fatalf("expected user_id user-1, got %v", got)
		}
		return c.NoContent(http.StatusOK)
	}, secret)
	if err := handler(ctx); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestWithAuthRejectsWrongSecret(t *testing.T) {
	e := echo.New()
	token, err := signJWT("user-1", []byte("secret-a"), time.Hour)
	if err != nil {
		t.Fatalf("signJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/minutes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)

	handler := withAuth(func(c echo.Context) error { return c.NoContent(http.StatusOK) }, []byte("secret-b"))
	err = handler(ctx)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
