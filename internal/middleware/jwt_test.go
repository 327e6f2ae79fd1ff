package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/utils"
)

const testSecret = "guard-secret"

func run(mw echo.MiddlewareFunc, mod func(*http.Request)) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mod != nil {
		mod(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	_ = h(c)
	return rec, c
}

func TestJWTAuthValidToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, "ana@acme.test", "Ana", "admin", 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	rec, c := run(JWTAuth(testSecret), func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+tok.Token)
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := c.Get(CtxUserID); got != uint64(42) {
		t.Errorf("user_id = %v, want 42", got)
	}
	if got := c.Get(CtxRole); got != "admin" {
		t.Errorf("role = %v, want admin", got)
	}
	if got := c.Get(CtxEmail); got != "ana@acme.test" {
		t.Errorf("email = %v", got)
	}
}

func TestJWTAuthRejects(t *testing.T) {
	other, _ := utils.NewAccessToken("other-secret", 1, "a@b.c", "A", "user", 15)
	expired, _ := utils.NewAccessToken(testSecret, 1, "a@b.c", "A", "user", -1)

	cases := []struct {
		name string
		mod  func(*http.Request)
	}{
		{"no header", nil},
		{"not bearer", func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") }},
		{"wrong secret", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+other.Token) }},
		{"expired", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expired.Token) }},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := run(JWTAuth(testSecret), tc.mod)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	withRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				if role != "" {
					c.Set(CtxRole, role)
				}
				return next(c)
			}
		}
	}

	cases := []struct {
		name    string
		role    string
		allowed []string
		want    int
	}{
		{"matching role", "admin", []string{"admin"}, http.StatusOK},
		{"one of several", "staff", []string{"admin", "staff"}, http.StatusOK},
		{"wrong role", "user", []string{"admin"}, http.StatusForbidden},
		{"no role in context", "", []string{"admin"}, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			chain := func(next echo.HandlerFunc) echo.HandlerFunc {
				return withRole(tc.role)(RequireRole(tc.allowed...)(next))
			}
			rec, _ := run(chain, nil)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
