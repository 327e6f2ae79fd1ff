package middleware // middleware provides shared request processing for handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxName   = "name"
	CtxRole   = "role"
)

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and injects the subject, email, name and role claims into the
// request context. The secret must match the one used when issuing
// access tokens.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseAccess(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxName, claims.Name)
			c.Set(CtxRole, claims.Role)
			return next(c)
		}
	}
}
