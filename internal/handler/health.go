package handler // package handler contains the HTTP handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is the liveness endpoint used by load balancers and monitoring
// systems. It is registered at /health and /api/health.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// APIRoot is a sanity-check endpoint at the API prefix.
func APIRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "msg": "API root"})
}
