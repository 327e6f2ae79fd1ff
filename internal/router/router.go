// Package router wires HTTP routes to handlers. Which groups get
// registered depends on the store driver: the person registry is always
// available, while palcos and auth require the mysql driver.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/acmevents/palco-checkin/internal/config"
	"github.com/acmevents/palco-checkin/internal/handler"
	"github.com/acmevents/palco-checkin/internal/middleware"
)

// Deps carries the constructed handlers and optional middleware. Nil
// handlers skip their route group; nil middleware means pass-through.
type Deps struct {
	People *handler.PersonHandler
	Palcos *handler.PalcoHandler      // mysql driver only
	Auth   *handler.AuthHandler       // mysql driver only
	Seats  *handler.SeatMatrixHandler // file driver only

	RateLimit echo.MiddlewareFunc // applied to login
	Cache     echo.MiddlewareFunc // applied to palco listing and grids
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, cfg config.Config, d Deps) {
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.RateLimit == nil {
		d.RateLimit = passthrough
	}
	if d.Cache == nil {
		d.Cache = passthrough
	}

	// Liveness for load balancers, with and without the API prefix.
	e.GET("/health", handler.Health)
	e.GET("/api/health", handler.Health)
	e.GET("/api", handler.APIRoot)

	// Person registry: create/list/update/delete plus the two check-in
	// operations and the substring search.
	people := e.Group("/api/people")
	people.GET("", d.People.List)
	people.POST("", d.People.Create)
	people.GET("/search", d.People.Search)
	people.POST("/checkin/by-name", d.People.CheckInByName)
	people.PUT("/:id", d.People.Update)
	people.DELETE("/:id", d.People.Delete)
	people.POST("/:id/checkin", d.People.CheckInByID)

	// Palco catalog and seat occupancy.
	if d.Palcos != nil {
		palcos := e.Group("/api/palcos")
		palcos.GET("", d.Palcos.List, d.Cache)
		palcos.GET("/:id/seats", d.Palcos.Grid, d.Cache)
		palcos.POST("/:id/seats", d.Palcos.CreateSeats)
		palcos.DELETE("/:id/seats/:code", d.Palcos.DeleteSeat)
		palcos.POST("/palco-seat/:seatId/assign", d.Palcos.Assign)
		palcos.POST("/palco-seat/:seatId/present", d.Palcos.Present)
		palcos.POST("/palco-seat/:seatId/release", d.Palcos.Release)

		// Creating palcos is an admin operation behind a bearer token.
		e.POST("/api/palcos", d.Palcos.Create,
			middleware.JWTAuth(cfg.JWTAccessSecret), middleware.RequireRole("admin"))
	}

	// Auth: login carries the rate limiter; refresh and logout work off
	// the rt cookie scoped to this prefix.
	if d.Auth != nil {
		auth := e.Group("/api/auth")
		auth.POST("/login", d.Auth.Login, d.RateLimit)
		auth.POST("/refresh", d.Auth.Refresh)
		auth.POST("/logout", d.Auth.Logout)
		auth.GET("/me", d.Auth.Me)
	}

	// Flat seat matrix of the JSON-file fallback mode.
	if d.Seats != nil {
		e.GET("/api/seats", d.Seats.Matrix)
	}
}
