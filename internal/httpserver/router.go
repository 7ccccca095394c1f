package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	authmw "github.com/warrantyhub/warranty-system/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	AttachUser  *authmw.AttachUser
}

// exempt routes bypass token validation entirely. Login is deliberately not
// here: a caller presenting a still-valid token should get the 202 no-op,
// which requires the middleware to have attached the identity first.
var exempt = map[string]struct{}{
	"/health/live":  {},
	"/health/ready": {},
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(ecM.Recover(), ecM.RequestID(), ecM.Secure())

	d.AttachUser.Skipper = func(c echo.Context) bool {
		_, ok := exempt[c.Path()]
		return ok
	}
	e.Use(d.AttachUser.Middleware())

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/auth")
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout, authmw.RequireUser)
	auth.POST("/role", d.AuthHandler.Role)
}
