package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CORS sets the permissive cross-origin headers dashboards rely on.  They
// are written before the handler runs so every response carries them,
// including errors and requests without an Origin header.  Preflight
// requests are answered with 204.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, "GET, POST")
			h.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}
			return next(c)
		}
	}
}
