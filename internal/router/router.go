package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/babymonitor-readings/internal/handler" // import the handlers that implement the endpoints
)

// LegacyReadingsPath is the script path dashboards were built against.
const LegacyReadingsPath = "/get_data.php"

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and, when metrics is non-nil, the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	// Liveness for load balancers; does not touch the database.
	e.GET("/healthz", handler.Health)
	// Readiness pings the readings database.
	e.GET("/readyz", handler.Ready(db))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterReadings exposes the recent-readings endpoint under /v1/readings
// and the legacy script path.  Both accept GET and POST; the limit is always
// read from the query string.  mw is applied to these routes only, so the
// response cache and rate limiter never see health checks or scrapes.
func RegisterReadings(e *echo.Echo, h *handler.ReadingHandler, mw ...echo.MiddlewareFunc) {
	for _, path := range []string{"/v1/readings", LegacyReadingsPath} {
		e.GET(path, h.GetRecent, mw...)
		e.POST(path, h.GetRecent, mw...)
	}
}
