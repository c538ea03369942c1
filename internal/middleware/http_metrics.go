package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/riturajpurohit95/shopSphere-sub000/internal/metrics"
)

// HTTPMetrics records count and latency per route template and writes one access line.
func HTTPMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// lets echo's error handler write the status before it is read
				c.Error(err)
			}

			req := c.Request()
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			elapsed := time.Since(start)

			m.HTTPRequest(req.Context(), req.Method, route, status, elapsed)
			log.Printf("%s %s %d %s", req.Method, route, status, elapsed)
			return nil
		}
	}
}
