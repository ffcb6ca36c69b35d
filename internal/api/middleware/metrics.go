package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPRecorder is implemented by metrics.Manager
type HTTPRecorder interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

const unmatchedRoute = "unmatched"

// Metrics records every request under its route pattern.
func Metrics(recorder HTTPRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		resolve(c, c.Next())

		status := c.Response().StatusCode()
		route := unmatchedRoute
		if status != fiber.StatusNotFound {
			route = c.Route().Path
		}

		recorder.ObserveHTTPRequest(c.Method(), route, status, time.Since(start))

		return nil
	}
}
