package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// levelFor maps a response status to the access log level.
func levelFor(status int) slog.Level {
	switch {
	case status >= fiber.StatusInternalServerError:
		return slog.LevelError
	case status >= fiber.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Logger writes one access line per request after the error handler has
// settled the final status.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		resolve(c, c.Next())

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_in", len(c.Body())),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if status != fiber.StatusNotFound {
			attrs = append(attrs, slog.String("route", c.Route().Path))
		}
		if ua := c.Get(fiber.HeaderUserAgent); ua != "" {
			attrs = append(attrs, slog.String("user_agent", ua))
		}

		logger.LogAttrs(c.UserContext(), levelFor(status), "http request", attrs...)
		return nil
	}
}
