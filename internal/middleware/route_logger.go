package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RouteLogger logs one line per completed request with status, duration, and
// the resolved org when auth already ran.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := log.Info()
		if status >= fiber.StatusInternalServerError {
			entry = log.Error()
		}
		entry = entry.
			Str("trace_id", GetTraceID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Int64("ms", time.Since(start).Milliseconds())
		if auth := GetAuth(c); auth != nil {
			entry = entry.Str("org_id", auth.OrgID.String())
		}
		entry.Msg("request completed")
		return err
	}
}
