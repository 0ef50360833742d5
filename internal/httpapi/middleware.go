package httpapi

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pspoerri/fosfix/internal/logging"
)

// AccessLogMiddleware attaches a request-scoped logger to the user context,
// renders handler errors, then logs and counts the request.
func AccessLogMiddleware(deps *Dependencies) fiber.Handler {
	base := deps.logger()
	return func(c *fiber.Ctx) error {
		start := time.Now()

		ctx := c.UserContext()
		if id, ok := c.Locals("requestid").(string); ok && id != "" {
			ctx = logging.ContextWithRequestID(ctx, id)
		}
		ctx, log := logging.WithRequestLogger(ctx, base)
		c.SetUserContext(ctx)

		err := c.Next()
		if err != nil {
			// Render now so the logged and counted status is the final one.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		deps.Metrics.ObserveHTTP(c.Method(), path, status, elapsed)

		fields := []logging.Field{
			logging.String("method", c.Method()),
			logging.String("path", c.Path()),
			logging.Int("status", status),
			logging.String("latency", elapsed.String()),
			logging.Int("bytes_out", len(c.Response().Body())),
		}
		msg := fmt.Sprintf("%s %s", c.Method(), c.Path())
		switch {
		case err != nil && status >= 500:
			log.Error(ctx, msg, append(fields, logging.Err(err))...)
		case status >= 400:
			if err != nil {
				fields = append(fields, logging.Err(err))
			}
			log.Warn(ctx, msg, fields...)
		default:
			log.Info(ctx, msg, fields...)
		}
		return nil
	}
}
