package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// LoggingMiddleware records one structured line per request.
func LoggingMiddleware(logger *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := logrus.Fields{
			"ip":      c.IP(),
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  c.Response().StatusCode(),
			"latency": time.Since(start).String(),
		}
		if err != nil {
			logger.WithFields(fields).WithError(err).Error("request failed")
			return err
		}

		entry := logger.WithFields(fields)
		if c.Response().StatusCode() >= 500 {
			entry.Error("request")
		} else {
			entry.Info("request")
		}
		return nil
	}
}
