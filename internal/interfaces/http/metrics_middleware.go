package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/marketplace-api/pkg/metrics"
)

// MetricsMiddleware cuenta peticiones y mide latencia por ruta registrada (no por path literal).
func MetricsMiddleware(m *metrics.ServerMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}
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
		handler := c.Route().Path
		m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Microseconds()) / 1000)
		return err
	}
}
