package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hakancineli/smmmm/prometheus"
)

// HealthCheck returns service liveness
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// MetricsHandler exposes Prometheus metrics
func MetricsHandler(c echo.Context) error {
	prometheus.Handler().ServeHTTP(c.Response(), c.Request())
	return nil
}
