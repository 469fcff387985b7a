package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"bizadmin-service/prometheus"
)

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "healthy",
		"service": "bizadmin-service",
	})
}

// Metrics exposes the Prometheus metrics endpoint
func (h *Handler) Metrics(c echo.Context) error {
	prometheus.GetPrometheusHandler().ServeHTTP(c.Response(), c.Request())
	return nil
}
