package api

import (
	"milk-collection-service/internal/api/handlers"
	"milk-collection-service/internal/platform/metrics"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(runs *handlers.RunHandler) http.Handler {
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware(), metricsMiddleware(), bodyLimitMiddleware(maxBodyBytes))

	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/runs", runs.Create)
	v1.GET("/runs", runs.List)
	v1.POST("/runs/manual", runs.Manual)
	v1.GET("/runs/compare", runs.Compare)
	v1.GET("/runs/:id", runs.Get)
	v1.GET("/runs/:id/metrics", runs.Metrics)

	return r
}
