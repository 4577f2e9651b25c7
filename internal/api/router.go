package api

import (
	"net/http"
	"route-optimization-service/internal/api/handlers"
	"route-optimization-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(optimizer handlers.RouteOptimizer, deliveries ports.DeliveryRepository) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Optimizer: optimizer}
	deliveryHandler := &handlers.DeliveryHandler{Repo: deliveries}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/deliveries", deliveryHandler.List)
	mux.HandleFunc("POST /v1/routes/optimize", routeHandler.Optimize)

	return requestIDMiddleware(loggingMiddleware(mux))
}
