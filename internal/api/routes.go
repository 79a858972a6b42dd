package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		CorrelationID(),
		Logging(h.logger),
	)

	// Projects
	mux.Handle("GET /api/v1/projects", chain(http.HandlerFunc(h.ListProjects)))
	mux.Handle("POST /api/v1/projects", chain(http.HandlerFunc(h.CreateProject)))
	mux.Handle("GET /api/v1/projects/{id}", chain(http.HandlerFunc(h.GetProject)))
	mux.Handle("GET /api/v1/projects/{id}/status", chain(http.HandlerFunc(h.GetProjectStatus)))
	mux.Handle("GET /api/v1/projects/{id}/audit", chain(http.HandlerFunc(h.GetAuditLogs)))

	// Requirements
	mux.Handle("GET /api/v1/projects/{id}/requirements", chain(http.HandlerFunc(h.ListRequirements)))
	mux.Handle("POST /api/v1/projects/{id}/requirements", chain(http.HandlerFunc(h.CreateRequirement)))

	// Gateway
	mux.Handle("POST /api/v1/projects/{id}/gateway", chain(http.HandlerFunc(h.GatewayTransition)))
	mux.Handle("GET /api/v1/projects/{id}/gateway/history", chain(http.HandlerFunc(h.GatewayHistory)))

	// Retry
	mux.Handle("POST /api/v1/projects/{id}/retry/{agent}", chain(http.HandlerFunc(h.RetryAgent)))
}
