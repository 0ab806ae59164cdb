package handlers

import (
	"context"
	"database/sql"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/version"
)

// HealthHandler reports API liveness and database reachability.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthOutput represents the health check response.
type HealthOutput struct {
	Body struct {
		Status   string `json:"status" doc:"Overall status: healthy or degraded"`
		Version  string `json:"version" doc:"Running API version"`
		Database string `json:"database" doc:"Database status: ok or unreachable"`
	}
}

// Check returns the health status of the API.
func (h *HealthHandler) Check(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "healthy"
	out.Body.Version = version.Get().Short()
	out.Body.Database = "ok"

	if err := h.db.PingContext(ctx); err != nil {
		out.Body.Status = "degraded"
		out.Body.Database = "unreachable"
	}
	return out, nil
}

// Livez is the liveness probe.
func (h *HealthHandler) Livez(ctx context.Context, _ *struct{}) (*struct{}, error) {
	return &struct{}{}, nil
}

// Readyz is the readiness probe; it fails when the database is down.
func (h *HealthHandler) Readyz(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := h.db.PingContext(ctx); err != nil {
		return nil, huma.Error503ServiceUnavailable("database unreachable")
	}
	return &struct{}{}, nil
}
