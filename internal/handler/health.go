package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ModelStatus interface {
	Loaded() bool
}

type HealthHandler struct {
	db      Pinger
	model   ModelStatus
	appName string
	version string
}

func NewHealthHandler(db Pinger, model ModelStatus, appName, version string) *HealthHandler {
	return &HealthHandler{db: db, model: model, appName: appName, version: version}
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"message": h.appName,
		"version": h.version,
	})
}

// Health reports database and model state. A down database makes it 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, database, code := "healthy", "connected", http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		slog.Error("health check: database unreachable", "error", err)
		status, database, code = "unhealthy", "disconnected", http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]any{
		"status":       status,
		"model_loaded": h.model != nil && h.model.Loaded(),
		"database":     database,
	})
}

func (h *HealthHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}
