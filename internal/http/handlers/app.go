// Package handlers implements the HTTP surface of the generation API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"posterlab/internal/domain"
	"posterlab/internal/infra"
)

// Orchestrator runs one validated generation request end to end.
type Orchestrator interface {
	Generate(ctx context.Context, requestID, userID string, req *domain.GenerationRequest) (*domain.GenerationResult, error)
}

// App carries the shared dependencies of all handlers.
type App struct {
	SQL          infra.SQLExecutor
	Logger       zerolog.Logger
	Config       *infra.Config
	Orchestrator Orchestrator
}

func (a *App) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.Logger.Error().Err(err).Msg("writing response")
	}
}

// writeError emits the uniform failure envelope: {"success":false,"error":CODE}
// plus an optional human-readable message.
func (a *App) writeError(w http.ResponseWriter, status int, code, message string) {
	body := map[string]any{
		"success": false,
		"error":   code,
	}
	if message != "" {
		body["message"] = message
	}
	a.writeJSON(w, status, body)
}
