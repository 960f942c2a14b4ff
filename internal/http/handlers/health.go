package handlers

import "net/http"

// Health handles GET /v1/healthz.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"env":    a.Config.AppEnv,
	})
}
