package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"posterlab/internal/domain"
	"posterlab/internal/generation"
	"posterlab/internal/middleware"
	"posterlab/internal/sqlinline"
)

// generateBodySlack covers the JSON framing around inline image payloads.
const generateBodySlack = 1 << 20

// Generate handles POST /v1/posters/generate. The connection stays open for
// the full provider round trip; clients are expected to use long timeouts.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := middleware.RequestIDFromContext(r.Context())

	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.writeError(w, http.StatusUnauthorized, string(domain.KindAuthenticationRequired), "")
		return
	}

	// Inline data URIs make request bodies big: allow every image slot at
	// its maximum plus framing.
	maxBody := a.Config.MaxAssetBytes*(domain.MaxLogoImages+4) + generateBodySlack
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	var req domain.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, http.StatusBadRequest, string(domain.KindInvalidParameters), "malformed request body")
		return
	}
	req.Origin = r.Header.Get("Origin")
	req.Language = middleware.LocaleFromContext(r.Context())

	if err := req.Validate(a.Config.PromptMaxChars); err != nil {
		a.writeError(w, http.StatusBadRequest, string(domain.KindOf(err)), err.Error())
		return
	}

	result, err := a.Orchestrator.Generate(r.Context(), requestID, userID, &req)
	a.recordUsage(r.Context(), userID, requestID, &req, result, err, time.Since(start))
	if err != nil {
		a.writeGenerateError(w, requestID, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"imageUrl":  result.ImageURL,
		"taskId":    result.TaskID,
		"watermark": result.Watermark,
	})
}

func (a *App) writeGenerateError(w http.ResponseWriter, requestID string, err error) {
	var denial *generation.InsufficientCreditsError
	if errors.As(err, &denial) {
		a.writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"success":   false,
			"error":     string(domain.KindInsufficientCredits),
			"message":   denial.Reason,
			"remaining": denial.Remaining,
			"needed":    denial.Needed,
			"is_free":   denial.Watermark,
		})
		return
	}

	kind := domain.KindOf(err)
	switch kind {
	case domain.KindAuthenticationRequired:
		a.writeError(w, http.StatusUnauthorized, string(kind), "")
	case domain.KindInvalidParameters,
		domain.KindInvalidAssetFormat,
		domain.KindAssetTooLarge,
		domain.KindUnresolvedRelativePath:
		a.writeError(w, http.StatusBadRequest, string(kind), err.Error())
	case domain.KindRateLimited:
		a.writeError(w, http.StatusTooManyRequests, string(kind), "provider is rate limiting, retry later")
	default:
		// Everything else (asset fetch, provider, polling, internal) is a
		// server-side failure from the client's point of view.
		a.Logger.Error().Err(err).Str("request_id", requestID).Str("kind", string(kind)).Msg("generation failed")
		a.writeError(w, http.StatusInternalServerError, string(kind), "")
	}
}

// recordUsage persists one usage event per attempt, success or not. Failures
// are logged and swallowed: accounting must never break the response.
func (a *App) recordUsage(ctx context.Context, userID, requestID string, req *domain.GenerationRequest, result *domain.GenerationResult, genErr error, latency time.Duration) {
	props := map[string]any{
		"resolution":    string(req.Resolution),
		"aspect_ratio":  req.AspectRatio,
		"output_format": req.OutputFormat,
		"clone_mode":    req.CloneMode || req.HasReferenceImage(),
	}
	if result != nil {
		props["task_id"] = result.TaskID
	}
	if genErr != nil {
		props["error_kind"] = string(domain.KindOf(genErr))
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		propsJSON = []byte("{}")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err = a.SQL.Exec(ctx, sqlinline.QInsertUsageEvent,
		userID, requestID, "poster_generation", genErr == nil, latency.Milliseconds(), string(propsJSON))
	if err != nil {
		a.Logger.Warn().Err(err).Str("request_id", requestID).Msg("recording usage event failed")
	}
}
