package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"posterlab/internal/domain"
	"posterlab/internal/generation"
	"posterlab/internal/infra"
	"posterlab/internal/middleware"
)

type recordingSQL struct {
	execs    int
	lastArgs []any
}

func (s *recordingSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs++
	s.lastArgs = args
	return pgconn.CommandTag{}, nil
}

func (s *recordingSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	panic("not used")
}

func (s *recordingSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

type fakeOrchestrator struct {
	result *domain.GenerationResult
	err    error
	calls  int
	lang   string
}

func (o *fakeOrchestrator) Generate(ctx context.Context, requestID, userID string, req *domain.GenerationRequest) (*domain.GenerationResult, error) {
	o.calls++
	o.lang = req.Language
	if o.err != nil {
		return nil, o.err
	}
	return o.result, nil
}

func testApp(orch *fakeOrchestrator) (*App, *recordingSQL) {
	sql := &recordingSQL{}
	return &App{
		SQL:    sql,
		Logger: zerolog.Nop(),
		Config: &infra.Config{
			AppEnv:         "test",
			MaxAssetBytes:  10 << 20,
			PromptMaxChars: 2000,
		},
		Orchestrator: orch,
	}, sql
}

func postGenerate(app *App, body string, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/posters/generate", strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	app.Generate(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestGenerateSuccess(t *testing.T) {
	orch := &fakeOrchestrator{result: &domain.GenerationResult{
		ImageURL:  "https://cdn.example/poster.png",
		TaskID:    "task-9",
		Watermark: true,
	}}
	app, sql := testApp(orch)

	rec := postGenerate(app, `{"prompt":"affiche concert samedi","resolution":"2K"}`, "user-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true || body["imageUrl"] != "https://cdn.example/poster.png" || body["taskId"] != "task-9" {
		t.Fatalf("body = %v", body)
	}
	if sql.execs != 1 {
		t.Fatalf("usage events = %d", sql.execs)
	}
	if sql.lastArgs[3] != true {
		t.Fatalf("usage success arg = %v", sql.lastArgs[3])
	}
}

func TestGenerateWithoutUser(t *testing.T) {
	orch := &fakeOrchestrator{}
	app, sql := testApp(orch)

	rec := postGenerate(app, `{"prompt":"x"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "AUTHENTICATION_REQUIRED" {
		t.Fatalf("body = %v", body)
	}
	if orch.calls != 0 || sql.execs != 0 {
		t.Fatal("unauthenticated request must not reach the orchestrator")
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	app, _ := testApp(&fakeOrchestrator{})

	rec := postGenerate(app, `{"prompt": `, "user-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerateValidationFailure(t *testing.T) {
	orch := &fakeOrchestrator{}
	app, _ := testApp(orch)

	rec := postGenerate(app, `{"prompt":"", "resolution":"8K"}`, "user-1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "INVALID_PARAMETERS" {
		t.Fatalf("body = %v", body)
	}
	if orch.calls != 0 {
		t.Fatal("invalid request must not reach the orchestrator")
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	orch := &fakeOrchestrator{err: &generation.InsufficientCreditsError{
		Remaining: 1,
		Needed:    4,
		Reason:    "insufficient_credits",
		Watermark: true,
	}}
	app, sql := testApp(orch)

	rec := postGenerate(app, `{"prompt":"affiche 4k","resolution":"4K"}`, "user-1")
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "INSUFFICIENT_CREDITS" || body["remaining"] != float64(1) || body["needed"] != float64(4) || body["is_free"] != true {
		t.Fatalf("body = %v", body)
	}
	if sql.execs != 1 || sql.lastArgs[3] != false {
		t.Fatal("denied attempt must still be recorded as a failed usage event")
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	orch := &fakeOrchestrator{err: domain.NewError(domain.KindProviderFailure, "boom")}
	app, _ := testApp(orch)

	rec := postGenerate(app, `{"prompt":"affiche"}`, "user-1")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "PROVIDER_FAILURE" || body["success"] != false {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerateAssetErrorsAreClientErrors(t *testing.T) {
	for _, kind := range []domain.ErrorKind{
		domain.KindInvalidAssetFormat,
		domain.KindAssetTooLarge,
		domain.KindUnresolvedRelativePath,
	} {
		orch := &fakeOrchestrator{err: domain.NewError(kind, "bad asset")}
		app, _ := testApp(orch)

		rec := postGenerate(app, `{"prompt":"affiche"}`, "user-1")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("kind %s: status = %d", kind, rec.Code)
		}
		if body := decodeBody(t, rec); body["error"] != string(kind) {
			t.Fatalf("kind %s: body = %v", kind, body)
		}
	}
}

func TestGeneratePassesLocaleThrough(t *testing.T) {
	orch := &fakeOrchestrator{result: &domain.GenerationResult{ImageURL: "u", TaskID: "t"}}
	app, _ := testApp(orch)

	req := httptest.NewRequest(http.MethodPost, "/v1/posters/generate", strings.NewReader(`{"prompt":"affiche"}`))
	ctx := middleware.ContextWithUserID(req.Context(), "user-1")
	ctx = context.WithValue(ctx, middleware.LocaleKey, "en")
	rec := httptest.NewRecorder()
	app.Generate(rec, req.WithContext(ctx))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if orch.lang != "en" {
		t.Fatalf("language = %q", orch.lang)
	}
}

func TestHealth(t *testing.T) {
	app, _ := testApp(&fakeOrchestrator{})
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}
