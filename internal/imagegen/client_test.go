package imagegen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"posterlab/internal/domain"
)

func TestCreateTaskSuccess(t *testing.T) {
	var gotAuth string
	var gotReq TaskRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tasks" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(createTaskResponse{TaskID: "task-42"})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	id, err := c.CreateTask(context.Background(), TaskRequest{
		Prompt:       "a poster",
		AspectRatio:  "3:4",
		Resolution:   "2K",
		OutputFormat: "png",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if id != "task-42" {
		t.Fatalf("task id = %q", id)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotReq.Prompt != "a poster" || gotReq.Resolution != "2K" {
		t.Fatalf("request payload = %+v", gotReq)
	}
}

func TestCreateTaskStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantKind  domain.ErrorKind
		wantRetry bool
	}{
		{"unauthorized", http.StatusUnauthorized, domain.KindInvalidCredentials, false},
		{"payment required", http.StatusPaymentRequired, domain.KindProviderBalanceExhausted, false},
		{"bad request", http.StatusBadRequest, domain.KindInvalidParameters, false},
		{"rate limited", http.StatusTooManyRequests, domain.KindRateLimited, true},
		{"server error", http.StatusBadGateway, domain.KindProviderFailure, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(createTaskResponse{Message: "nope"})
			}))
			defer srv.Close()

			c := NewClient(Options{BaseURL: srv.URL, APIKey: "sk-test"})
			_, err := c.CreateTask(context.Background(), TaskRequest{Prompt: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := domain.KindOf(err); got != tt.wantKind {
				t.Fatalf("kind = %s, want %s", got, tt.wantKind)
			}
			if domain.IsRetryable(err) != tt.wantRetry {
				t.Fatalf("retryable = %v, want %v", domain.IsRetryable(err), tt.wantRetry)
			}
		})
	}
}

func TestCreateTaskMissingKey(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://unused", APIKey: "  "})
	_, err := c.CreateTask(context.Background(), TaskRequest{Prompt: "x"})
	if !domain.IsKind(err, domain.KindInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestGetTask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/task-42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TaskStatus{
			State:      StateSuccess,
			ResultURLs: []string{"https://cdn.example/out.png"},
		})
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	status, err := c.GetTask(context.Background(), "task-42")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if status.State != StateSuccess || len(status.ResultURLs) != 1 {
		t.Fatalf("status = %+v", status)
	}
}

func TestGetTaskServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, APIKey: "sk-test"})
	_, err := c.GetTask(context.Background(), "task-42")
	if err == nil || !domain.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}
