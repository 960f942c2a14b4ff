package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"posterlab/internal/domain"
)

type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Client is a thin JSON client for the generation provider's task API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		httpClient: client,
		baseURL:    base,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

type createTaskResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// CreateTask submits a generation job and returns the provider task id.
// 401, 402 and 400 are terminal; 429 is retryable at the caller.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (string, error) {
	if c.token == "" {
		return "", domain.NewError(domain.KindInvalidCredentials, "imagegen: api key is missing")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.WrapError(domain.KindProviderFailure, err, "imagegen: create task").Retry()
	}
	defer resp.Body.Close()

	var out createTaskResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", domain.NewError(domain.KindInvalidCredentials, "imagegen: invalid credentials")
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", domain.NewError(domain.KindProviderBalanceExhausted, "imagegen: provider balance exhausted")
	case resp.StatusCode == http.StatusBadRequest:
		return "", domain.Errorf(domain.KindInvalidParameters, "imagegen: rejected parameters: %s", out.Message)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", domain.NewError(domain.KindRateLimited, "imagegen: rate limited").Retry()
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", domain.Errorf(domain.KindProviderFailure, "imagegen: http %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("imagegen: decode create response: %w", decodeErr)
	}
	if strings.TrimSpace(out.TaskID) == "" {
		return "", domain.NewError(domain.KindProviderFailure, "imagegen: empty task id")
	}
	return out.TaskID, nil
}

// GetTask fetches the current status of a task. Transport failures and non-2xx
// responses come back as retryable errors; the poller counts them.
func (c *Client) GetTask(ctx context.Context, taskID string) (TaskStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+taskID, nil)
	if err != nil {
		return TaskStatus{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return TaskStatus{}, domain.WrapError(domain.KindProviderFailure, err, "imagegen: poll task").Retry()
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TaskStatus{}, domain.Errorf(domain.KindProviderFailure, "imagegen: poll http %d", resp.StatusCode).Retry()
	}
	var out TaskStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TaskStatus{}, domain.WrapError(domain.KindProviderFailure, err, "imagegen: decode poll response").Retry()
	}
	return out, nil
}
