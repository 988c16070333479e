// Package kie talks to the kie.ai task API, the asynchronous provider
// strategy: submission returns a task identifier, completion is observed by
// polling the record-info endpoint.
package kie

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/providers"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("kie: api key is required")

// Task state flags reported by the record-info endpoint.
const (
	flagProcessing      = 0
	flagSucceeded       = 1
	flagFailed          = 2
	flagPolicyViolation = 3
)

// Options configures the kie client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to a kie.ai-compatible task API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type createTaskRequest struct {
	Model       string `json:"model"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

type createTaskResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type recordInfoResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		TaskID      string `json:"taskId"`
		SuccessFlag int    `json:"successFlag"`
		Response    struct {
			ResultURLs []string `json:"resultUrls"`
		} `json:"response"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.kie.ai"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "veo3_fast"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Submit implements the asynchronous provider strategy: the provider accepts
// the job and hands back a task id, the returned handle is non-terminal.
func (c *Client) Submit(ctx context.Context, prompt string, opts providers.Options) (*domain.JobHandle, error) {
	if c.apiKey == "" {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, ErrMissingAPIKey, "kie client not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "kie: prompt is required")
	}
	payload := createTaskRequest{
		Model:       c.model,
		Prompt:      prompt,
		AspectRatio: opts.AspectRatio,
		Resolution:  opts.Resolution,
	}
	var decoded createTaskResponse
	if err := c.postJSON(ctx, "/api/v1/jobs/createTask", payload, &decoded); err != nil {
		return nil, err
	}
	if decoded.Code != 200 {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission,
			"kie: create task rejected: code %d: %s", decoded.Code, decoded.Msg)
	}
	if decoded.Data.TaskID == "" {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "kie: create task returned no task id")
	}
	c.logger.Debug().Str("task_id", decoded.Data.TaskID).Str("model", c.model).Msg("kie: task accepted")
	return &domain.JobHandle{
		Provider: domain.ProviderAsyncTask,
		TaskID:   decoded.Data.TaskID,
		State:    domain.JobStateSubmitted,
	}, nil
}

// Status queries the record-info endpoint and maps the provider's success
// flag onto the shared task states. Flag 3 is the provider's content policy
// rejection and must stay distinguishable from ordinary failures.
func (c *Client) Status(ctx context.Context, taskID string) (providers.TaskStatus, error) {
	endpoint := c.baseURL + "/api/v1/jobs/recordInfo?taskId=" + url.QueryEscape(taskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return providers.TaskStatus{}, fmt.Errorf("kie: build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providers.TaskStatus{}, fmt.Errorf("kie: status request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.TaskStatus{}, fmt.Errorf("kie: read status response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return providers.TaskStatus{}, fmt.Errorf("kie: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded recordInfoResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return providers.TaskStatus{}, fmt.Errorf("kie: decode status response: %w", err)
	}
	if decoded.Code != 200 {
		return providers.TaskStatus{}, fmt.Errorf("kie: record info rejected: code %d: %s", decoded.Code, decoded.Msg)
	}
	switch decoded.Data.SuccessFlag {
	case flagProcessing:
		return providers.TaskStatus{State: providers.TaskProcessing}, nil
	case flagSucceeded:
		if len(decoded.Data.Response.ResultURLs) == 0 {
			return providers.TaskStatus{
				State:   providers.TaskFailed,
				Message: "task succeeded without result urls",
			}, nil
		}
		return providers.TaskStatus{
			State:     providers.TaskSucceeded,
			ResultRef: decoded.Data.Response.ResultURLs[0],
		}, nil
	case flagPolicyViolation:
		return providers.TaskStatus{
			State:   providers.TaskPolicyViolation,
			Message: defaultMessage(decoded.Data.ErrorMessage, "content rejected by provider safety system"),
		}, nil
	case flagFailed:
		return providers.TaskStatus{
			State:   providers.TaskFailed,
			Message: defaultMessage(decoded.Data.ErrorMessage, "task failed"),
		}, nil
	default:
		return providers.TaskStatus{
			State:   providers.TaskFailed,
			Message: fmt.Sprintf("unknown success flag %d", decoded.Data.SuccessFlag),
		}, nil
	}
}

// Download fetches a provider-hosted result file.
func (c *Client) Download(ctx context.Context, resultURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("kie: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("kie: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("kie: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("kie: read result: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	return data, contentType, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.WrapError(domain.ErrKindProviderSubmission, err, "kie: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.WrapError(domain.ErrKindProviderSubmission, err, "kie: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrKindProviderSubmission, err, "kie: http request")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WrapError(domain.ErrKindProviderSubmission, err, "kie: read response")
	}
	if resp.StatusCode >= 300 {
		return domain.Errorf(domain.ErrKindProviderSubmission,
			"kie: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.WrapError(domain.ErrKindProviderSubmission, err, "kie: decode response")
	}
	return nil
}

func defaultMessage(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}

var _ providers.Submitter = (*Client)(nil)
var _ providers.Downloader = (*Client)(nil)
