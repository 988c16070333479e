// Package fal talks to the fal.ai image endpoint, the synchronous provider
// strategy: one POST that blocks until the provider returns result URLs or an
// error string.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/providers"
)

// ErrMissingAPIKey indicates the client was configured without credentials.
var ErrMissingAPIKey = errors.New("fal: api key is required")

// Options configures the fal client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to a fal.ai-compatible generation API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type generateRequest struct {
	Prompt       string   `json:"prompt"`
	NumImages    int      `json:"num_images,omitempty"`
	AspectRatio  string   `json:"aspect_ratio,omitempty"`
	OutputFormat string   `json:"output_format,omitempty"`
	ImageURLs    []string `json:"image_urls,omitempty"`
}

type generateResponse struct {
	Success bool     `json:"success"`
	Images  []string `json:"images"`
	Error   string   `json:"error"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://fal.run"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "fal-ai/gpt-image-1"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Submit implements the synchronous provider strategy: the call blocks until
// the provider answers, and the returned handle is always terminal.
func (c *Client) Submit(ctx context.Context, prompt string, opts providers.Options) (*domain.JobHandle, error) {
	if c.apiKey == "" {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, ErrMissingAPIKey, "fal client not configured")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "fal: prompt is required")
	}
	payload := generateRequest{
		Prompt:       prompt,
		NumImages:    opts.Quantity,
		AspectRatio:  opts.AspectRatio,
		OutputFormat: opts.OutputFormat,
		ImageURLs:    opts.ImageURLs,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "fal: encode request")
	}
	endpoint := c.baseURL + "/" + c.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "fal: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "fal: http request")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "fal: read response")
	}
	if resp.StatusCode >= 300 {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission,
			"fal: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "fal: decode response")
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "provider reported failure without detail"
		}
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "fal: %s", msg)
	}
	if len(decoded.Images) == 0 {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "fal: empty result set")
	}
	c.logger.Debug().Str("model", c.model).Int("images", len(decoded.Images)).Msg("fal: generation complete")
	return &domain.JobHandle{
		Provider:  domain.ProviderSynchronous,
		State:     domain.JobStateSucceeded,
		ResultRef: decoded.Images[0],
	}, nil
}

// Download fetches a provider-hosted result image.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("fal: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fal: download result: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fal: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fal: read result: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}
	return data, contentType, nil
}

var _ providers.Submitter = (*Client)(nil)
var _ providers.Downloader = (*Client)(nil)
