// Package modal runs generated Python chart code in a remote sandbox and
// returns the rendered PNG.
package modal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

// ErrMissingEndpoint indicates the executor was configured without a sandbox URL.
var ErrMissingEndpoint = errors.New("modal: endpoint is required")

// Options configures the executor.
type Options struct {
	Endpoint       string
	Token          string
	HTTPClient     *http.Client
	Logger         zerolog.Logger
	RequestTimeout time.Duration
}

// Executor submits scripts to a Modal-hosted execution endpoint.
type Executor struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

type executeRequest struct {
	Code     string       `json:"code"`
	DataFile *executeFile `json:"data_file,omitempty"`
}

type executeFile struct {
	Name          string `json:"name"`
	ContentBase64 string `json:"content_base64"`
}

type executeResponse struct {
	Success bool   `json:"success"`
	Image   string `json:"image"`
	Error   string `json:"error"`
}

// NewExecutor constructs an executor with sane defaults.
func NewExecutor(opts Options) (*Executor, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, ErrMissingEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 180 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Executor{
		endpoint:   strings.TrimRight(opts.Endpoint, "/"),
		token:      opts.Token,
		httpClient: httpClient,
		logger:     opts.Logger,
	}, nil
}

// Execute runs the script with the uploaded file mounted at its /mnt/data
// path and returns the decoded PNG bytes.
func (e *Executor) Execute(ctx context.Context, code string, dataFile *domain.Upload) ([]byte, error) {
	if strings.TrimSpace(code) == "" {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "modal: code is required")
	}
	payload := executeRequest{Code: code}
	if dataFile != nil {
		payload.DataFile = &executeFile{
			Name:          dataFile.Name,
			ContentBase64: base64.StdEncoding.EncodeToString(dataFile.Data),
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: http request")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: read response")
	}
	if resp.StatusCode >= 300 {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission,
			"modal: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded executeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: decode response")
	}
	if !decoded.Success {
		msg := decoded.Error
		if msg == "" {
			msg = "sandbox reported failure without detail"
		}
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "modal: execution failed: %s", msg)
	}
	image, err := base64.StdEncoding.DecodeString(decoded.Image)
	if err != nil {
		return nil, domain.WrapError(domain.ErrKindProviderSubmission, err, "modal: decode image")
	}
	if len(image) == 0 {
		return nil, domain.Errorf(domain.ErrKindProviderSubmission, "modal: empty image")
	}
	e.logger.Debug().Int("image_bytes", len(image)).Msg("modal: execution complete")
	return image, nil
}

func (e *Executor) String() string {
	return fmt.Sprintf("modal executor (%s)", e.endpoint)
}
