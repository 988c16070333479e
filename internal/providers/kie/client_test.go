package kie

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"studio/internal/domain"
	"studio/internal/providers"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "veo3_fast",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestSubmitReturnsPendingHandle(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/jobs/createTask" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "veo3_fast" || req.Prompt != "a product video" {
			t.Errorf("unexpected payload: %+v", req)
		}
		fmt.Fprint(w, `{"code":200,"msg":"success","data":{"taskId":"task-42"}}`)
	}))

	handle, err := client.Submit(context.Background(), "a product video", providers.Options{AspectRatio: "16:9"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if handle.Provider != domain.ProviderAsyncTask {
		t.Errorf("provider = %q, want async task", handle.Provider)
	}
	if handle.TaskID != "task-42" {
		t.Errorf("task id = %q", handle.TaskID)
	}
	if handle.State.Terminal() {
		t.Errorf("state = %q, want non-terminal", handle.State)
	}
}

func TestSubmitRejectedBecomesSubmissionError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":402,"msg":"insufficient credits","data":{}}`)
	}))

	_, err := client.Submit(context.Background(), "a video", providers.Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindProviderSubmission {
		t.Errorf("error kind = %q, want provider submission", kind)
	}
}

func TestStatusMapsSuccessFlags(t *testing.T) {
	cases := []struct {
		name      string
		body      string
		wantState providers.TaskState
		wantRef   string
	}{
		{
			name:      "processing",
			body:      `{"code":200,"data":{"taskId":"t","successFlag":0}}`,
			wantState: providers.TaskProcessing,
		},
		{
			name:      "succeeded",
			body:      `{"code":200,"data":{"taskId":"t","successFlag":1,"response":{"resultUrls":["https://cdn.example.com/v.mp4"]}}}`,
			wantState: providers.TaskSucceeded,
			wantRef:   "https://cdn.example.com/v.mp4",
		},
		{
			name:      "failed",
			body:      `{"code":200,"data":{"taskId":"t","successFlag":2,"errorMessage":"render crashed"}}`,
			wantState: providers.TaskFailed,
		},
		{
			name:      "policy violation",
			body:      `{"code":200,"data":{"taskId":"t","successFlag":3}}`,
			wantState: providers.TaskPolicyViolation,
		},
		{
			name:      "succeeded without urls",
			body:      `{"code":200,"data":{"taskId":"t","successFlag":1,"response":{"resultUrls":[]}}}`,
			wantState: providers.TaskFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("taskId"); got != "t" {
					t.Errorf("taskId query = %q", got)
				}
				fmt.Fprint(w, tc.body)
			}))
			status, err := client.Status(context.Background(), "t")
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if status.State != tc.wantState {
				t.Errorf("state = %q, want %q", status.State, tc.wantState)
			}
			if status.ResultRef != tc.wantRef {
				t.Errorf("result ref = %q, want %q", status.ResultRef, tc.wantRef)
			}
		})
	}
}

func TestStatusTransportErrorSurfaces(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))

	_, err := client.Status(context.Background(), "t")
	if err == nil {
		t.Fatal("expected transport error")
	}
}
