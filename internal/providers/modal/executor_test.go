package modal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"studio/internal/domain"
)

func newTestExecutor(t *testing.T, handler http.HandlerFunc) *Executor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	exec, err := NewExecutor(Options{
		Endpoint:   srv.URL,
		Token:      "modal-token",
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return exec
}

func TestExecuteReturnsDecodedImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	var gotReq executeRequest
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer modal-token" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(executeResponse{
			Success: true,
			Image:   base64.StdEncoding.EncodeToString(png),
		})
	})

	image, err := exec.Execute(context.Background(), "plt.savefig('out.png')", &domain.Upload{
		Name: "sales.csv",
		Data: []byte("a,b\n1,2\n"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if string(image) != string(png) {
		t.Errorf("image bytes mismatch")
	}
	if gotReq.Code != "plt.savefig('out.png')" {
		t.Errorf("code payload = %q", gotReq.Code)
	}
	if gotReq.DataFile == nil || gotReq.DataFile.Name != "sales.csv" {
		t.Errorf("data file payload = %+v", gotReq.DataFile)
	}
	decoded, err := base64.StdEncoding.DecodeString(gotReq.DataFile.ContentBase64)
	if err != nil || string(decoded) != "a,b\n1,2\n" {
		t.Errorf("data file content = %q, err=%v", decoded, err)
	}
}

func TestExecuteFailureBecomesSubmissionError(t *testing.T) {
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(executeResponse{Success: false, Error: "NameError: df"})
	})

	_, err := exec.Execute(context.Background(), "df.plot()", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := domain.KindOf(err); kind != domain.ErrKindProviderSubmission {
		t.Errorf("error kind = %q, want provider submission", kind)
	}
}

func TestExecuteRejectsEmptyCode(t *testing.T) {
	exec := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be reached")
	})

	if _, err := exec.Execute(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected error for empty code")
	}
}

func TestNewExecutorRequiresEndpoint(t *testing.T) {
	if _, err := NewExecutor(Options{}); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
