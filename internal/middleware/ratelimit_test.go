package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedRequest(owner, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/charts", nil)
	req.RemoteAddr = remoteAddr
	if owner != "" {
		req = req.WithContext(context.WithValue(req.Context(), OwnerKey, owner))
	}
	return req
}

func TestRateLimitPerOwner(t *testing.T) {
	handler := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, limitedRequest("u1", "198.51.100.10:1234"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, want 201", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("u1", "198.51.100.10:1234"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-limit status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	// A different owner behind the same address keeps its own budget.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("u2", "198.51.100.10:1234"))
	if rec.Code != http.StatusCreated {
		t.Errorf("other owner status = %d, want 201", rec.Code)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	handler := RateLimit(1, 10*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("u1", "198.51.100.10:1234"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("u1", "198.51.100.10:1234"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}

	time.Sleep(15 * time.Millisecond)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, limitedRequest("u1", "198.51.100.10:1234"))
	if rec.Code != http.StatusCreated {
		t.Errorf("post-window status = %d, want 201", rec.Code)
	}
}

func TestLimiterKeyFallsBackToClientIP(t *testing.T) {
	req := limitedRequest("", "198.51.100.10:1234")
	if got := limiterKey(req); got != "ip:198.51.100.10" {
		t.Errorf("limiterKey = %q, want ip fallback", got)
	}

	req = limitedRequest("", "198.51.100.10:1234")
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	if got := limiterKey(req); got != "ip:203.0.113.1" {
		t.Errorf("limiterKey = %q, want first forwarded hop", got)
	}

	req = limitedRequest("u1", "198.51.100.10:1234")
	if got := limiterKey(req); got != "owner:u1" {
		t.Errorf("limiterKey = %q, want owner key", got)
	}
}
