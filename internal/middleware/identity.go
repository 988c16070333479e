package middleware

import (
	"context"
	"net/http"
	"strings"
)

type ownerContextKey struct{}

// OwnerKey stores the authenticated owner identifier in the request context.
var OwnerKey = ownerContextKey{}

// Identity extracts the caller identity established by the upstream gateway.
// Authentication itself happens before this service; requests arriving
// without an owner header are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get("X-Owner-ID"))
		if owner == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing owner identity","error_type":"unauthorized"}`))
			return
		}
		ctx := context.WithValue(r.Context(), OwnerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerFromContext returns the owner identifier stored by Identity.
func OwnerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(OwnerKey).(string); ok {
		return v
	}
	return ""
}
