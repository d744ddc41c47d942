package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"cellstatus-platform/pkg/logging"
)

// RequestID assigns a correlation ID to every request, honoring an
// inbound X-Request-ID header so upstream proxies can trace calls
// through the log stream.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}

		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), logging.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf)
}
