package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	h "eventbooking/internal/delivery/http/helpers"
)

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (n int, err error) {
	w.wroteHeader = true
	n, err = w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// LoggingMiddleware logs each request with method, path, status, and duration.
// Server errors are logged at error level. Request and response bodies are never logged.
// A panic in next is recovered, logged, and answered with a 500 envelope.
func LoggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic serving request", "panic", rec, "stack", string(debug.Stack()))
				if !wrapped.wroteHeader {
					h.WriteJSONError(wrapped, http.StatusInternalServerError, h.ErrCodeInternalError, "internal server error")
				}
			}
			level := slog.LevelInfo
			if wrapped.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"bytes", wrapped.written,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}()
		next.ServeHTTP(wrapped, r)
	})
}
