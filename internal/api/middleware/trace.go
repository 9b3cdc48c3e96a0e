package middleware

import (
	"log/slog"
	"net/http"

	"github.com/vporoshok/taskping/internal/api/shared"
)

// TraceMiddleware attaches a trace ID to the request context and echoes
// it in the X-Trace-ID response header so clients can quote it in bug
// reports. Apply it early so every later handler and error response can
// see the ID.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())
		traceID := shared.GetTraceID(ctx)

		w.Header().Set("X-Trace-ID", traceID)

		slog.Debug("request started",
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
