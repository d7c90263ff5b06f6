package middleware

import (
	"net/http"
	"strings"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"finitefield.org/storefront-web/internal/observability"
)

// Logger attaches a request-scoped zap logger to the context and emits one entry per request.
func Logger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rid := chiMid.GetReqID(r.Context())
			reqLogger := base
			if rid != "" {
				reqLogger = reqLogger.With(zap.String("request_id", rid))
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				reqLogger = reqLogger.With(zap.String("trace_id", sc.TraceID().String()))
			}
			ctx := observability.WithLogger(r.Context(), reqLogger)
			if rid != "" {
				ctx = WithRequestID(ctx, rid)
			}

			rw := NewResponseRecorder(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			level := zap.InfoLevel
			if rw.Status() >= http.StatusInternalServerError {
				level = zap.ErrorLevel
			}
			reqLogger.Check(level, "request").Write(
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rw.Status()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("remote_ip", clientIP(r)),
				zap.Bool("htmx", IsHTMX(ctx)),
			)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		p := strings.Split(xff, ",")
		return strings.TrimSpace(p[len(p)-1])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
