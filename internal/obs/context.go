package obs

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

// routeOf resolves the route label for r, falling back to fallback when chi
// has not matched anything yet.
func routeOf(r *http.Request, fallback string) string {
	if route := RoutePatternFromContext(r.Context()); route != "" {
		return route
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}

// ContextLogger returns base enriched with the request id and trace id
// carried by ctx, so service logs line up with the request log.
func ContextLogger(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return base
	}
	lc := base.With()
	enriched := false
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		lc = lc.Str("request_id", reqID)
		enriched = true
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String())
		enriched = true
	}
	if !enriched {
		return base
	}
	return lc.Logger()
}
