package observability

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finitefield.org/hanko-docs/internal/platform/requestctx"
)

const tracerName = "finitefield.org/hanko-docs/internal/platform/observability"

// Tracer returns the tracer shared by the HTTP layer and the resolver.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// TraceMiddleware starts a server span per request and stores its identifiers on the context.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := Tracer().Start(r.Context(), spanNameFromRequest(r), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			span.SetAttributes(
				attribute.String("http.request.method", SanitizeMethod(r.Method)),
				attribute.String("url.path", SanitizePath(r.URL.Path)),
			)

			spanCtx := span.SpanContext()
			ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
				TraceID: traceIDString(spanCtx),
				SpanID:  spanIDString(spanCtx),
				Sampled: spanCtx.IsSampled(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func spanNameFromRequest(r *http.Request) string {
	if r == nil {
		return "HTTP"
	}
	return "HTTP " + SanitizeMethod(r.Method)
}

func traceIDString(sc trace.SpanContext) string {
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

func spanIDString(sc trace.SpanContext) string {
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
