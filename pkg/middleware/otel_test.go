package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const testTraceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"

func TestTracing_ExtractsIncomingTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var got trace.SpanContext
	h := Tracing()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/getPosts", nil)
	req.Header.Set("traceparent", testTraceparent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("trace id = %s, want the incoming one", got.TraceID())
	}
}

func TestTracing_FilterSkipsRequests(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	var got trace.SpanContext
	h := Tracing(WithRequestFilter(func(r *http.Request) bool {
		return r.URL.Path != "/healthz"
	}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = trace.SpanContextFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("traceparent", testTraceparent)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got.IsValid() {
		t.Error("filtered request should not carry a span context")
	}
}

func TestTracing_PassesResponseThrough(t *testing.T) {
	h := Tracing(WithTracerName("test"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/createPost", nil))

	if rec.Code != http.StatusBadGateway || rec.Body.String() != "bad" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestFormatSpanName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/getCategories", nil)
	if got := formatSpanName(req); got != "GET /api/getCategories" {
		t.Errorf("formatSpanName = %q", got)
	}
}
