// Package middleware provides the observability middleware for blogfront's
// HTTP surface.
//
// This package includes:
//   - Prometheus metrics for requests, upstream calls and staged uploads
//   - OpenTelemetry server spans with W3C trace-context extraction
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithNamespace("blogfront"))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Collected series:
//   - blogfront_http_requests_total{route,method,status}
//   - blogfront_http_request_duration_seconds{route}
//   - blogfront_upstream_requests_total{op,status}
//   - blogfront_upstream_duration_seconds{op}
//   - blogfront_staged_uploads
//   - blogfront_staged_bytes_total
//   - blogfront_staged_release_errors_total
//   - blogfront_staged_swept_total
//   - blogfront_feed_subscribers
//
// Route labels come from the chi route pattern, so path parameters never
// reach label values.
//
// # OpenTelemetry
//
//	r.Use(middleware.Tracing(middleware.WithTracerName("blogfront")))
//
// The tracer uses the global provider and propagator. Configure them in
// main() before serving:
//
//	otel.SetTracerProvider(tp)
//	otel.SetTextMapPropagator(propagation.TraceContext{})
package middleware
