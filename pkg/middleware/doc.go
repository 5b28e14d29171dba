// Package middleware provides the console's HTTP middleware and
// instrumentation.
//
// This package includes:
//   - Prometheus metrics for HTTP requests, live sessions and table fetches
//   - OpenTelemetry server spans
//   - structured request logging
//
// # Prometheus Metrics
//
//	m := middleware.NewMetrics(middleware.WithRegistry(reg))
//	r.Use(m.Handler)
//	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected (namespace "console" by default):
//   - console_http_requests_total: requests by route, method and status
//   - console_http_request_duration_seconds: request latency by route
//   - console_active_sessions: open live sessions
//   - console_intents_total: client intents by kind
//   - console_websocket_errors_total: WebSocket errors by type
//   - console_fetches_total: table fetches by outcome
//   - console_fetch_duration_seconds: table fetch latency by outcome
//
// Pass m.FetchRecorder() to tablectl.WithObserver to feed the fetch metrics.
//
// # OpenTelemetry Middleware
//
//	r.Use(middleware.Tracing(middleware.WithFilter(func(r *http.Request) bool {
//	    return r.URL.Path != "/healthz"
//	})))
//
// The tracer comes from the global provider unless WithTracerProvider is
// given. Incoming W3C trace headers are honoured.
package middleware
