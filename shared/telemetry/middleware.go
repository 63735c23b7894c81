package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// HTTP instrument names
const (
	HTTPRequests        = "http_requests_total"
	HTTPRequestDuration = "http_request_duration_seconds"
)

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	requests, err := meter.Int64Counter(HTTPRequests, metric.WithDescription("Total HTTP requests"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(HTTPRequestDuration,
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{requests: requests, duration: duration}, nil
}

// Middleware injects telemetry into the request context, traces the request
// and records request counters and latency per route pattern. Requests are
// still traced when the instruments cannot be created.
func Middleware(tel *Telemetry) func(http.Handler) http.Handler {
	instruments, err := newHTTPMetrics(tel.GetMeter())
	if err != nil {
		otel.Handle(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx, span := tel.StartSpan(WithTelemetry(r.Context(), tel), "HTTP "+r.Method,
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
					attribute.String("http.host", r.Host),
					attribute.String("user_agent", r.UserAgent()),
				),
			)
			defer span.End()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			// chi only knows the pattern after routing
			route := routePattern(r)
			statusClass := getStatusClass(rw.statusCode)

			span.SetName("HTTP " + r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rw.statusCode),
				attribute.String("http.status_class", statusClass),
			)

			if instruments == nil {
				return
			}

			attrs := []attribute.KeyValue{
				attribute.String("method", r.Method),
				attribute.String("path", route),
				attribute.String("status_class", statusClass),
			}
			instruments.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
			attrs = append(attrs, attribute.String("status_code", strconv.Itoa(rw.statusCode)))
			instruments.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// responseWriter captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func getStatusClass(statusCode int) string {
	if statusCode < 100 || statusCode > 599 {
		return "unknown"
	}
	return strconv.Itoa(statusCode/100) + "xx"
}
