package middleware

import (
	"errors"
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the request duration histogram.
type MetricsConfig struct {
	Skipper             func(c echo.Context) bool
	Namespace           string
	Buckets             []float64
	Subsystem           string
	NormalizeHTTPStatus bool
	MetricsPath         string
	NotFoundPath        string
}

const (
	httpRequestsDuration = "request_duration_seconds"
	httpRequestsInFlight = "requests_in_flight"
)

// DefaultMetricsConfig serves /metrics and records every route except
// websocket streams, whose duration is the lifetime of the connection.
var DefaultMetricsConfig = MetricsConfig{
	Skipper: func(c echo.Context) bool {
		return isWebSocketUpgrade(c.Request())
	},
	Buckets: []float64{
		0.0005, 0.001, 0.002, 0.005, // up to 5ms
		0.01, 0.02, 0.05, 0.1, 0.2, 0.5, // up to 500ms
		1, 2, 5, 10, 15, 20, 30,
	},
	MetricsPath:  "/metrics",
	NotFoundPath: "/not-found",
}

type httpMetrics struct {
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

func normalizeHTTPStatus(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	}
	return "5xx"
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}

// Metrics returns an echo middleware with default config for instrumentation.
func Metrics() echo.MiddlewareFunc {
	return MetricsWithConfig(DefaultMetricsConfig)
}

// MetricsWithConfig returns an echo middleware for instrumentation. Routes are
// labelled by pattern and unmatched requests share NotFoundPath, so label
// cardinality stays bounded.
func MetricsWithConfig(config MetricsConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultSkipper
	}
	if config.NotFoundPath == "" {
		config.NotFoundPath = DefaultMetricsConfig.NotFoundPath
	}
	metrics := mustRegisterHTTPMetrics(config)

	var promHandler echo.HandlerFunc
	if config.MetricsPath != "" {
		promHandler = echo.WrapHandler(promhttp.Handler())
	}

	statusLabel := strconv.Itoa
	if config.NormalizeHTTPStatus {
		statusLabel = normalizeHTTPStatus
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if promHandler != nil && req.URL.Path == config.MetricsPath {
				return promHandler(c)
			}
			if config.Skipper(c) {
				return next(c)
			}

			path := c.Path()
			if isNotFoundHandler(c.Handler()) {
				path = config.NotFoundPath
			}

			metrics.inFlight.Inc()
			defer metrics.inFlight.Dec()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			metrics.duration.
				WithLabelValues(statusLabel(c.Response().Status), req.Method, path).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// mustRegisterHTTPMetrics registers the collectors once per process and reuses
// them for every later router.
func mustRegisterHTTPMetrics(config MetricsConfig) httpMetrics {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      httpRequestsDuration,
		Help:      "Spend time by processing a route",
		Buckets:   config.Buckets,
	}, []string{"code", "method", "path"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: config.Namespace,
		Subsystem: config.Subsystem,
		Name:      httpRequestsInFlight,
		Help:      "Requests currently being served",
	})
	return httpMetrics{
		duration: registerOrExisting(duration),
		inFlight: registerOrExisting(inFlight),
	}
}

func registerOrExisting[C prometheus.Collector](c C) C {
	err := prometheus.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		panic(err)
	}
	return are.ExistingCollector.(C)
}
