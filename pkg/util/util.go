package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
)

func ConvertList[A any, B any](listA []A, convert func(A) B) []B {
	listB := make([]B, len(listA))
	for i, a := range listA {
		listB[i] = convert(a)
	}

	return listB
}

func SliceIncludes[T comparable](values []T, value T) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// Ptr returns pointer of any value.
func Ptr[T any](t T) *T {
	return &t
}

// Val returns value if pointer is not null, otherwise it returns zero.
func Val[T any](t *T) T {
	if t != nil {
		return *t
	}

	var def T
	return def
}

// NewTimeoutContext derives a context bounded by d, or returns ctx untouched when d <= 0.
func NewTimeoutContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type nopLogger struct{}

func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

type RestyOptions struct {
	RetryCount int
	Timeout    time.Duration
	UserAgent  string
}

func NewRestyClient(opts RestyOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	c := resty.
		New().
		SetRetryCount(opts.RetryCount).
		SetLogger(nopLogger{}).
		SetTimeout(opts.Timeout).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil {
				return false
			}
			retry, _ := retryablehttp.DefaultRetryPolicy(r.Request.Context(), r.RawResponse, err)
			return retry
		})
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	c.JSONMarshal = json.Marshal
	c.JSONUnmarshal = json.Unmarshal
	return c
}

var defaultBuckets = []float64{
	0.005,
	0.01, // 10ms
	0.025,
	0.05,
	0.1, // 100 ms
	0.25,
	0.5,
	1.0, // 1s
	2.5,
	5.0,
	10.0, // 10s
}

func GetHistogramVec(name, help string, labels ...string) (*prometheus.HistogramVec, error) {
	metrics := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: defaultBuckets,
	}, labels)
	if err := prometheus.Register(metrics); err != nil {
		var registeredErr prometheus.AlreadyRegisteredError
		if ok := errors.As(err, &registeredErr); ok {
			metrics, ok := registeredErr.ExistingCollector.(*prometheus.HistogramVec)
			if ok {
				return metrics, nil
			}
		}
		return nil, fmt.Errorf("register: %w %T", err, err)
	}

	return metrics, nil
}

func GetCounterVec(name, help string, labels ...string) (*prometheus.CounterVec, error) {
	metrics := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
	if err := prometheus.Register(metrics); err != nil {
		var registeredErr prometheus.AlreadyRegisteredError
		if ok := errors.As(err, &registeredErr); ok {
			metrics, ok := registeredErr.ExistingCollector.(*prometheus.CounterVec)
			if ok {
				return metrics, nil
			}
		}
		return nil, fmt.Errorf("register: %w %T", err, err)
	}

	return metrics, nil
}

func MustHistogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	m, err := GetHistogramVec(name, help, labels...)
	if err != nil {
		panic(err)
	}
	return m
}

func MustCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	m, err := GetCounterVec(name, help, labels...)
	if err != nil {
		panic(err)
	}
	return m
}
