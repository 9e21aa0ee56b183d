package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	"github.com/nguyentranbao-ct/hds-chat/pkg/logger"
)

func makeRequest(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func resetHTTPMetrics(t *testing.T) {
	t.Helper()
	mustRegisterHTTPMetrics(DefaultMetricsConfig).duration.Reset()
}

func TestMetrics(t *testing.T) {
	resetHTTPMetrics(t)
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger.Nop())
	e.Use(Metrics())

	e.GET("/api/v1/contacts", func(c echo.Context) error {
		return c.JSON(http.StatusOK, []string{})
	})
	e.POST("/api/v1/conversations/:id/select", func(c echo.Context) error {
		return models.ErrNotFound
	})
	e.GET("/api/v1/diary", func(c echo.Context) error {
		return fmt.Errorf("diary unavailable")
	})

	for i := 0; i < 10; i++ {
		makeRequest(e, http.MethodGet, "/api/v1/contacts")
	}
	for i := 0; i < 4; i++ {
		makeRequest(e, http.MethodPost, fmt.Sprintf("/api/v1/conversations/dm_%d/select", i))
	}
	for i := 0; i < 3; i++ {
		makeRequest(e, http.MethodGet, "/api/v1/diary")
	}
	for i := 0; i < 7; i++ {
		makeRequest(e, http.MethodGet, fmt.Sprintf("/api/v1/unknown/%d", i))
	}

	body := makeRequest(e, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `request_duration_seconds_count{code="200",method="GET",path="/api/v1/contacts"} 10`)
	// route patterns keep the label cardinality bounded
	assert.Contains(t, body, `request_duration_seconds_count{code="404",method="POST",path="/api/v1/conversations/:id/select"} 4`)
	assert.Contains(t, body, `request_duration_seconds_count{code="500",method="GET",path="/api/v1/diary"} 3`)
	assert.Contains(t, body, `request_duration_seconds_count{code="404",method="GET",path="/not-found"} 7`)
	assert.Contains(t, body, "requests_in_flight 0")
}

func TestMetrics_SkipsWebSocketUpgrades(t *testing.T) {
	resetHTTPMetrics(t)
	e := echo.New()
	e.Use(Metrics())
	e.GET("/api/v1/stream", func(c echo.Context) error {
		return c.NoContent(http.StatusUnauthorized)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream", nil)
	req.Header.Set(echo.HeaderUpgrade, "websocket")
	e.ServeHTTP(httptest.NewRecorder(), req)

	body := makeRequest(e, http.MethodGet, "/metrics").Body.String()
	assert.NotContains(t, body, `path="/api/v1/stream"`)
}

func TestNormalizeHTTPStatus(t *testing.T) {
	tests := map[int]string{
		101: "1xx",
		204: "2xx",
		302: "3xx",
		404: "4xx",
		503: "5xx",
	}
	for status, want := range tests {
		assert.Equal(t, want, normalizeHTTPStatus(status), status)
	}
}
