package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	level  string
	fields map[string]any
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (l *recordingLogger) record(level string, kv []any) {
	fields := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1]
	}
	l.mu.Lock()
	l.lines = append(l.lines, logLine{level: level, fields: fields})
	l.mu.Unlock()
}

func (l *recordingLogger) Debugw(_ string, kv ...any) { l.record("debug", kv) }
func (l *recordingLogger) Infow(_ string, kv ...any)  { l.record("info", kv) }
func (l *recordingLogger) Warnw(_ string, kv ...any)  { l.record("warn", kv) }
func (l *recordingLogger) Errorw(_ string, kv ...any) { l.record("error", kv) }

func newLoggedEcho(conf LogRequestConfig) *echo.Echo {
	e := echo.New()
	e.Use(LogRequest(conf))
	echoBody := func(c echo.Context) error {
		var body map[string]any
		if err := c.Bind(&body); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, body)
	}
	e.POST("/api/v1/auth/login", echoBody)
	e.POST("/api/v1/messages", echoBody)
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/api/v1/broken", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLogRequest_HidesSensitiveBodies(t *testing.T) {
	l := &recordingLogger{}
	conf := DefaultLogRequestConfig
	conf.Logger = l
	e := newLoggedEcho(conf)

	rec := postJSON(e, "/api/v1/auth/login", `{"username":"alice","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "secret-pass")

	require.Len(t, l.lines, 1)
	line := l.lines[0]
	assert.Equal(t, "info", line.level)
	assert.Equal(t, "/api/v1/auth/login", line.fields["uri"])
	assert.NotContains(t, line.fields, "request_body")
	assert.NotContains(t, line.fields, "response_body")
}

func TestLogRequest_SensitiveWinsOverBodyOptions(t *testing.T) {
	l := &recordingLogger{}
	conf := DefaultLogRequestConfig
	conf.Logger = l
	conf.RequestBody = func(echo.Context) bool { return true }
	e := newLoggedEcho(conf)

	postJSON(e, "/api/v1/auth/login", `{"password":"secret-pass"}`)
	require.Len(t, l.lines, 1)
	assert.NotContains(t, l.lines[0].fields, "request_body")
}

func TestLogRequest_LogsBodies(t *testing.T) {
	l := &recordingLogger{}
	conf := DefaultLogRequestConfig
	conf.Logger = l
	e := newLoggedEcho(conf)

	postJSON(e, "/api/v1/messages", `{"content":"hi"}`)
	require.Len(t, l.lines, 1)
	fields := l.lines[0].fields
	assert.JSONEq(t, `{"content":"hi"}`, string(fields["request_body"].(json.RawMessage)))
	assert.Equal(t, http.StatusOK, fields["status"])
	assert.Contains(t, fields, "response_body")
}

func TestLogRequest_SkipsHealthAndUpgrades(t *testing.T) {
	l := &recordingLogger{}
	conf := DefaultLogRequestConfig
	conf.Logger = l
	e := newLoggedEcho(conf)

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/broken", nil)
	req.Header.Set(echo.HeaderUpgrade, "websocket")
	e.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, l.lines)
}

func TestLogRequest_ServerErrorsAreErrors(t *testing.T) {
	l := &recordingLogger{}
	e := newLoggedEcho(LogRequestConfig{Logger: l})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/broken", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.Len(t, l.lines, 1)
	assert.Equal(t, "error", l.lines[0].level)
	assert.Contains(t, l.lines[0].fields, "error")
}

func TestLogRequest_RequiresLogger(t *testing.T) {
	assert.Panics(t, func() { LogRequest(LogRequestConfig{}) })
}
