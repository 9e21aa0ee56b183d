package middleware

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

type (
	// LogRequestConfig configures the access log.
	LogRequestConfig struct {
		Logger Logger
		// SkipPaths are never logged.
		SkipPaths []string
		// SensitivePrefixes hide both bodies of matching paths, whatever
		// RequestBody and ResponseBody say.
		SensitivePrefixes []string

		Enabled      func(c echo.Context) bool
		RequestID    func(c echo.Context) string
		RequestBody  func(c echo.Context) bool
		ResponseBody func(c echo.Context) bool
		QueryParams  func(c echo.Context) bool
		ParamValues  func(c echo.Context) bool
		KeyAndValues func(c echo.Context) []any
	}
	bodyDumpWriter struct {
		io.Writer
		http.ResponseWriter
	}
)

// DefaultLogRequestConfig leaves out health checks and metric scrapes, and keeps
// credentials of the auth routes out of the log.
var DefaultLogRequestConfig = LogRequestConfig{
	SkipPaths:         []string{"/health", "/metrics"},
	SensitivePrefixes: []string{"/api/v1/auth/"},
}

func (config LogRequestConfig) sensitive(path string) bool {
	for _, prefix := range config.SensitivePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isWebSocketUpgrade(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get(echo.HeaderUpgrade), "websocket")
}

// LogRequest logs one line per request. Websocket upgrades are never logged
// since the connection outlives the handler's log line.
func LogRequest(config LogRequestConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		panic("Logger is required to use LogRequest")
	}
	always := func(echo.Context) bool { return true }
	never := func(echo.Context) bool { return false }
	if config.Enabled == nil {
		config.Enabled = always
	}
	if config.RequestBody == nil {
		config.RequestBody = always
	}
	if config.ResponseBody == nil {
		config.ResponseBody = always
	}
	if config.QueryParams == nil {
		config.QueryParams = never
	}
	if config.ParamValues == nil {
		config.ParamValues = never
	}
	if config.RequestID == nil {
		config.RequestID = GetRequestID
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if slices.Contains(config.SkipPaths, req.URL.Path) || isWebSocketUpgrade(req) || !config.Enabled(c) {
				return next(c)
			}

			start := time.Now()
			res := c.Response()
			hidden := config.sensitive(req.URL.Path)
			logReqBody := !hidden && config.RequestBody(c)
			logResBody := !hidden && config.ResponseBody(c)

			var reqBody json.RawMessage
			if logReqBody && strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
				reqBody, _ = io.ReadAll(req.Body)
				if len(reqBody) == 0 {
					reqBody = nil
				}
				req.Body = io.NopCloser(bytes.NewBuffer(reqBody))
			}
			var resBuf bytes.Buffer
			if logResBody {
				res.Writer = &bodyDumpWriter{Writer: io.MultiWriter(res.Writer, &resBuf), ResponseWriter: res.Writer}
			}

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			args := accessLogFields(c, config, time.Since(start))
			if logReqBody {
				args = append(args, "request_body", reqBody)
			}
			if logResBody {
				var resBody any
				if strings.HasPrefix(res.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
					resBody = json.RawMessage(resBuf.Bytes())
				}
				args = append(args, "response_body", resBody)
			}

			switch {
			case res.Status >= 500:
				if err != nil {
					args = append(args, "error", err.Error())
				}
				config.Logger.Errorw("", args...)
			case res.Status >= 400:
				config.Logger.Warnw("", args...)
			default:
				config.Logger.Infow("", args...)
			}
			return err
		}
	}
}

func accessLogFields(c echo.Context, config LogRequestConfig, latency time.Duration) []any {
	req := c.Request()
	args := make([]any, 0, 32)
	args = append(args,
		"status", c.Response().Status,
		"method", req.Method,
		"uri", req.RequestURI,
		"latency_ms", latency.Milliseconds(),
		"real_ip", c.RealIP(),
		"user_agent", req.UserAgent(),
		"request_id", config.RequestID(c),
	)
	if userID := GetUserID(c); userID != "" {
		args = append(args, "user_id", userID)
	}
	if config.QueryParams(c) {
		if query := c.QueryParams(); len(query) > 0 {
			args = append(args, "query", query)
		}
	}
	if config.ParamValues(c) {
		params := make(map[string]string)
		for _, name := range c.ParamNames() {
			params[name] = c.Param(name)
		}
		if len(params) > 0 {
			args = append(args, "params", params)
		}
	}
	if config.KeyAndValues != nil {
		args = append(args, config.KeyAndValues(c)...)
	}
	return args
}

func (w *bodyDumpWriter) WriteHeader(code int) {
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyDumpWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *bodyDumpWriter) Flush() {
	w.ResponseWriter.(http.Flusher).Flush()
}

func (w *bodyDumpWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return w.ResponseWriter.(http.Hijacker).Hijack()
}
