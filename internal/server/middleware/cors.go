package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

// OriginPattern compiles allowed origins into one pattern. "*" matches any run
// of characters, so "http://localhost:*" allows every local port.
func OriginPattern(origins []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(o), `\*`, `.*`))
	}
	if len(parts) == 0 {
		return regexp.Compile(`^$`)
	}
	return regexp.Compile(`^(` + strings.Join(parts, "|") + `)$`)
}

// CORS return echo middleware that handle cors with regexp pattern
func CORS(pattern *regexp.Regexp) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			respHeader := c.Response().Header()
			respHeader.Set("Vary", "Origin")
			origin := c.Request().Header.Get("Origin")
			if origin == "" || !pattern.MatchString(origin) {
				return next(c)
			}
			respHeader.Set("Access-Control-Allow-Origin", origin)
			if c.Request().Method == http.MethodOptions {
				// `*` only may not cover Authorization header in Safari 12
				respHeader.Set("Access-Control-Allow-Headers", "*, Authorization")
				respHeader.Set("Access-Control-Allow-Methods", "OPTIONS, POST, PUT, DELETE, GET, PATCH, HEAD")
				return c.NoContent(http.StatusOK)
			}

			return next(c)
		}
	}
}
