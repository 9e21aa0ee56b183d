package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

type staticAuthorizer map[string]string

func (a staticAuthorizer) AuthorizeClaims(token string) (*models.User, *jwt.RegisteredClaims, error) {
	id, ok := a[token]
	if !ok {
		return nil, nil, models.ErrNotAuthenticated
	}
	return &models.User{ID: id}, &jwt.RegisteredClaims{Subject: id}, nil
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.NoContent(he.Code)
		}
	}

	type meRequest struct {
		UserID string `jwt:"sub" validate:"required"`
	}
	g := e.Group("", JWTAuth(staticAuthorizer{"good": "alice"}))
	g.GET("/me", Wrap(func(c echo.Context, req meRequest) (string, error) {
		assert.Equal(t, "alice", CurrentUser(c).ID)
		return req.UserID, nil
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer good", http.StatusOK},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"success":true,"data":"alice"}`, rec.Body.String())
			}
		})
	}
}

func TestWrapNoContent(t *testing.T) {
	e := echo.New()
	e.Validator = NewValidator()

	type langRequest struct {
		Language string `json:"language" validate:"required,language"`
	}
	var got string
	e.PUT("/language", WrapNoContent(func(c echo.Context, req langRequest) error {
		got = req.Language
		return nil
	}))

	send := func(body string) int {
		req := httptest.NewRequest(http.MethodPut, "/language", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send(`{"language":"fr-CH"}`))
	assert.Equal(t, "fr-CH", got)
	assert.Equal(t, http.StatusBadRequest, send(`{"language":"french!"}`))
	assert.Equal(t, http.StatusBadRequest, send(`{}`))
}

func TestOriginPattern(t *testing.T) {
	t.Parallel()

	pattern, err := OriginPattern([]string{"http://localhost:*", " https://chat.example.com "})
	require.NoError(t, err)

	assert.True(t, pattern.MatchString("http://localhost:5173"))
	assert.True(t, pattern.MatchString("https://chat.example.com"))
	assert.False(t, pattern.MatchString("https://chat.example.com.evil.io"))
	assert.False(t, pattern.MatchString("http://127.0.0.1:5173"))

	empty, err := OriginPattern(nil)
	require.NoError(t, err)
	assert.False(t, empty.MatchString("http://localhost:5173"))
}

func TestCORS(t *testing.T) {
	e := echo.New()
	e.Use(CORS(regexp.MustCompile(`^http://localhost:\d+$`)))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.io")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
