package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
	log "github.com/nguyentranbao-ct/hds-chat/pkg/logger/log_context"
)

const (
	// UserContextKey holds the *models.User of an authorized request.
	UserContextKey = "current_user"
	// TokenContextKey holds the parsed *jwt.Token, read by the jwt binder.
	TokenContextKey = "user"
)

type Authorizer interface {
	AuthorizeClaims(token string) (*models.User, *jwt.RegisteredClaims, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func JWTAuth(auth Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c.Request())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing or malformed authorization header")
			}

			user, claims, err := auth.AuthorizeClaims(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(UserContextKey, user)
			c.Set(TokenContextKey, &jwt.Token{Raw: token, Claims: claims, Valid: true})
			ctx := log.WithFields(c.Request().Context(), "user_id", user.ID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// CurrentUser returns the user set by JWTAuth.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(UserContextKey).(*models.User)
	return user
}
