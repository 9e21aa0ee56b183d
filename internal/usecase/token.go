package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

const tokenIssuer = "hds-chat"

// TokenIssuer signs the bearer tokens handed to the UI.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *TokenIssuer) Issue(user models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates the signature and expiry of a token and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrNotAuthenticated, err)
	}
	if !token.Valid || claims.Issuer != tokenIssuer {
		return nil, fmt.Errorf("%w: %w", models.ErrNotAuthenticated, errors.New("invalid token"))
	}
	return claims, nil
}
