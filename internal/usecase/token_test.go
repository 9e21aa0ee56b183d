package usecase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

func TestTokenIssuer(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		issuer := NewTokenIssuer("secret", time.Hour)
		token, _, err := issuer.Issue(models.User{ID: "alice"})
		require.NoError(t, err)

		claims, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, "hds-chat", claims.Issuer)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		issuer := NewTokenIssuer("secret", time.Minute)
		issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, _, err := issuer.Issue(models.User{ID: "alice"})
		require.NoError(t, err)

		_, err = issuer.Parse(token)
		assert.ErrorIs(t, err, models.ErrNotAuthenticated)
	})

	t.Run("default ttl", func(t *testing.T) {
		t.Parallel()
		issuer := NewTokenIssuer("secret", 0)
		_, expiresAt, err := issuer.Issue(models.User{ID: "alice"})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
	})
}
