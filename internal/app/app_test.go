package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/hds-chat/internal/config"
	"github.com/nguyentranbao-ct/hds-chat/internal/server"
)

func TestDependencyGraph(t *testing.T) {
	err := fx.ValidateApp(
		Providers,
		fx.Supply(&config.Config{}),
		fx.Invoke(RestoreSession),
		fx.Invoke(func(*server.Handler) {}),
	)
	require.NoError(t, err)
}

func TestRedacted(t *testing.T) {
	conf := &config.Config{}
	conf.Server.JWTSecret = "s3cret"
	conf.LLM.GoogleAIAPIKey = "key"

	out := redacted(conf)
	assert.Equal(t, "***", out.Server.JWTSecret)
	assert.Equal(t, "***", out.LLM.GoogleAIAPIKey)
	assert.Empty(t, out.Database.Password)
	assert.Equal(t, "s3cret", conf.Server.JWTSecret)
}
