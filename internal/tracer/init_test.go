package tracer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"arivu-ai-be/internal/config"
)

func TestInitDisabledReturnsNoop(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.OtelEnabled = false

	shutdown := Init(cfg)
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
}
