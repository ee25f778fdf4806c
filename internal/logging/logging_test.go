package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		logger, err := New("api", env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

func TestNew_DevelopmentEnablesDebug(t *testing.T) {
	dev, err := New("api", "development")
	require.NoError(t, err)
	prod, err := New("api", "production")
	require.NoError(t, err)

	assert.True(t, dev.Core().Enabled(zap.DebugLevel))
	assert.False(t, prod.Core().Enabled(zap.DebugLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
