package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentityStrategyFixed(t *testing.T) {
	t.Parallel()

	s, err := NewIdentityStrategy("", "", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, s.UserAgent())

	s, err = NewIdentityStrategy("FIXED", "agent/1.0", nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "agent/1.0", s.UserAgent())
	}

	assert.Equal(t, DefaultUserAgent, FixedIdentity{}.UserAgent())
}

func TestNewIdentityStrategyShuffle(t *testing.T) {
	t.Parallel()

	pool := []string{"a", "b", "c"}
	s, err := NewIdentityStrategy(IdentityShuffle, "", pool)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Contains(t, pool, s.UserAgent())
	}

	s, err = NewIdentityStrategy(IdentityShuffle, "", nil)
	require.NoError(t, err)
	assert.Contains(t, DesktopAgents(), s.UserAgent())
}

func TestNewIdentityStrategyUnknown(t *testing.T) {
	t.Parallel()

	_, err := NewIdentityStrategy("random", "", nil)
	assert.Error(t, err)
}

func TestDesktopAgentsReturnsCopy(t *testing.T) {
	t.Parallel()

	agents := DesktopAgents()
	agents[0] = "mutated"
	assert.NotEqual(t, "mutated", DesktopAgents()[0])
}

func TestShuffledIdentityZeroValueUsesDesktopPool(t *testing.T) {
	t.Parallel()

	var s ShuffledIdentity
	for i := 0; i < 10; i++ {
		assert.Contains(t, DesktopAgents(), s.UserAgent())
	}
}
