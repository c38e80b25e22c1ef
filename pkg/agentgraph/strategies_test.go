package agentgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedStrategy(t *testing.T, name string) *Strategy {
	t.Helper()
	b := NewStrategy[string, string](name)
	b.AddEdge(Forward[string](StartNode, FinishNode))
	return b.MustBuild()
}

func TestStrategyRegistry(t *testing.T) {
	reg := NewStrategyRegistry()

	alpha := namedStrategy(t, "alpha")
	beta := namedStrategy(t, "beta")

	require.NoError(t, reg.Register(alpha))
	require.NoError(t, reg.Register(beta))
	assert.Equal(t, 2, reg.Len())

	got, ok := reg.Get("alpha")
	require.True(t, ok)
	assert.Same(t, alpha, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())
}

func TestStrategyRegistryRejectsDuplicates(t *testing.T) {
	reg := NewStrategyRegistry()
	require.NoError(t, reg.Register(namedStrategy(t, "alpha")))

	err := reg.Register(namedStrategy(t, "alpha"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate name")

	assert.Error(t, reg.Register(nil))
}
