package agentgraph

import (
	"fmt"
	"sort"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/registry"
)

// StrategyRegistry resolves built strategies by name, for hosts that
// select a strategy at runtime (per request, per config entry).
type StrategyRegistry struct {
	strategies *registry.Registry[string, *Strategy]
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: registry.New[string, *Strategy]()}
}

// Register adds a strategy under its name. Registering a second
// strategy with the same name is an error, not an overwrite.
func (r *StrategyRegistry) Register(s *Strategy) error {
	if s == nil {
		return fmt.Errorf("register strategy: nil strategy")
	}
	if r.strategies.Has(s.Name()) {
		return fmt.Errorf("register strategy: duplicate name %q", s.Name())
	}
	r.strategies.Register(s.Name(), s)
	return nil
}

// Get resolves a strategy by name.
func (r *StrategyRegistry) Get(name string) (*Strategy, bool) {
	return r.strategies.Get(name)
}

// Names returns the registered strategy names, sorted.
func (r *StrategyRegistry) Names() []string {
	names := r.strategies.Keys()
	sort.Strings(names)
	return names
}

// Len returns the number of registered strategies.
func (r *StrategyRegistry) Len() int {
	return r.strategies.Len()
}
