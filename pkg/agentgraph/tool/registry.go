package tool

import (
	"fmt"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph/registry"
)

// Registry resolves tools by name. It is safe for concurrent use and is
// normally populated once at agent construction time.
type Registry struct {
	tools *registry.Registry[string, Tool]
}

// NewRegistry creates a registry holding the given tools.
// Panics on duplicate tool names.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: registry.New[string, Tool]()}
	for _, t := range tools {
		r.Add(t)
	}
	return r
}

// Add registers a tool. Panics if a tool with the same name exists;
// duplicate names would make LLM tool-call resolution ambiguous.
func (r *Registry) Add(t Tool) {
	name := t.Descriptor().Name
	if r.tools.Has(name) {
		panic(fmt.Sprintf("tool: duplicate tool name: %s", name))
	}
	r.tools.Register(name, t)
}

// Get resolves a tool by name.
// Returns ErrNotFound if no tool with that name is registered.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Descriptors returns the descriptors of all registered tools,
// sorted order not guaranteed.
func (r *Registry) Descriptors() []Descriptor {
	descs := make([]Descriptor, 0, r.tools.Len())
	r.tools.Range(func(_ string, t Tool) bool {
		descs = append(descs, t.Descriptor())
		return true
	})
	return descs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return r.tools.Len()
}
