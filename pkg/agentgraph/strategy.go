package agentgraph

import (
	"errors"
	"fmt"
	"reflect"
)

// Builder accumulates nodes and edges for a strategy. It is generic
// over the strategy's input and output types; NewStrategy seeds it with
// implicit identity nodes StartNode (over I) and FinishNode (over O).
//
// Add methods panic on programmer errors (duplicate names, reserved
// names); graph-level problems (dangling edges, type mismatches,
// unreachable finish) are collected and reported together by Build.
type Builder[I, O any] struct {
	name  string
	nodes map[string]Node
	order []string
	edges []Edge
}

// NewStrategy creates a builder for a strategy with input type I and
// output type O. Panics if name is empty.
func NewStrategy[I, O any](name string) *Builder[I, O] {
	if name == "" {
		panic("agentgraph: strategy name cannot be empty")
	}
	b := &Builder[I, O]{
		name:  name,
		nodes: make(map[string]Node),
	}
	b.nodes[StartNode] = identityNode[I](StartNode)
	b.nodes[FinishNode] = identityNode[O](FinishNode)
	b.order = append(b.order, StartNode, FinishNode)
	return b
}

// AddNode adds a node to the strategy. Panics if a node with the same
// name already exists.
func (b *Builder[I, O]) AddNode(n Node) *Builder[I, O] {
	if _, exists := b.nodes[n.Name()]; exists {
		panic(fmt.Sprintf("agentgraph: node %q already exists in strategy %q", n.Name(), b.name))
	}
	b.nodes[n.Name()] = n
	b.order = append(b.order, n.Name())
	return b
}

// AddEdge adds an edge. Edges from the same source are evaluated in the
// order they were added; validation is deferred to Build.
func (b *Builder[I, O]) AddEdge(e Edge) *Builder[I, O] {
	b.edges = append(b.edges, e)
	return b
}

// Build validates the graph and returns an immutable Strategy.
// All validation errors are collected and returned together.
func (b *Builder[I, O]) Build() (*Strategy, error) {
	var errs []error

	edges := make(map[string][]Edge)
	for _, e := range b.edges {
		from, ok := b.nodes[e.from]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: edge source %q", ErrUnknownNode, e.from))
			continue
		}
		to, ok := b.nodes[e.to]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: edge target %q", ErrUnknownNode, e.to))
			continue
		}
		if e.from == FinishNode {
			errs = append(errs, fmt.Errorf("edge %q -> %q: finish node cannot have outgoing edges", e.from, e.to))
			continue
		}
		if e.outType != from.OutputType() {
			errs = append(errs, fmt.Errorf("%w: edge %q -> %q declares source type %v, node outputs %v",
				ErrTypeMismatch, e.from, e.to, e.outType, from.OutputType()))
			continue
		}
		if e.inType != to.InputType() {
			errs = append(errs, fmt.Errorf("%w: edge %q -> %q declares target type %v, node accepts %v",
				ErrTypeMismatch, e.from, e.to, e.inType, to.InputType()))
			continue
		}
		edges[e.from] = append(edges[e.from], e)
	}

	for _, name := range b.order {
		if name == FinishNode {
			continue
		}
		if len(edges[name]) == 0 {
			errs = append(errs, fmt.Errorf("%w: %q", ErrNoOutgoingEdge, name))
		}
	}

	if !hasPathToFinish(edges) {
		errs = append(errs, ErrNoPathToFinish)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("build strategy %q: %w", b.name, errors.Join(errs...))
	}

	nodes := make(map[string]Node, len(b.nodes))
	for name, n := range b.nodes {
		nodes[name] = n
	}
	return &Strategy{
		name:    b.name,
		nodes:   nodes,
		edges:   edges,
		inType:  reflect.TypeFor[I](),
		outType: reflect.TypeFor[O](),
	}, nil
}

// MustBuild is Build, panicking on error. Intended for strategies
// constructed at startup.
func (b *Builder[I, O]) MustBuild() *Strategy {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func hasPathToFinish(edges map[string][]Edge) bool {
	visited := map[string]bool{StartNode: true}
	stack := []string{StartNode}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == FinishNode {
			return true
		}
		for _, e := range edges[current] {
			if !visited[e.to] {
				visited[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// Strategy is a validated, immutable execution graph. A strategy holds
// no per-run state and may be shared across agents and runs.
type Strategy struct {
	name    string
	nodes   map[string]Node
	edges   map[string][]Edge
	inType  reflect.Type
	outType reflect.Type
}

// Name returns the strategy name.
func (s *Strategy) Name() string { return s.name }

// Node returns the named node, or false if the strategy has no node
// with that name.
func (s *Strategy) Node(name string) (Node, bool) {
	n, ok := s.nodes[name]
	return n, ok
}

// Nodes returns the node names in the strategy, start and finish
// included. Order is unspecified.
func (s *Strategy) Nodes() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	return names
}

// InputType returns the strategy's declared input type.
func (s *Strategy) InputType() reflect.Type { return s.inType }

// OutputType returns the strategy's declared output type.
func (s *Strategy) OutputType() reflect.Type { return s.outType }
