package agentgraph

import (
	"fmt"
	"sync"
)

// FeatureKey identifies a feature within a pipeline. Feature packages
// export their key so handlers and other features can look them up.
type FeatureKey string

// Feature is a cross-cutting concern installed into an agent's
// pipeline: tracing, logging, persistence, testing hooks. A feature
// observes and intercepts the run lifecycle without the engine knowing
// it exists.
type Feature interface {
	// Key returns the feature's pipeline key, unique per pipeline.
	Key() FeatureKey

	// Install registers the feature's handlers on the pipeline. Called
	// once, during agent construction.
	Install(p *Pipeline)
}

// InterceptContext is passed to every handler invocation, identifying
// the feature the handler belongs to.
type InterceptContext struct {
	Key     FeatureKey
	Feature Feature
}

// handlerSet holds one feature's handlers, one slot per lifecycle
// event. Nil slots are skipped when the event fires.
type handlerSet struct {
	runStart       func(InterceptContext, RunEvent)
	runFinish      func(InterceptContext, RunEvent)
	runError       func(InterceptContext, RunEvent)
	close          func(InterceptContext, RunEvent)
	strategyStart  func(InterceptContext, StrategyEvent)
	strategyFinish func(InterceptContext, StrategyEvent)
	nodeStart      func(InterceptContext, NodeEvent)
	nodeFinish     func(InterceptContext, NodeEvent)
	nodeError      func(InterceptContext, NodeEvent)
	llmStart       func(InterceptContext, LLMEvent)
	llmFinish      func(InterceptContext, LLMEvent)
	toolCall       func(InterceptContext, ToolEvent)
	toolValidation func(InterceptContext, ToolEvent)
	toolResult     func(InterceptContext, ToolEvent)
	toolFailure    func(InterceptContext, ToolEvent)

	envTransform EnvironmentTransformer
}

type registration struct {
	feature  Feature
	handlers handlerSet
}

// Pipeline is the registry of features and their lifecycle handlers.
// Features register during agent construction; during runs the
// pipeline is read-only, so event dispatch takes no locks beyond an
// RWMutex read.
//
// Handlers for one event fire in feature registration order. A feature
// registering twice for the same event keeps only the later handler.
// Handlers may be invoked from concurrent tool goroutines and must be
// safe for concurrent use.
type Pipeline struct {
	mu       sync.RWMutex
	order    []FeatureKey
	features map[FeatureKey]*registration
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{features: make(map[FeatureKey]*registration)}
}

// Register installs a feature. Returns ErrDuplicateFeature if the key
// is already registered.
func (p *Pipeline) Register(f Feature) error {
	p.mu.Lock()
	if _, exists := p.features[f.Key()]; exists {
		p.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateFeature, f.Key())
	}
	p.features[f.Key()] = &registration{feature: f}
	p.order = append(p.order, f.Key())
	p.mu.Unlock()

	f.Install(p)
	return nil
}

// Feature returns the registered feature for key.
func (p *Pipeline) Feature(key FeatureKey) (Feature, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	reg, ok := p.features[key]
	if !ok {
		return nil, false
	}
	return reg.feature, true
}

// Keys returns the registered feature keys in registration order.
func (p *Pipeline) Keys() []FeatureKey {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]FeatureKey, len(p.order))
	copy(out, p.order)
	return out
}

func (p *Pipeline) reg(key FeatureKey) *registration {
	p.mu.Lock()
	defer p.mu.Unlock()
	reg, ok := p.features[key]
	if !ok {
		panic(fmt.Sprintf("agentgraph: handler registered for unknown feature %q", key))
	}
	return reg
}

// Interception surface. Each method binds a handler for one lifecycle
// event to a registered feature key; normally called from a feature's
// Install. Panics if the key is not registered.

func (p *Pipeline) InterceptRunStart(key FeatureKey, h func(InterceptContext, RunEvent)) {
	p.reg(key).handlers.runStart = h
}

func (p *Pipeline) InterceptRunFinish(key FeatureKey, h func(InterceptContext, RunEvent)) {
	p.reg(key).handlers.runFinish = h
}

func (p *Pipeline) InterceptRunError(key FeatureKey, h func(InterceptContext, RunEvent)) {
	p.reg(key).handlers.runError = h
}

func (p *Pipeline) InterceptClose(key FeatureKey, h func(InterceptContext, RunEvent)) {
	p.reg(key).handlers.close = h
}

func (p *Pipeline) InterceptStrategyStart(key FeatureKey, h func(InterceptContext, StrategyEvent)) {
	p.reg(key).handlers.strategyStart = h
}

func (p *Pipeline) InterceptStrategyFinish(key FeatureKey, h func(InterceptContext, StrategyEvent)) {
	p.reg(key).handlers.strategyFinish = h
}

func (p *Pipeline) InterceptNodeStart(key FeatureKey, h func(InterceptContext, NodeEvent)) {
	p.reg(key).handlers.nodeStart = h
}

func (p *Pipeline) InterceptNodeFinish(key FeatureKey, h func(InterceptContext, NodeEvent)) {
	p.reg(key).handlers.nodeFinish = h
}

func (p *Pipeline) InterceptNodeError(key FeatureKey, h func(InterceptContext, NodeEvent)) {
	p.reg(key).handlers.nodeError = h
}

func (p *Pipeline) InterceptLLMStart(key FeatureKey, h func(InterceptContext, LLMEvent)) {
	p.reg(key).handlers.llmStart = h
}

func (p *Pipeline) InterceptLLMFinish(key FeatureKey, h func(InterceptContext, LLMEvent)) {
	p.reg(key).handlers.llmFinish = h
}

func (p *Pipeline) InterceptToolCall(key FeatureKey, h func(InterceptContext, ToolEvent)) {
	p.reg(key).handlers.toolCall = h
}

// InterceptToolValidationError registers a handler for tool calls whose
// decoded arguments fail the tool's own checks. Other failure kinds
// fire the generic failure event instead.
func (p *Pipeline) InterceptToolValidationError(key FeatureKey, h func(InterceptContext, ToolEvent)) {
	p.reg(key).handlers.toolValidation = h
}

func (p *Pipeline) InterceptToolResult(key FeatureKey, h func(InterceptContext, ToolEvent)) {
	p.reg(key).handlers.toolResult = h
}

func (p *Pipeline) InterceptToolFailure(key FeatureKey, h func(InterceptContext, ToolEvent)) {
	p.reg(key).handlers.toolFailure = h
}

// InterceptEnvironment registers an environment transformer. At run
// start, transformers wrap the base environment in registration order,
// so the first-registered feature's wrapper sits innermost.
func (p *Pipeline) InterceptEnvironment(key FeatureKey, t EnvironmentTransformer) {
	p.reg(key).handlers.envTransform = t
}

// fire walks registrations in order, invoking the handler selected from
// each set.
func fire[E any](p *Pipeline, pick func(*handlerSet) func(InterceptContext, E), evt E) {
	p.mu.RLock()
	regs := make([]*registration, 0, len(p.order))
	keys := make([]FeatureKey, 0, len(p.order))
	for _, key := range p.order {
		regs = append(regs, p.features[key])
		keys = append(keys, key)
	}
	p.mu.RUnlock()

	for i, reg := range regs {
		h := pick(&reg.handlers)
		if h == nil {
			continue
		}
		h(InterceptContext{Key: keys[i], Feature: reg.feature}, evt)
	}
}

func (p *Pipeline) onRunStart(e RunEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, RunEvent) { return h.runStart }, e)
}

func (p *Pipeline) onRunFinish(e RunEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, RunEvent) { return h.runFinish }, e)
}

func (p *Pipeline) onRunError(e RunEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, RunEvent) { return h.runError }, e)
}

func (p *Pipeline) onClose(e RunEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, RunEvent) { return h.close }, e)
}

func (p *Pipeline) onStrategyStart(e StrategyEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, StrategyEvent) { return h.strategyStart }, e)
}

func (p *Pipeline) onStrategyFinish(e StrategyEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, StrategyEvent) { return h.strategyFinish }, e)
}

func (p *Pipeline) onNodeStart(e NodeEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, NodeEvent) { return h.nodeStart }, e)
}

func (p *Pipeline) onNodeFinish(e NodeEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, NodeEvent) { return h.nodeFinish }, e)
}

func (p *Pipeline) onNodeError(e NodeEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, NodeEvent) { return h.nodeError }, e)
}

func (p *Pipeline) onLLMStart(e LLMEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, LLMEvent) { return h.llmStart }, e)
}

func (p *Pipeline) onLLMFinish(e LLMEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, LLMEvent) { return h.llmFinish }, e)
}

func (p *Pipeline) onToolCall(e ToolEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, ToolEvent) { return h.toolCall }, e)
}

func (p *Pipeline) onToolValidationError(e ToolEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, ToolEvent) { return h.toolValidation }, e)
}

func (p *Pipeline) onToolResult(e ToolEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, ToolEvent) { return h.toolResult }, e)
}

func (p *Pipeline) onToolFailure(e ToolEvent) {
	fire(p, func(h *handlerSet) func(InterceptContext, ToolEvent) { return h.toolFailure }, e)
}

// transformEnvironment folds the registered environment transformers
// over the base environment in registration order.
func (p *Pipeline) transformEnvironment(base Environment) Environment {
	p.mu.RLock()
	defer p.mu.RUnlock()

	env := base
	for _, key := range p.order {
		if t := p.features[key].handlers.envTransform; t != nil {
			env = t(env)
		}
	}
	return env
}
