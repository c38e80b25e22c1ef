// Package registry provides a generic, thread-safe registry for values
// indexed by a comparable key.
//
// It backs the tool registry and the named-strategy registry, but carries
// no agent-specific behavior of its own. Reads take an RWMutex read lock,
// so lookup-heavy workloads (tool resolution on every LLM turn) stay cheap.
package registry
