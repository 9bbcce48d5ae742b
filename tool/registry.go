package tool

import (
	"sync"

	"github.com/swarmforge/swarmforge/core"
)

// Registry holds the named tools available to a swarm. Agents resolve the
// tool names from their configuration against one shared registry; lookup of
// a name that was never registered is a configuration error surfaced before
// any invocation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry pre-populated with the given tools.
// Duplicate names panic; registries are assembled at startup where a panic
// is preferable to silently shadowing a tool.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a tool. Registering a duplicate name is a configuration error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return core.NewError(core.KindConfig, "tool %q is already registered", t.Name())
	}
	r.tools[t.Name()] = t
	r.order = append(r.order, t.Name())
	return nil
}

// Get returns the named tool if registered.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Resolve maps tool names to tools, failing with a configuration error on
// the first unknown name.
func (r *Registry) Resolve(names []string) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			return nil, core.NewError(core.KindConfig, "unknown tool %q", name)
		}
		tools = append(tools, t)
	}
	return tools, nil
}
