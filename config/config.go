// Package config loads swarm topologies from YAML files. A spec describes
// pools and their agents declaratively; the root package applies a parsed
// spec to instantiate the corresponding pools.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
)

// AgentSpec declares one agent inside a pool. Timeout is a duration string
// such as "30s" or "2m"; zero-valued fields fall back to the agent defaults.
type AgentSpec struct {
	Name          string   `yaml:"name"`
	Role          string   `yaml:"role"`
	Tools         []string `yaml:"tools,omitempty"`
	MaxIterations int      `yaml:"max_iterations,omitempty"`
	Timeout       string   `yaml:"timeout,omitempty"`
	MemoryEnabled bool     `yaml:"memory_enabled,omitempty"`
}

// PoolSpec declares one named pool, its execution mode and its agents.
type PoolSpec struct {
	Name          string      `yaml:"name"`
	Mode          string      `yaml:"mode,omitempty"`
	MaxConcurrent int         `yaml:"max_concurrent,omitempty"`
	Agents        []AgentSpec `yaml:"agents"`
}

// SwarmSpec is the root document of a swarm configuration file.
type SwarmSpec struct {
	Pools []PoolSpec `yaml:"pools"`
}

// Load reads and parses a swarm configuration file.
func Load(path string) (*SwarmSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(core.KindConfig, err, "read config %q", path)
	}
	return Parse(b)
}

// Parse decodes a swarm configuration document and validates its shape.
// Per-agent semantic validation happens later, when the spec is applied.
func Parse(b []byte) (*SwarmSpec, error) {
	var spec SwarmSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, core.WrapError(core.KindConfig, err, "parse config")
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks the structural constraints a spec must satisfy before it
// can be applied: named pools, valid modes, at least one agent per pool and
// parseable timeouts.
func (s *SwarmSpec) Validate() error {
	if len(s.Pools) == 0 {
		return core.NewError(core.KindConfig, "config declares no pools")
	}
	seen := make(map[string]struct{}, len(s.Pools))
	for _, p := range s.Pools {
		if p.Name == "" {
			return core.NewError(core.KindConfig, "pool name must not be empty")
		}
		if _, dup := seen[p.Name]; dup {
			return core.NewError(core.KindConfig, "duplicate pool %q", p.Name)
		}
		seen[p.Name] = struct{}{}

		if p.Mode != "" && !core.ExecutionMode(p.Mode).Valid() {
			return core.NewError(core.KindConfig, "pool %q: unknown execution mode %q", p.Name, p.Mode)
		}
		if len(p.Agents) == 0 {
			return core.NewError(core.KindConfig, "pool %q declares no agents", p.Name)
		}
		for _, a := range p.Agents {
			if _, err := a.AgentConfig(); err != nil {
				return core.WrapError(core.KindConfig, err, "pool %q", p.Name)
			}
		}
	}
	return nil
}

// AgentConfig converts the spec entry into an agent configuration, parsing
// the timeout string and validating the result.
func (a AgentSpec) AgentConfig() (agent.Config, error) {
	cfg := agent.Config{
		Name:          a.Name,
		Role:          agent.Role(a.Role),
		Tools:         a.Tools,
		MaxIterations: a.MaxIterations,
		MemoryEnabled: a.MemoryEnabled,
	}
	if a.Timeout != "" {
		d, err := time.ParseDuration(a.Timeout)
		if err != nil {
			return agent.Config{}, core.WrapError(core.KindConfig, err, "agent %q: invalid timeout %q", a.Name, a.Timeout)
		}
		cfg.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return agent.Config{}, err
	}
	return cfg, nil
}
