package agent

import (
	"strings"
	"time"

	"github.com/swarmforge/swarmforge/core"
)

const (
	// DefaultMaxIterations bounds the completion/tool loop when the config
	// leaves MaxIterations unset.
	DefaultMaxIterations = 5

	// DefaultTimeout bounds one Execute call when the config leaves Timeout
	// unset.
	DefaultTimeout = 30 * time.Second
)

// Config describes one agent. Name must be unique within a pool; Role is
// immutable once the agent is created.
type Config struct {
	// Name identifies the agent within its pool.
	Name string `json:"name"`

	// Role selects the prompt framing and the permitted tool set.
	Role Role `json:"role"`

	// Tools lists the tool names the agent may call. Every name must be
	// registered and permitted by the role.
	Tools []string `json:"tools,omitempty"`

	// MaxIterations bounds the completion/tool loop per Execute call.
	// Zero means DefaultMaxIterations; negative values are rejected.
	MaxIterations int `json:"max_iterations,omitempty"`

	// Timeout bounds one Execute call. Zero means DefaultTimeout; negative
	// values are rejected.
	Timeout time.Duration `json:"timeout,omitempty"`

	// MemoryEnabled lets the agent keep short-term scratch notes in the
	// shared memory manager.
	MemoryEnabled bool `json:"memory_enabled,omitempty"`
}

// withDefaults returns a copy with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks the configuration, returning a structured configuration
// error on the first violation. Defaults are applied before validation, so
// only explicitly negative numeric values fail.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return core.NewError(core.KindConfig, "agent name must not be empty")
	}
	if !c.Role.Valid() {
		return core.NewError(core.KindConfig, "invalid role %q for agent %q", c.Role, c.Name)
	}
	if c.MaxIterations < 0 {
		return core.NewError(core.KindConfig, "max iterations must be positive for agent %q, got %d", c.Name, c.MaxIterations)
	}
	if c.Timeout < 0 {
		return core.NewError(core.KindConfig, "timeout must be positive for agent %q, got %s", c.Name, c.Timeout)
	}
	for _, name := range c.Tools {
		if !c.Role.Permits(name) {
			return core.NewError(core.KindConfig, "tool %q is not permitted for role %q (agent %q)", name, c.Role, c.Name)
		}
	}
	return nil
}
