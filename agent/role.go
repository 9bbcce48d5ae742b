package agent

import (
	"strings"

	"github.com/swarmforge/swarmforge/core"
)

// Role is the closed category determining an agent's prompt framing and
// permitted tools. Adding a role is a table edit in roleProfiles.
type Role string

const (
	// RoleResearcher gathers facts and source material.
	RoleResearcher Role = "researcher"
	// RoleAnalyzer extracts patterns and draws conclusions from material.
	RoleAnalyzer Role = "analyzer"
	// RoleSynthesizer merges multiple inputs into one coherent output.
	RoleSynthesizer Role = "synthesizer"
	// RoleExecutor carries out concrete actions via tools.
	RoleExecutor Role = "executor"
	// RoleCoordinator decomposes tasks and synthesizes worker outputs in
	// hierarchical execution.
	RoleCoordinator Role = "coordinator"
)

// roleProfile bundles the behavior attached to a role: the system-level
// framing given to the model and the set of tool names the role may call.
type roleProfile struct {
	preamble       string
	permittedTools []string
}

var roleProfiles = map[Role]roleProfile{
	RoleResearcher: {
		preamble:       "You are a research agent. Gather relevant, verifiable information for the task and cite where it came from when possible.",
		permittedTools: []string{"web_search", "data_analysis", "memory_store", "clock"},
	},
	RoleAnalyzer: {
		preamble:       "You are an analysis agent. Examine the provided material, identify patterns and draw well-founded conclusions.",
		permittedTools: []string{"data_analysis", "memory_store", "clock"},
	},
	RoleSynthesizer: {
		preamble:       "You are a synthesis agent. Merge the provided inputs into a single coherent, well-structured output.",
		permittedTools: []string{"code_execution", "memory_store", "clock"},
	},
	RoleExecutor: {
		preamble:       "You are an execution agent. Carry out the requested actions precisely, using your tools where appropriate.",
		permittedTools: []string{"code_execution", "file_operations", "memory_store", "clock"},
	},
	RoleCoordinator: {
		preamble:       "You are a coordination agent. Break tasks into focused subtasks for worker agents and synthesize their results into a final answer.",
		permittedTools: []string{"memory_store", "clock"},
	},
}

// Roles returns all known roles.
func Roles() []Role {
	return []Role{RoleResearcher, RoleAnalyzer, RoleSynthesizer, RoleExecutor, RoleCoordinator}
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	_, ok := roleProfiles[r]
	return ok
}

// ParseRole converts a string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", core.NewError(core.KindConfig, "unknown role %q", s)
	}
	return r, nil
}

// Preamble returns the system-level prompt framing for the role.
func (r Role) Preamble() string { return roleProfiles[r].preamble }

// PermittedTools returns the tool names agents of this role may call.
func (r Role) PermittedTools() []string {
	tools := roleProfiles[r].permittedTools
	out := make([]string, len(tools))
	copy(out, tools)
	return out
}

// Permits reports whether the role allows calling the named tool.
func (r Role) Permits(toolName string) bool {
	for _, name := range roleProfiles[r].permittedTools {
		if name == toolName {
			return true
		}
	}
	return false
}
