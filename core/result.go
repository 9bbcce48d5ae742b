package core

import (
	"fmt"
	"strings"
	"time"
)

// ExecutionMode selects the fan-out discipline a pool applies to its agents.
type ExecutionMode string

const (
	// ModeSequential runs agents one at a time in registration order, each
	// receiving the concatenated successful outputs of its predecessors.
	ModeSequential ExecutionMode = "sequential"

	// ModeParallel runs all agents concurrently with no inter-agent context.
	ModeParallel ExecutionMode = "parallel"

	// ModeHierarchical runs the coordinator to decompose the task, workers
	// concurrently against their subtasks, then the coordinator again to
	// synthesize the final answer.
	ModeHierarchical ExecutionMode = "hierarchical"
)

// Valid reports whether the mode is one of the known execution modes.
func (m ExecutionMode) Valid() bool {
	switch m {
	case ModeSequential, ModeParallel, ModeHierarchical:
		return true
	}
	return false
}

// ParseExecutionMode converts a string into an ExecutionMode.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	m := ExecutionMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", NewError(KindConfig, "unknown execution mode %q", s)
	}
	return m, nil
}

// AgentResult captures the outcome of one agent executing one task. Exactly
// one AgentResult exists per agent per task, whether it succeeded or not.
type AgentResult struct {
	AgentName string        `json:"agent_name"`
	Succeeded bool          `json:"succeeded"`
	Output    string        `json:"output,omitempty"`
	Err       *Error        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// PoolResult is the aggregate outcome of a pool execution. Results are
// ordered by agent registration order, never by completion order. Succeeded
// is true unless a mode-specific fatal condition occurred (a coordinator
// failure in hierarchical mode); individual agent failures alone never
// flip it.
type PoolResult struct {
	TaskID    string        `json:"task_id"`
	Mode      ExecutionMode `json:"mode"`
	Results   []AgentResult `json:"results"`
	Succeeded bool          `json:"succeeded"`
	Err       *Error        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Result returns the result of the named agent, if present.
func (r PoolResult) Result(agentName string) (AgentResult, bool) {
	for _, ar := range r.Results {
		if ar.AgentName == agentName {
			return ar, true
		}
	}
	return AgentResult{}, false
}

// CombinedOutput concatenates the successful agent outputs in result order,
// each prefixed by the producing agent's name.
func (r PoolResult) CombinedOutput() string {
	var b strings.Builder
	for _, ar := range r.Results {
		if !ar.Succeeded {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%s:\n%s", ar.AgentName, ar.Output)
	}
	return b.String()
}

// SuccessCount returns how many agent results succeeded.
func (r PoolResult) SuccessCount() int {
	n := 0
	for _, ar := range r.Results {
		if ar.Succeeded {
			n++
		}
	}
	return n
}
