package pool

import (
	"context"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
)

// strategy is the execution discipline applied to a stable snapshot of the
// pool's agents. Implementations must order results by agent registration
// order regardless of completion order and must not let one agent's failure
// cancel its siblings; only hierarchicalStrategy may mark the whole result
// failed.
type strategy interface {
	run(ctx context.Context, agents []*agent.Agent, task core.Task) core.PoolResult
}

// strategyFor selects and pre-validates the strategy for a mode. Structural
// preconditions (hierarchical mode needs exactly one coordinator) fail here,
// before any execution work begins.
func (p *Pool) strategyFor(mode core.ExecutionMode, agents []*agent.Agent) (strategy, error) {
	switch mode {
	case core.ModeSequential:
		return sequentialStrategy{}, nil
	case core.ModeParallel:
		return parallelStrategy{limit: p.opts.MaxConcurrent}, nil
	case core.ModeHierarchical:
		coordinators := 0
		for _, a := range agents {
			if a.Role() == agent.RoleCoordinator {
				coordinators++
			}
		}
		if coordinators != 1 {
			return nil, core.NewError(core.KindConfig,
				"hierarchical mode requires exactly one coordinator in pool %q, found %d", p.name, coordinators)
		}
		if len(agents) < 2 {
			return nil, core.NewError(core.KindConfig,
				"hierarchical mode requires at least one worker in pool %q", p.name)
		}
		return hierarchicalStrategy{limit: p.opts.MaxConcurrent}, nil
	default:
		return nil, core.NewError(core.KindConfig, "unknown execution mode %q", mode)
	}
}
