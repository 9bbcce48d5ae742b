package pool

import (
	"context"
	"sync"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
)

// parallelStrategy invokes all agents concurrently with no inter-agent
// context, bounded by a pool-level ceiling so no burst of agents exhausts
// resources. Results land in registration-order slots regardless of
// completion order, and one agent's failure or timeout never cancels its
// siblings.
type parallelStrategy struct {
	limit int
}

func (s parallelStrategy) run(ctx context.Context, agents []*agent.Agent, task core.Task) core.PoolResult {
	results := runConcurrently(agents, s.limit, func(_ int, a *agent.Agent) core.AgentResult {
		return a.Execute(ctx, task, "")
	})
	return core.PoolResult{Results: results, Succeeded: true}
}

// runConcurrently fans invoke out over the agents with at most limit in
// flight and joins on a barrier before returning results in agent order.
func runConcurrently(agents []*agent.Agent, limit int, invoke func(int, *agent.Agent) core.AgentResult) []core.AgentResult {
	if limit <= 0 || limit > len(agents) {
		limit = len(agents)
	}

	results := make([]core.AgentResult, len(agents))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, a := range agents {
		wg.Add(1)
		go func(slot int, a *agent.Agent) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[slot] = invoke(slot, a)
		}(i, a)
	}
	wg.Wait()

	return results
}
