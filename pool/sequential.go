package pool

import (
	"context"
	"fmt"
	"strings"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
)

// sequentialStrategy invokes agents one at a time in registration order.
// Each agent after the first receives the concatenation of all prior
// successful outputs as context. A failing agent contributes nothing to
// downstream context but does not stop the chain: later agents still run
// with whatever context is available.
type sequentialStrategy struct{}

func (sequentialStrategy) run(ctx context.Context, agents []*agent.Agent, task core.Task) core.PoolResult {
	results := make([]core.AgentResult, 0, len(agents))
	var contextParts []string

	for _, a := range agents {
		prior := strings.Join(contextParts, "\n\n")
		r := a.Execute(ctx, task, prior)
		results = append(results, r)
		if r.Succeeded {
			contextParts = append(contextParts, fmt.Sprintf("%s:\n%s", r.AgentName, r.Output))
		}
	}

	// Individual failures are recorded per agent; the chain itself has no
	// fatal condition.
	return core.PoolResult{Results: results, Succeeded: true}
}
