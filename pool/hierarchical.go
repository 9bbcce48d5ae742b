package pool

import (
	"context"
	"fmt"
	"strings"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
)

// hierarchicalStrategy runs the coordinator first to decompose the task into
// one subtask per worker, the workers concurrently against their assignments
// (same containment semantics as parallel mode), then the coordinator again
// to synthesize the worker outputs into the final answer.
//
// A coordinator failure at either step is fatal to the whole execution: no
// synthesis can be trusted without it, so the result is marked failed and no
// partial worker output is surfaced.
type hierarchicalStrategy struct {
	limit int
}

func (s hierarchicalStrategy) run(ctx context.Context, agents []*agent.Agent, task core.Task) core.PoolResult {
	coordinator, workers := splitCoordinator(agents)

	decomposition := coordinator.Execute(ctx, decomposeTask(task, workers), "")
	if !decomposition.Succeeded {
		return coordinatorFailed(decomposition, "decomposition")
	}

	subtasks := parseSubtasks(decomposition.Output, task, len(workers))
	workerResults := runConcurrently(workers, s.limit, func(i int, a *agent.Agent) core.AgentResult {
		return a.Execute(ctx, subtasks[i], "")
	})

	synthesis := coordinator.Execute(ctx, synthesizeTask(task), workerContext(workerResults))
	if !synthesis.Succeeded {
		return coordinatorFailed(synthesis, "synthesis")
	}

	// Reassemble in registration order with the coordinator's synthesis as
	// its single result for this task.
	results := make([]core.AgentResult, 0, len(agents))
	w := 0
	for _, a := range agents {
		if a.Role() == agent.RoleCoordinator {
			results = append(results, synthesis)
			continue
		}
		results = append(results, workerResults[w])
		w++
	}
	return core.PoolResult{Results: results, Succeeded: true}
}

// splitCoordinator separates the single coordinator (validated upstream)
// from the workers, both in registration order.
func splitCoordinator(agents []*agent.Agent) (*agent.Agent, []*agent.Agent) {
	var coordinator *agent.Agent
	workers := make([]*agent.Agent, 0, len(agents)-1)
	for _, a := range agents {
		if a.Role() == agent.RoleCoordinator {
			coordinator = a
			continue
		}
		workers = append(workers, a)
	}
	return coordinator, workers
}

// coordinatorFailed marks the whole execution failed. Only the coordinator's
// result is surfaced; worker output (if any) is withheld.
func coordinatorFailed(r core.AgentResult, step string) core.PoolResult {
	err := core.WrapError(core.KindCoordinatorFailure, r.Err,
		"coordinator %q failed during %s", r.AgentName, step)
	r.Err = err
	return core.PoolResult{
		Results:   []core.AgentResult{r},
		Succeeded: false,
		Err:       err,
	}
}

func decomposeTask(task core.Task, workers []*agent.Agent) core.Task {
	names := make([]string, len(workers))
	for i, w := range workers {
		names[i] = fmt.Sprintf("%s (%s)", w.Name(), w.Role())
	}
	return core.Task{
		ID: task.ID,
		Description: fmt.Sprintf(
			"Decompose the following task into exactly %d subtasks, one per worker agent: %s. Respond with one subtask per line, in worker order.\n\nTask: %s",
			len(workers), strings.Join(names, ", "), task.Description),
		Context: task.Context,
	}
}

func synthesizeTask(task core.Task) core.Task {
	return core.Task{
		ID:          task.ID,
		Description: fmt.Sprintf("Synthesize the worker outputs below into a final answer for the original task: %s", task.Description),
		Context:     task.Context,
	}
}

// parseSubtasks extracts one assignment per worker from the coordinator's
// decomposition, stripping list numbering. Missing lines fall back to the
// original task description so every worker always has an assignment.
func parseSubtasks(output string, task core.Task, workers int) []core.Task {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-) ")
		if line != "" {
			lines = append(lines, line)
		}
	}

	subtasks := make([]core.Task, workers)
	for i := range subtasks {
		description := task.Description
		if i < len(lines) {
			description = lines[i]
		}
		subtasks[i] = core.Task{ID: task.ID, Description: description, Context: task.Context}
	}
	return subtasks
}

// workerContext concatenates successful worker outputs for the synthesis
// step; failed workers contribute nothing.
func workerContext(results []core.AgentResult) string {
	var parts []string
	for _, r := range results {
		if r.Succeeded {
			parts = append(parts, fmt.Sprintf("%s:\n%s", r.AgentName, r.Output))
		}
	}
	return strings.Join(parts, "\n\n")
}
