// Package workflow implements the fixed five-stage pipeline that sequences
// one task through the swarm: validate/store input, agent pool execution,
// evaluation, memory commit, and final aggregation. The pipeline is a linear
// state machine with no branching and no internal retries; the only control
// transfer is a short-circuit from execution to aggregation when the pool
// reports a fatal coordinator failure.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/evaluation"
	"github.com/swarmforge/swarmforge/logging"
	"github.com/swarmforge/swarmforge/memory"
	"github.com/swarmforge/swarmforge/pool"
)

// Status tracks the pipeline's progress through its stages. No status is
// ever revisited within one run.
type Status string

const (
	// StatusInitialized is the entry state before any stage ran.
	StatusInitialized Status = "initialized"
	// StatusInputProcessed follows input validation and storage.
	StatusInputProcessed Status = "input_processed"
	// StatusAgentsExecuted follows the pool execution stage.
	StatusAgentsExecuted Status = "agents_executed"
	// StatusEvaluated follows the evaluation stage.
	StatusEvaluated Status = "evaluated"
	// StatusMemoryUpdated follows the long-term memory commit.
	StatusMemoryUpdated Status = "memory_updated"
	// StatusCompleted is the successful terminal state.
	StatusCompleted Status = "completed"
	// StatusFailed is the error terminal state.
	StatusFailed Status = "failed"
)

// scratchTTL bounds the short-term scratch entries written during a run.
const scratchTTL = 15 * time.Minute

// tasksCategory is the long-term category raw tasks are filed under.
const tasksCategory = "tasks"

// Message is one entry in the run's conversational log.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the aggregate the pipeline threads through its stages and returns
// to the caller as the terminal result, success or error variant.
type State struct {
	Task        core.Task          `json:"task"`
	Messages    []Message          `json:"messages"`
	PoolResult  core.PoolResult    `json:"pool_result"`
	Evaluation  *evaluation.Report `json:"evaluation,omitempty"`
	MemoryStats memory.Stats       `json:"memory_stats"`
	Status      Status             `json:"status"`
	Err         *core.Error        `json:"error,omitempty"`
}

// Options configures a Graph instance.
type Options struct {
	// Memory is the shared dual-tier store the pipeline commits to.
	// Defaults to a fresh manager.
	Memory *memory.Manager

	// Evaluator scores pool output. Defaults to a rubric-backed engine.
	Evaluator *evaluation.Engine

	// Criteria is the rubric applied at the evaluation stage. Defaults to
	// evaluation.DefaultCriteria.
	Criteria evaluation.Criteria

	// Logger receives stage transition records. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Graph wires one agent pool, the memory manager and the evaluation engine
// into the fixed pipeline. A Graph may run many tasks; each Run call is
// independent.
type Graph struct {
	pool      *pool.Pool
	memory    *memory.Manager
	evaluator *evaluation.Engine
	criteria  evaluation.Criteria
	logger    logging.Logger
}

// NewGraph creates a workflow around an existing pool.
func NewGraph(p *pool.Pool, optFns ...func(o *Options)) *Graph {
	opts := Options{
		Criteria: evaluation.DefaultCriteria,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewManager()
	}
	if opts.Evaluator == nil {
		opts.Evaluator = evaluation.NewEngine()
	}
	return &Graph{
		pool:      p,
		memory:    opts.Memory,
		evaluator: opts.Evaluator,
		criteria:  opts.Criteria,
		logger:    opts.Logger,
	}
}

// Memory exposes the shared memory manager the pipeline commits to.
func (g *Graph) Memory() *memory.Manager { return g.memory }

// Evaluator exposes the evaluation engine used at the evaluation stage.
func (g *Graph) Evaluator() *evaluation.Engine { return g.evaluator }

// Run executes the pipeline once for the task. Contract violations (empty
// task, misconfigured pool) surface as a synchronous error before any agent
// work begins; every other outcome, including a fatal coordinator failure,
// is reported through the returned State's terminal status.
func (g *Graph) Run(ctx context.Context, task core.Task) (*State, error) {
	state := &State{Task: task, Status: StatusInitialized}

	if err := g.processInput(state); err != nil {
		return nil, err
	}
	shortCircuit, err := g.agentExecution(ctx, state)
	if err != nil {
		return nil, err
	}
	if !shortCircuit {
		g.evaluate(ctx, state)
		g.memoryUpdate(state)
	}
	g.aggregate(state)
	return state, nil
}

// processInput validates the task, assigns an id if missing and files the
// raw task in long-term memory under the "tasks" category.
func (g *Graph) processInput(state *State) error {
	if state.Task.ID == "" {
		state.Task.ID = uuid.NewString()
	}
	if err := state.Task.Validate(); err != nil {
		return err
	}

	if err := g.memory.StoreLongTerm(state.Task.ID, state.Task.Description, tasksCategory); err != nil {
		return err
	}
	if err := g.memory.StoreShortTerm("current_task", state.Task.Description, scratchTTL); err != nil {
		return err
	}

	state.Messages = append(state.Messages, Message{Role: "user", Content: state.Task.Description, Timestamp: time.Now()})
	state.Status = StatusInputProcessed
	g.logger.Debug("workflow.input_processed", "task_id", state.Task.ID)
	return nil
}

// agentExecution delegates to the pool. A pool-level fatal failure marks the
// error state and short-circuits the pipeline to aggregation, leaving
// long-term memory untouched by any partial worker output.
func (g *Graph) agentExecution(ctx context.Context, state *State) (shortCircuit bool, err error) {
	result, err := g.pool.Execute(ctx, state.Task)
	if err != nil {
		return false, err
	}
	state.PoolResult = result
	state.Status = StatusAgentsExecuted

	if !result.Succeeded {
		state.Err = result.Err
		g.logger.Warn("workflow.execution_failed", "task_id", state.Task.ID, "error", result.Err)
		return true, nil
	}
	return false, nil
}

// evaluate scores the pool's combined successful output.
func (g *Graph) evaluate(ctx context.Context, state *State) {
	state.Evaluation = g.evaluator.EvaluateOutput(ctx, state.Task.ID, state.PoolResult.CombinedOutput(), g.criteria)
	state.Status = StatusEvaluated
}

// memoryUpdate commits the final output and the evaluation report to
// long-term memory under a task-scoped category, then clears the short-term
// scratch used during execution.
func (g *Graph) memoryUpdate(state *State) {
	category := fmt.Sprintf("task:%s", state.Task.ID)

	if err := g.memory.StoreLongTerm("output", state.PoolResult.CombinedOutput(), category); err != nil {
		g.logger.Warn("workflow.memory_commit_failed", "task_id", state.Task.ID, "error", err)
	}
	if b, err := json.Marshal(state.Evaluation); err == nil {
		if err := g.memory.StoreLongTerm("evaluation", string(b), category); err != nil {
			g.logger.Warn("workflow.memory_commit_failed", "task_id", state.Task.ID, "error", err)
		}
	}

	g.memory.ClearShortTerm()
	state.Status = StatusMemoryUpdated
}

// aggregate assembles the terminal state: messages, pool result, evaluation
// report and a memory snapshot.
func (g *Graph) aggregate(state *State) {
	state.MemoryStats = g.memory.Stats()

	if state.Err != nil {
		state.Status = StatusFailed
		state.Messages = append(state.Messages, Message{
			Role:      "assistant",
			Content:   fmt.Sprintf("Task failed: %s", state.Err.Message),
			Timestamp: time.Now(),
		})
		return
	}

	state.Status = StatusCompleted
	state.Messages = append(state.Messages, Message{
		Role:      "assistant",
		Content:   fmt.Sprintf("Task completed: %s", truncate(state.Task.Description, 50)),
		Timestamp: time.Now(),
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
