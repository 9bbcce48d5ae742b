// Package swarmforge provides a high-level façade over the agent pools,
// shared memory, evaluation engine and workflow pipeline enabling rapid
// construction of multi-agent task systems. Most applications interact with
// this package by:
//  1. Creating a Swarm via New() with a model provider (optionally overriding
//     the default in-memory services)
//  2. Creating one or more pools and adding role-bound agents, or applying a
//     declarative YAML spec
//  3. Executing tasks directly against a pool (ExecuteTask) or through the
//     staged pipeline (RunWorkflow)
//
// The façade delegates dispatch to the Orchestrator while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a structured logger and
// tuned evaluation criteria.
package swarmforge

import (
	"context"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/config"
	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/evaluation"
	"github.com/swarmforge/swarmforge/logging"
	"github.com/swarmforge/swarmforge/memory"
	"github.com/swarmforge/swarmforge/model"
	"github.com/swarmforge/swarmforge/pool"
	"github.com/swarmforge/swarmforge/tool"
	"github.com/swarmforge/swarmforge/workflow"
)

// Options configures the Swarm instance.
type Options struct {
	// Tools is the registry agents resolve tool names against. Defaults to
	// a registry preloaded with the builtin tools.
	Tools *tool.Registry

	// Memory is the shared dual-tier store. Defaults to a fresh in-memory
	// manager.
	Memory *memory.Manager

	// Evaluator scores workflow output. Defaults to a rubric-backed engine.
	Evaluator *evaluation.Engine

	// Criteria is the rubric applied by RunWorkflow. Defaults to
	// evaluation.DefaultCriteria.
	Criteria evaluation.Criteria

	// MaxConcurrent caps agent fan-out inside each pool. Zero means the
	// pool default.
	MaxConcurrent int

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Swarm is the high-level façade aggregating the orchestrator and services.
type Swarm struct {
	model        model.Model
	opts         Options
	orchestrator *Orchestrator
}

// New creates a Swarm backed by the given model provider. Any unset service
// is initialized with an in-memory implementation.
func New(m model.Model, optFns ...func(o *Options)) *Swarm {
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
	if opts.Tools == nil {
		opts.Tools = tool.NewRegistry(
			tool.NewDataAnalysisTool(),
			tool.NewMemoryStoreTool(opts.Memory),
			tool.NewClockTool(),
		)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = evaluation.NewEngine()
	}

	return &Swarm{
		model:        m,
		opts:         opts,
		orchestrator: NewOrchestrator(opts.Logger),
	}
}

// CreatePool registers a new empty pool under the given name and execution
// mode. An empty mode selects sequential.
func (s *Swarm) CreatePool(name string, mode core.ExecutionMode) (*pool.Pool, error) {
	p := pool.New(name, s.model, func(o *pool.Options) {
		o.Tools = s.opts.Tools
		o.Memory = s.opts.Memory
		o.MaxConcurrent = s.opts.MaxConcurrent
		o.Logger = s.opts.Logger
	})
	if mode != "" {
		if err := p.SetExecutionMode(mode); err != nil {
			return nil, err
		}
	}
	if err := s.orchestrator.RegisterPool(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Pool returns a registered pool by name.
func (s *Swarm) Pool(name string) (*pool.Pool, error) {
	return s.orchestrator.Pool(name)
}

// PoolNames lists registered pools in creation order.
func (s *Swarm) PoolNames() []string {
	return s.orchestrator.PoolNames()
}

// AddAgent creates an agent from config inside the named pool.
func (s *Swarm) AddAgent(poolName string, cfg agent.Config) (*agent.Agent, error) {
	p, err := s.orchestrator.Pool(poolName)
	if err != nil {
		return nil, err
	}
	return p.AddAgent(cfg)
}

// ListAgents returns the agent names of the named pool in registration order.
func (s *Swarm) ListAgents(poolName string) ([]string, error) {
	p, err := s.orchestrator.Pool(poolName)
	if err != nil {
		return nil, err
	}
	return p.AgentNames(), nil
}

// AgentStats returns the execution statistics of one agent.
func (s *Swarm) AgentStats(poolName, agentName string) (agent.ExecutionStats, error) {
	p, err := s.orchestrator.Pool(poolName)
	if err != nil {
		return agent.ExecutionStats{}, err
	}
	a, ok := p.Agent(agentName)
	if !ok {
		return agent.ExecutionStats{}, core.NewError(core.KindConfig, "unknown agent: %s", agentName)
	}
	return a.Stats(), nil
}

// ExecuteTask dispatches a task directly to the named pool and records the
// execution in the orchestrator history.
func (s *Swarm) ExecuteTask(ctx context.Context, poolName string, task core.Task) (core.PoolResult, error) {
	return s.orchestrator.ExecuteTask(ctx, poolName, task)
}

// RunWorkflow drives the task through the staged pipeline on the named pool:
// input processing, agent execution, evaluation, memory commit and final
// aggregation.
func (s *Swarm) RunWorkflow(ctx context.Context, poolName string, task core.Task) (*workflow.State, error) {
	p, err := s.orchestrator.Pool(poolName)
	if err != nil {
		return nil, err
	}
	g := workflow.NewGraph(p, func(o *workflow.Options) {
		o.Memory = s.opts.Memory
		o.Evaluator = s.opts.Evaluator
		o.Criteria = s.opts.Criteria
		o.Logger = s.opts.Logger
	})
	return g.Run(ctx, task)
}

// Apply instantiates every pool and agent a declarative spec describes.
// Application is not transactional; pools registered before a failure remain
// registered.
func (s *Swarm) Apply(spec *config.SwarmSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	for _, ps := range spec.Pools {
		p, err := s.CreatePool(ps.Name, core.ExecutionMode(ps.Mode))
		if err != nil {
			return err
		}
		for _, as := range ps.Agents {
			cfg, err := as.AgentConfig()
			if err != nil {
				return err
			}
			if _, err := p.AddAgent(cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// Health reports a liveness snapshot of the swarm. Status is always
// "healthy" while the process is running; the counts let hosts expose a
// richer /health payload without reaching into individual components.
type Health struct {
	Status     string `json:"status"`
	Pools      int    `json:"pools"`
	Executions int    `json:"executions"`
}

// HealthCheck returns the current health snapshot.
func (s *Swarm) HealthCheck() Health {
	stats := s.orchestrator.Stats()
	return Health{
		Status:     "healthy",
		Pools:      stats.TotalPools,
		Executions: stats.TotalExecutions,
	}
}

// History returns all recorded executions, oldest first.
func (s *Swarm) History() []ExecutionRecord {
	return s.orchestrator.History()
}

// Stats snapshots the orchestrator's pools and activity.
func (s *Swarm) Stats() OrchestrationStats {
	return s.orchestrator.Stats()
}

// Memory exposes the shared memory manager.
func (s *Swarm) Memory() *memory.Manager { return s.opts.Memory }

// MemoryStats snapshots both memory tiers.
func (s *Swarm) MemoryStats() memory.Stats {
	return s.opts.Memory.Stats()
}

// SearchMemory runs a substring search across long-term memory, optionally
// restricted to a category.
func (s *Swarm) SearchMemory(query, category string) []memory.Entry {
	return s.opts.Memory.Search(query, category)
}

// EvaluationReport returns the latest evaluation recorded for a task.
func (s *Swarm) EvaluationReport(taskID string) (*evaluation.Report, bool) {
	return s.opts.Evaluator.ReportFor(taskID)
}

// EvaluationSummary returns a human-readable digest of recorded evaluations.
func (s *Swarm) EvaluationSummary() string {
	return s.opts.Evaluator.Summary()
}
