// Package pool coordinates an ordered collection of agents under one of
// three execution disciplines: sequential (chained context), parallel
// (independent concurrent) and hierarchical (coordinator decomposes and
// synthesizes around parallel workers). Each discipline is a strategy
// implementation so its ordering and failure-containment invariants stay
// isolated and independently testable.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/logging"
	"github.com/swarmforge/swarmforge/memory"
	"github.com/swarmforge/swarmforge/model"
	"github.com/swarmforge/swarmforge/tool"
)

// DefaultMaxConcurrent bounds the fan-out of parallel and hierarchical
// executions when the option is left unset.
const DefaultMaxConcurrent = 10

// Options configures a Pool instance.
type Options struct {
	// Tools is the shared registry pool agents resolve their tool names
	// against.
	Tools *tool.Registry

	// Memory is the shared memory manager handed to every agent.
	Memory *memory.Manager

	// MaxConcurrent caps how many agents run at once in parallel and
	// hierarchical modes. Zero means DefaultMaxConcurrent.
	MaxConcurrent int

	// Logger receives pool lifecycle records. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Stats is a read-only snapshot of a pool and its agents.
type Stats struct {
	Name       string                          `json:"name"`
	AgentCount int                             `json:"agent_count"`
	Mode       core.ExecutionMode              `json:"execution_mode"`
	Agents     map[string]agent.ExecutionStats `json:"agents"`
}

// Pool owns an ordered set of agents sharing one execution mode. The agent
// list is immutable for the duration of one Execute call: AddAgent,
// RemoveAgent and SetExecutionMode are rejected while any execution is in
// flight, and each execution works on a stable snapshot taken at entry.
type Pool struct {
	name   string
	model  model.Model
	opts   Options
	logger logging.Logger

	mu       sync.Mutex
	agents   []*agent.Agent
	byName   map[string]*agent.Agent
	mode     core.ExecutionMode
	inFlight int
}

// New creates an empty pool in sequential mode.
func New(name string, m model.Model, optFns ...func(o *Options)) *Pool {
	opts := Options{
		MaxConcurrent: DefaultMaxConcurrent,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Pool{
		name:   name,
		model:  m,
		opts:   opts,
		logger: opts.Logger,
		byName: make(map[string]*agent.Agent),
		mode:   core.ModeSequential,
	}
}

// Name returns the pool's name.
func (p *Pool) Name() string { return p.name }

// AddAgent creates an agent from config and registers it at the end of the
// pool's order. Duplicate names, invalid configs and in-flight executions
// are configuration errors.
func (p *Pool) AddAgent(cfg agent.Config) (*agent.Agent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight > 0 {
		return nil, core.NewError(core.KindConfig, "cannot add agent %q while pool %q has an execution in flight", cfg.Name, p.name)
	}
	if _, exists := p.byName[cfg.Name]; exists {
		return nil, core.NewError(core.KindConfig, "agent %q already exists in pool %q", cfg.Name, p.name)
	}

	a, err := agent.New(cfg, p.model, func(o *agent.Options) {
		o.Tools = p.opts.Tools
		o.Memory = p.opts.Memory
		o.Logger = p.logger
	})
	if err != nil {
		return nil, err
	}

	p.agents = append(p.agents, a)
	p.byName[cfg.Name] = a
	p.logger.Info("pool.agent_added", "pool", p.name, "agent", cfg.Name, "role", cfg.Role)
	return a, nil
}

// RemoveAgent unregisters the named agent. Rejected while an execution is in
// flight.
func (p *Pool) RemoveAgent(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight > 0 {
		return core.NewError(core.KindConfig, "cannot remove agent %q while pool %q has an execution in flight", name, p.name)
	}
	if _, exists := p.byName[name]; !exists {
		return core.NewError(core.KindConfig, "agent %q not found in pool %q", name, p.name)
	}
	delete(p.byName, name)
	for i, a := range p.agents {
		if a.Name() == name {
			p.agents = append(p.agents[:i], p.agents[i+1:]...)
			break
		}
	}
	return nil
}

// Agent returns the named agent, if registered.
func (p *Pool) Agent(name string) (*agent.Agent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.byName[name]
	return a, ok
}

// Agents returns a snapshot of the agents in registration order.
func (p *Pool) Agents() []*agent.Agent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*agent.Agent, len(p.agents))
	copy(out, p.agents)
	return out
}

// AgentNames returns the agent names in registration order.
func (p *Pool) AgentNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, len(p.agents))
	for i, a := range p.agents {
		names[i] = a.Name()
	}
	return names
}

// SetExecutionMode switches the pool's fan-out discipline. Rejected with a
// configuration error for unknown modes or while an execution is in flight.
func (p *Pool) SetExecutionMode(mode core.ExecutionMode) error {
	if !mode.Valid() {
		return core.NewError(core.KindConfig, "unknown execution mode %q", mode)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inFlight > 0 {
		return core.NewError(core.KindConfig, "cannot change execution mode of pool %q while an execution is in flight", p.name)
	}
	p.mode = mode
	return nil
}

// Mode returns the pool's current execution mode.
func (p *Pool) Mode() core.ExecutionMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// Execute runs the task through every agent under the current execution
// mode. The returned PoolResult is ordered by agent registration order,
// independent of completion order. A non-nil error is returned only for
// contract violations detected before any agent runs (empty pool, invalid
// task, hierarchical mode without exactly one coordinator); agent-level
// failures are captured inside the result.
func (p *Pool) Execute(ctx context.Context, task core.Task) (core.PoolResult, error) {
	if err := task.Validate(); err != nil {
		return core.PoolResult{}, err
	}

	p.mu.Lock()
	agents := make([]*agent.Agent, len(p.agents))
	copy(agents, p.agents)
	mode := p.mode
	if len(agents) == 0 {
		p.mu.Unlock()
		return core.PoolResult{}, core.NewError(core.KindConfig, "pool %q has no agents", p.name)
	}
	strat, err := p.strategyFor(mode, agents)
	if err != nil {
		p.mu.Unlock()
		return core.PoolResult{}, err
	}
	p.inFlight++
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	start := time.Now()
	result := strat.run(ctx, agents, task)
	result.TaskID = task.ID
	result.Mode = mode
	result.Duration = time.Since(start)

	p.logger.Info("pool.execute",
		"pool", p.name,
		"task_id", task.ID,
		"mode", mode,
		"agents", len(agents),
		"succeeded", result.Succeeded,
		"duration", result.Duration,
	)
	return result, nil
}

// Stats returns a read-only snapshot: agent count, current mode and
// per-agent execution statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	agents := make([]*agent.Agent, len(p.agents))
	copy(agents, p.agents)
	mode := p.mode
	p.mu.Unlock()

	stats := Stats{
		Name:       p.name,
		AgentCount: len(agents),
		Mode:       mode,
		Agents:     make(map[string]agent.ExecutionStats, len(agents)),
	}
	for _, a := range agents {
		stats.Agents[a.Name()] = a.Stats()
	}
	return stats
}
