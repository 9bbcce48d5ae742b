package swarmforge

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/logging"
	"github.com/swarmforge/swarmforge/pool"
)

// ExecutionRecord is one entry in the orchestrator's execution history.
type ExecutionRecord struct {
	ID        string          `json:"id"`
	Pool      string          `json:"pool"`
	Task      core.Task       `json:"task"`
	Result    core.PoolResult `json:"result"`
	Duration  time.Duration   `json:"duration"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrchestrationStats summarizes the orchestrator's pools and activity.
type OrchestrationStats struct {
	TotalPools      int                   `json:"total_pools"`
	TotalExecutions int                   `json:"total_executions"`
	Pools           map[string]pool.Stats `json:"pools"`
}

// Orchestrator owns a registry of named pools and records every task
// execution it dispatches. All methods are safe for concurrent use.
type Orchestrator struct {
	logger logging.Logger

	mu      sync.RWMutex
	pools   map[string]*pool.Pool
	order   []string
	history []ExecutionRecord
}

// NewOrchestrator creates an empty orchestrator.
func NewOrchestrator(logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Orchestrator{
		logger: logger,
		pools:  make(map[string]*pool.Pool),
	}
}

// RegisterPool adds a pool under its name. Duplicate names are a
// configuration error.
func (o *Orchestrator) RegisterPool(p *pool.Pool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := p.Name()
	if _, exists := o.pools[name]; exists {
		return core.NewError(core.KindConfig, "pool already registered: %s", name)
	}
	o.pools[name] = p
	o.order = append(o.order, name)
	o.logger.Info("orchestrator.pool_registered", "pool", name)
	return nil
}

// Pool returns the named pool, or a configuration error if unknown.
func (o *Orchestrator) Pool(name string) (*pool.Pool, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	p, ok := o.pools[name]
	if !ok {
		return nil, core.NewError(core.KindConfig, "unknown pool: %s", name)
	}
	return p, nil
}

// PoolNames lists registered pools in registration order.
func (o *Orchestrator) PoolNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]string(nil), o.order...)
}

// ExecuteTask dispatches the task to the named pool and appends an execution
// record. The record is kept even when the pool reports a fatal failure;
// only contract violations (unknown pool, invalid task) skip the history.
func (o *Orchestrator) ExecuteTask(ctx context.Context, poolName string, task core.Task) (core.PoolResult, error) {
	p, err := o.Pool(poolName)
	if err != nil {
		return core.PoolResult{}, err
	}

	start := time.Now()
	result, err := p.Execute(ctx, task)
	if err != nil {
		return core.PoolResult{}, err
	}

	o.mu.Lock()
	o.history = append(o.history, ExecutionRecord{
		ID:        uuid.NewString(),
		Pool:      poolName,
		Task:      task,
		Result:    result,
		Duration:  time.Since(start),
		Timestamp: start,
	})
	o.mu.Unlock()

	return result, nil
}

// History returns a copy of all execution records, oldest first.
func (o *Orchestrator) History() []ExecutionRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]ExecutionRecord(nil), o.history...)
}

// Stats snapshots pool membership and execution counts.
func (o *Orchestrator) Stats() OrchestrationStats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := OrchestrationStats{
		TotalPools:      len(o.pools),
		TotalExecutions: len(o.history),
		Pools:           make(map[string]pool.Stats, len(o.pools)),
	}
	for name, p := range o.pools {
		stats.Pools[name] = p.Stats()
	}
	return stats
}
