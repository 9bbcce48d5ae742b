// Package agent implements the role-bound unit of work at the bottom of the
// SwarmForge hierarchy: each Agent turns a task plus optional upstream
// context into an output via the completion capability and its permitted
// tools, keeping a private append-only execution log.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/logging"
	"github.com/swarmforge/swarmforge/memory"
	"github.com/swarmforge/swarmforge/model"
	"github.com/swarmforge/swarmforge/tool"
)

// scratchTTL bounds how long an agent's short-term scratch entry survives.
const scratchTTL = 10 * time.Minute

// Options configures an Agent instance.
type Options struct {
	// Tools is the shared registry the agent resolves its configured tool
	// names against. Required when the config lists tools.
	Tools *tool.Registry

	// Memory receives short-term scratch entries when the config enables
	// memory. Optional.
	Memory *memory.Manager

	// Logger receives per-execution records. Defaults to NoOpLogger.
	Logger logging.Logger
}

// LogEntry is one record in an agent's append-only execution log. Every
// Execute call appends exactly one entry, win or lose.
type LogEntry struct {
	Timestamp time.Time     `json:"timestamp"`
	TaskID    string        `json:"task_id"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
}

// ExecutionStats summarizes an agent's execution log.
type ExecutionStats struct {
	AgentName       string        `json:"agent_name"`
	TotalExecutions int           `json:"total_executions"`
	Successful      int           `json:"successful"`
	Failed          int           `json:"failed"`
	SuccessRate     float64       `json:"success_rate"`
	TotalDuration   time.Duration `json:"total_duration"`
	AvgDuration     time.Duration `json:"avg_duration"`
}

// Agent is a single role-bound worker. It is created by its owning pool,
// mutated only by its own Execute calls, and destroyed with the pool.
// Execute is safe for concurrent use; the execution log is guarded.
type Agent struct {
	cfg    Config
	model  model.Model
	tools  []tool.Tool
	memory *memory.Manager
	logger logging.Logger

	logMu sync.Mutex
	log   []LogEntry
}

// New creates an agent from a validated configuration. Unknown or
// role-disallowed tool names fail here, before any execution work begins.
func New(cfg Config, m model.Model, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, core.NewError(core.KindConfig, "agent %q requires a model", cfg.Name)
	}

	var tools []tool.Tool
	if len(cfg.Tools) > 0 {
		if opts.Tools == nil {
			return nil, core.NewError(core.KindConfig, "agent %q lists tools but no registry was provided", cfg.Name)
		}
		resolved, err := opts.Tools.Resolve(cfg.Tools)
		if err != nil {
			return nil, err
		}
		tools = resolved
	}

	return &Agent{
		cfg:    cfg,
		model:  m,
		tools:  tools,
		memory: opts.Memory,
		logger: opts.Logger,
	}, nil
}

// Name returns the agent's identity within its pool.
func (a *Agent) Name() string { return a.cfg.Name }

// Role returns the agent's immutable role.
func (a *Agent) Role() Role { return a.cfg.Role }

// Config returns a copy of the agent's configuration.
func (a *Agent) Config() Config { return a.cfg }

// Execute runs one task: it builds a role-specific prompt from the task
// description plus optional upstream context, invokes the completion
// capability possibly followed by tool invocations up to MaxIterations, and
// returns the final text or an error detail. Failures never escape as Go
// errors to the caller; they are captured in the AgentResult. The configured
// timeout is enforced locally and converts into a result of kind
// AgentTimeout rather than cancelling sibling agents.
func (a *Agent) Execute(ctx context.Context, task core.Task, priorContext string) core.AgentResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	output, err := a.run(ctx, task, priorContext)
	duration := time.Since(start)

	a.appendLog(LogEntry{
		Timestamp: start,
		TaskID:    task.ID,
		Duration:  duration,
		Success:   err == nil,
	})

	result := core.AgentResult{
		AgentName: a.cfg.Name,
		Succeeded: err == nil,
		Output:    output,
		Duration:  duration,
	}
	if err != nil {
		result.Err = a.classify(err)
		result.Output = ""
	}
	a.logger.Debug("agent.execute", "agent", a.cfg.Name, "task_id", task.ID, "success", result.Succeeded, "duration", duration)

	if a.cfg.MemoryEnabled && a.memory != nil && result.Succeeded {
		key := fmt.Sprintf("agent:%s:last_output", a.cfg.Name)
		if err := a.memory.StoreShortTerm(key, result.Output, scratchTTL); err != nil {
			a.logger.Warn("agent.scratch_store_failed", "agent", a.cfg.Name, "error", err)
		}
	}
	return result
}

// run drives the completion/tool loop until the model stops requesting
// tools or MaxIterations is reached.
func (a *Agent) run(ctx context.Context, task core.Task, priorContext string) (string, error) {
	prompt := a.buildPrompt(task, priorContext)
	req := model.Request{
		Instructions: a.cfg.Role.Preamble(),
		Prompt:       prompt,
		RoleHint:     string(a.cfg.Role),
		Tools:        a.toolDefinitions(),
	}

	var resp model.Response
	for i := 0; i < a.cfg.MaxIterations; i++ {
		var err error
		resp, err = a.model.Complete(ctx, req)
		if err != nil {
			return "", err
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		results, err := a.invokeTools(ctx, resp.ToolCalls)
		if err != nil {
			return "", err
		}
		req.Prompt = req.Prompt + "\n\n" + results + "\n\nUse the tool results above to complete the task."
	}
	// Iteration budget exhausted; the last text, if any, is the best answer.
	if resp.Text != "" {
		return resp.Text, nil
	}
	return "", core.NewError(core.KindLLM, "agent %q exhausted %d iterations without a final answer", a.cfg.Name, a.cfg.MaxIterations)
}

// invokeTools executes the model-requested tool calls in order, formatting
// their outputs for the follow-up prompt.
func (a *Agent) invokeTools(ctx context.Context, calls []model.ToolCall) (string, error) {
	var b strings.Builder
	for _, call := range calls {
		t, ok := a.lookupTool(call.Name)
		if !ok {
			return "", core.NewError(core.KindConfig, "tool %q is not available to agent %q", call.Name, a.cfg.Name)
		}
		args := map[string]any{}
		if len(call.Arguments) > 0 {
			if err := json.Unmarshal(call.Arguments, &args); err != nil {
				return "", core.WrapError(core.KindTool, err, "malformed arguments for tool %q", call.Name)
			}
		}
		out, err := t.Call(ctx, args)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Tool %s returned: %s", call.Name, out)
	}
	return b.String(), nil
}

func (a *Agent) lookupTool(name string) (tool.Tool, bool) {
	for _, t := range a.tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func (a *Agent) buildPrompt(task core.Task, priorContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s", task.Description)
	if task.Context != "" {
		fmt.Fprintf(&b, "\n\nTask context:\n%s", task.Context)
	}
	if priorContext != "" {
		fmt.Fprintf(&b, "\n\nOutput from prior agents:\n%s", priorContext)
	}
	return b.String()
}

func (a *Agent) toolDefinitions() []model.ToolDefinition {
	if len(a.tools) == 0 {
		return nil
	}
	defs := make([]model.ToolDefinition, len(a.tools))
	for i, t := range a.tools {
		defs[i] = model.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return defs
}

// classify maps an execution failure onto the structured error kinds.
func (a *Agent) classify(err error) *core.Error {
	var structured *core.Error
	if errors.As(err, &structured) {
		return structured
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.WrapError(core.KindAgentTimeout, err, "agent %q exceeded its %s timeout", a.cfg.Name, a.cfg.Timeout)
	}
	var toolErr *tool.ToolError
	if errors.As(err, &toolErr) {
		return core.WrapError(core.KindTool, err, "tool %q failed", toolErr.Tool)
	}
	var llmErr *model.LLMError
	if errors.As(err, &llmErr) {
		return core.WrapError(core.KindLLM, err, "completion failed for agent %q", a.cfg.Name)
	}
	return core.WrapError(core.KindLLM, err, "agent %q execution failed", a.cfg.Name)
}

func (a *Agent) appendLog(entry LogEntry) {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	a.log = append(a.log, entry)
}

// ExecutionLog returns a copy of the append-only execution log.
func (a *Agent) ExecutionLog() []LogEntry {
	a.logMu.Lock()
	defer a.logMu.Unlock()
	out := make([]LogEntry, len(a.log))
	copy(out, a.log)
	return out
}

// Stats summarizes the execution log. It is read-only and never mutates the
// agent.
func (a *Agent) Stats() ExecutionStats {
	a.logMu.Lock()
	defer a.logMu.Unlock()

	stats := ExecutionStats{AgentName: a.cfg.Name, TotalExecutions: len(a.log)}
	for _, entry := range a.log {
		if entry.Success {
			stats.Successful++
		} else {
			stats.Failed++
		}
		stats.TotalDuration += entry.Duration
	}
	if stats.TotalExecutions > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.TotalExecutions)
		stats.AvgDuration = stats.TotalDuration / time.Duration(stats.TotalExecutions)
	}
	return stats
}
