package pool

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmforge/swarmforge/agent"
	"github.com/swarmforge/swarmforge/core"
	"github.com/swarmforge/swarmforge/model"
)

// stubModel routes every completion through a test-provided handler.
type stubModel struct {
	mu      sync.Mutex
	handler func(req model.Request) (model.Response, error)
	calls   []model.Request
}

func newStubModel(handler func(req model.Request) (model.Response, error)) *stubModel {
	return &stubModel{handler: handler}
}

func (s *stubModel) Complete(_ context.Context, req model.Request) (model.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.handler(req)
}

func (s *stubModel) Info() model.Info {
	return model.Info{Name: "stub", Provider: "mock", SupportsTools: true}
}

func (s *stubModel) requests() []model.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// echoByRole answers with a fixed string per role hint.
func echoByRole(outputs map[string]string) func(req model.Request) (model.Response, error) {
	return func(req model.Request) (model.Response, error) {
		if out, ok := outputs[req.RoleHint]; ok {
			return model.Response{Text: out, FinishReason: "stop"}, nil
		}
		return model.Response{Text: "unrouted", FinishReason: "stop"}, nil
	}
}

func addAgents(t *testing.T, p *Pool, cfgs ...agent.Config) {
	t.Helper()
	for _, cfg := range cfgs {
		_, err := p.AddAgent(cfg)
		require.NoError(t, err)
	}
}

func TestAddAgent_Duplicate(t *testing.T) {
	p := New("p", model.NewMockModel("m"))
	addAgents(t, p, agent.Config{Name: "a", Role: agent.RoleResearcher})

	_, err := p.AddAgent(agent.Config{Name: "a", Role: agent.RoleAnalyzer})
	assert.True(t, core.IsKind(err, core.KindConfig))
	assert.Equal(t, []string{"a"}, p.AgentNames())
}

func TestRemoveAgent(t *testing.T) {
	p := New("p", model.NewMockModel("m"))
	addAgents(t, p,
		agent.Config{Name: "a", Role: agent.RoleResearcher},
		agent.Config{Name: "b", Role: agent.RoleAnalyzer},
	)

	require.NoError(t, p.RemoveAgent("a"))
	assert.Equal(t, []string{"b"}, p.AgentNames())

	err := p.RemoveAgent("missing")
	assert.True(t, core.IsKind(err, core.KindConfig))
}

func TestSetExecutionMode(t *testing.T) {
	p := New("p", model.NewMockModel("m"))
	assert.Equal(t, core.ModeSequential, p.Mode())

	require.NoError(t, p.SetExecutionMode(core.ModeParallel))
	assert.Equal(t, core.ModeParallel, p.Mode())

	err := p.SetExecutionMode(core.ExecutionMode("roundrobin"))
	assert.True(t, core.IsKind(err, core.KindConfig))
}

func TestExecute_ContractViolations(t *testing.T) {
	p := New("p", model.NewMockModel("m"))

	// empty pool
	_, err := p.Execute(context.Background(), core.NewTask("anything"))
	assert.True(t, core.IsKind(err, core.KindConfig))

	// invalid task
	addAgents(t, p, agent.Config{Name: "a", Role: agent.RoleResearcher})
	_, err = p.Execute(context.Background(), core.Task{ID: "t1"})
	assert.True(t, core.IsKind(err, core.KindConfig))
}

func TestSequential_ChainsContext(t *testing.T) {
	m := newStubModel(echoByRole(map[string]string{
		"researcher":  "alpha findings",
		"synthesizer": "beta synthesis",
	}))
	p := New("p", m)
	addAgents(t, p,
		agent.Config{Name: "alpha", Role: agent.RoleResearcher},
		agent.Config{Name: "beta", Role: agent.RoleSynthesizer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("build the summary"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, core.ModeSequential, result.Mode)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "alpha", result.Results[0].AgentName)
	assert.Equal(t, "beta", result.Results[1].AgentName)
	assert.Equal(t, "beta synthesis", result.Results[1].Output)

	// the second agent saw the first agent's output as context
	reqs := m.requests()
	require.Len(t, reqs, 2)
	assert.NotContains(t, reqs[0].Prompt, "Output from prior agents")
	assert.Contains(t, reqs[1].Prompt, "Output from prior agents:\nalpha:\nalpha findings")
}

func TestSequential_FailingAgentContributesNothing(t *testing.T) {
	m := newStubModel(func(req model.Request) (model.Response, error) {
		if req.RoleHint == "analyzer" {
			return model.Response{}, model.NewLLMError("mock", "boom", errors.New("503"))
		}
		return model.Response{Text: req.RoleHint + " out", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	addAgents(t, p,
		agent.Config{Name: "a", Role: agent.RoleResearcher},
		agent.Config{Name: "b", Role: agent.RoleAnalyzer},
		agent.Config{Name: "c", Role: agent.RoleSynthesizer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("pipeline"))
	require.NoError(t, err)

	// the chain is fail-soft: the pool result stays successful
	assert.True(t, result.Succeeded)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Succeeded)
	assert.False(t, result.Results[1].Succeeded)
	assert.Equal(t, core.KindLLM, result.Results[1].Err.Kind)
	assert.True(t, result.Results[2].Succeeded)

	// the third agent saw only the first agent's output
	reqs := m.requests()
	require.Len(t, reqs, 3)
	assert.Contains(t, reqs[2].Prompt, "a:\nresearcher out")
	assert.NotContains(t, reqs[2].Prompt, "b:")
}

func TestParallel_RegistrationOrderUnderJitter(t *testing.T) {
	// the first-registered agent finishes last; result order must not change
	m := newStubModel(func(req model.Request) (model.Response, error) {
		switch req.RoleHint {
		case "researcher":
			time.Sleep(60 * time.Millisecond)
			return model.Response{Text: "slow", FinishReason: "stop"}, nil
		case "analyzer":
			time.Sleep(20 * time.Millisecond)
			return model.Response{Text: "medium", FinishReason: "stop"}, nil
		default:
			return model.Response{Text: "fast", FinishReason: "stop"}, nil
		}
	})
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeParallel))
	addAgents(t, p,
		agent.Config{Name: "slowpoke", Role: agent.RoleResearcher},
		agent.Config{Name: "steady", Role: agent.RoleAnalyzer},
		agent.Config{Name: "sprinter", Role: agent.RoleSynthesizer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("race"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "slowpoke", result.Results[0].AgentName)
	assert.Equal(t, "slow", result.Results[0].Output)
	assert.Equal(t, "steady", result.Results[1].AgentName)
	assert.Equal(t, "sprinter", result.Results[2].AgentName)
}

func TestParallel_OneFailureDoesNotCancelSiblings(t *testing.T) {
	m := newStubModel(func(req model.Request) (model.Response, error) {
		if req.RoleHint == "analyzer" {
			return model.Response{}, errors.New("boom")
		}
		return model.Response{Text: "fine", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeParallel))
	addAgents(t, p,
		agent.Config{Name: "a", Role: agent.RoleResearcher},
		agent.Config{Name: "b", Role: agent.RoleAnalyzer},
		agent.Config{Name: "c", Role: agent.RoleSynthesizer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("mixed"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 2, result.SuccessCount())
	assert.Equal(t, "a:\nfine\n\nc:\nfine", result.CombinedOutput())
}

func TestParallel_AgentTimeoutIsContained(t *testing.T) {
	m := newStubModel(func(req model.Request) (model.Response, error) {
		if req.RoleHint == "researcher" {
			time.Sleep(200 * time.Millisecond)
		}
		return model.Response{Text: "done", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeParallel))
	addAgents(t, p,
		agent.Config{Name: "slow", Role: agent.RoleResearcher, Timeout: 20 * time.Millisecond},
		agent.Config{Name: "ok", Role: agent.RoleAnalyzer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("deadline"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)

	slow, _ := result.Result("slow")
	assert.False(t, slow.Succeeded)
	assert.Equal(t, core.KindAgentTimeout, slow.Err.Kind)

	ok, _ := result.Result("ok")
	assert.True(t, ok.Succeeded)
}

func TestHierarchical_DecomposeAndSynthesize(t *testing.T) {
	m := newStubModel(func(req model.Request) (model.Response, error) {
		if req.RoleHint == "coordinator" {
			if strings.Contains(req.Prompt, "Decompose") {
				return model.Response{Text: "1. research the market\n2. crunch the data", FinishReason: "stop"}, nil
			}
			return model.Response{Text: "final synthesis", FinishReason: "stop"}, nil
		}
		return model.Response{Text: req.RoleHint + " result", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeHierarchical))
	addAgents(t, p,
		agent.Config{Name: "lead", Role: agent.RoleCoordinator},
		agent.Config{Name: "scout", Role: agent.RoleResearcher},
		agent.Config{Name: "cruncher", Role: agent.RoleAnalyzer},
	)

	result, err := p.Execute(context.Background(), core.NewTask("plan the launch"))
	require.NoError(t, err)
	assert.True(t, result.Succeeded)

	// registration order with the synthesis as the coordinator's result
	require.Len(t, result.Results, 3)
	assert.Equal(t, "lead", result.Results[0].AgentName)
	assert.Equal(t, "final synthesis", result.Results[0].Output)
	assert.Equal(t, "scout", result.Results[1].AgentName)
	assert.Equal(t, "cruncher", result.Results[2].AgentName)

	// workers received the decomposed subtasks, not the original description;
	// worker calls may be recorded in either order
	var workerPrompts []string
	for _, req := range m.requests() {
		if req.RoleHint != "coordinator" {
			workerPrompts = append(workerPrompts, req.Prompt)
		}
	}
	require.Len(t, workerPrompts, 2)
	joined := strings.Join(workerPrompts, "\n---\n")
	assert.Contains(t, joined, "research the market")
	assert.Contains(t, joined, "crunch the data")
	assert.NotContains(t, joined, "plan the launch")

	// synthesis saw both worker outputs
	reqs := m.requests()
	last := reqs[len(reqs)-1]
	assert.Contains(t, last.Prompt, "scout:\nresearcher result")
	assert.Contains(t, last.Prompt, "cruncher:\nanalyzer result")
}

func TestHierarchical_CoordinatorFailureIsFatal(t *testing.T) {
	workerCalls := 0
	var mu sync.Mutex
	m := newStubModel(func(req model.Request) (model.Response, error) {
		if req.RoleHint == "coordinator" {
			return model.Response{}, model.NewLLMError("mock", "down", errors.New("500"))
		}
		mu.Lock()
		workerCalls++
		mu.Unlock()
		return model.Response{Text: "worker out", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeHierarchical))
	addAgents(t, p,
		agent.Config{Name: "lead", Role: agent.RoleCoordinator},
		agent.Config{Name: "scout", Role: agent.RoleResearcher},
	)

	result, err := p.Execute(context.Background(), core.NewTask("plan"))
	require.NoError(t, err)

	assert.False(t, result.Succeeded)
	require.NotNil(t, result.Err)
	assert.Equal(t, core.KindCoordinatorFailure, result.Err.Kind)

	// no partial worker output is surfaced and no worker ever ran
	require.Len(t, result.Results, 1)
	assert.Equal(t, "lead", result.Results[0].AgentName)
	assert.Equal(t, 0, workerCalls)
	assert.Empty(t, result.CombinedOutput())
}

func TestHierarchical_StructuralValidation(t *testing.T) {
	m := model.NewMockModel("m")

	// no coordinator
	p := New("p", m)
	require.NoError(t, p.SetExecutionMode(core.ModeHierarchical))
	addAgents(t, p, agent.Config{Name: "a", Role: agent.RoleResearcher})
	_, err := p.Execute(context.Background(), core.NewTask("x"))
	assert.True(t, core.IsKind(err, core.KindConfig))

	// two coordinators
	p = New("p2", m)
	require.NoError(t, p.SetExecutionMode(core.ModeHierarchical))
	addAgents(t, p,
		agent.Config{Name: "c1", Role: agent.RoleCoordinator},
		agent.Config{Name: "c2", Role: agent.RoleCoordinator},
	)
	_, err = p.Execute(context.Background(), core.NewTask("x"))
	assert.True(t, core.IsKind(err, core.KindConfig))

	// coordinator without workers
	p = New("p3", m)
	require.NoError(t, p.SetExecutionMode(core.ModeHierarchical))
	addAgents(t, p, agent.Config{Name: "c1", Role: agent.RoleCoordinator})
	_, err = p.Execute(context.Background(), core.NewTask("x"))
	assert.True(t, core.IsKind(err, core.KindConfig))
}

func TestMutationRejectedWhileExecuting(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	m := newStubModel(func(req model.Request) (model.Response, error) {
		once.Do(func() { close(started) })
		<-release
		return model.Response{Text: "done", FinishReason: "stop"}, nil
	})
	p := New("p", m)
	addAgents(t, p, agent.Config{Name: "a", Role: agent.RoleResearcher, Timeout: 5 * time.Second})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Execute(context.Background(), core.NewTask("block"))
	}()
	<-started

	_, err := p.AddAgent(agent.Config{Name: "b", Role: agent.RoleAnalyzer})
	assert.True(t, core.IsKind(err, core.KindConfig))

	err = p.RemoveAgent("a")
	assert.True(t, core.IsKind(err, core.KindConfig))

	err = p.SetExecutionMode(core.ModeParallel)
	assert.True(t, core.IsKind(err, core.KindConfig))

	close(release)
	<-done

	// mutations are accepted again after the execution drains
	_, err = p.AddAgent(agent.Config{Name: "b", Role: agent.RoleAnalyzer})
	assert.NoError(t, err)
}

func TestStats(t *testing.T) {
	p := New("p", model.NewMockModel("m"))
	addAgents(t, p,
		agent.Config{Name: "a", Role: agent.RoleResearcher},
		agent.Config{Name: "b", Role: agent.RoleAnalyzer},
	)

	_, err := p.Execute(context.Background(), core.NewTask("one"))
	require.NoError(t, err)

	stats := p.Stats()
	assert.Equal(t, "p", stats.Name)
	assert.Equal(t, 2, stats.AgentCount)
	assert.Equal(t, core.ModeSequential, stats.Mode)
	assert.Equal(t, 1, stats.Agents["a"].TotalExecutions)
	assert.Equal(t, 1, stats.Agents["b"].TotalExecutions)
}
