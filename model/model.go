package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ToolCall represents a function call requested by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"` // JSON object of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized completion input produced by agents.
type Request struct {
	// Instructions is the system-level framing (role preamble).
	Instructions string `json:"instructions,omitempty"`
	// Prompt is the user-level content: task description, upstream context
	// and any accumulated tool results.
	Prompt string `json:"prompt"`
	// RoleHint names the requesting agent's role for providers that support
	// routing or metadata tagging.
	RoleHint string `json:"role_hint,omitempty"`
	// Tools lists the functions the model may call.
	Tools []ToolDefinition `json:"tools,omitempty"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of one model call.
type Response struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *Usage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
// Implementations must honor context cancellation and deadlines.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// LLMError represents a completion capability failure: provider error, rate
// limit or provider-side timeout.
type LLMError struct {
	Provider string `json:"provider"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm error (%s): %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("llm error (%s): %s", e.Provider, e.Message)
}

// Unwrap exposes the underlying provider error.
func (e *LLMError) Unwrap() error { return e.Err }

// NewLLMError creates an LLMError wrapping a provider failure.
func NewLLMError(provider, message string, err error) *LLMError {
	return &LLMError{Provider: provider, Message: message, Err: err}
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses, errors and per-call latency can be scripted per prompt
// fragment; lookups match the first registered fragment contained in the
// request prompt, falling back to a generic echo response.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	order     []string
	responses map[string]string
	errors    map[string]error
	delays    map[string]time.Duration
	delay     time.Duration
	calls     []Request
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
		errors:    make(map[string]error),
		delays:    make(map[string]time.Duration),
	}
}

// AddResponse registers a canned completion returned when the request prompt
// contains fragment.
func (m *MockModel) AddResponse(fragment, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register(fragment)
	m.responses[fragment] = response
}

// AddError registers a scripted failure returned when the request prompt
// contains fragment.
func (m *MockModel) AddError(fragment string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register(fragment)
	m.errors[fragment] = err
}

// AddDelay registers a latency applied before completing a matching prompt,
// simulating completion-time jitter.
func (m *MockModel) AddDelay(fragment string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register(fragment)
	m.delays[fragment] = d
}

// SetDefaultDelay applies a latency to every call without a scripted delay.
func (m *MockModel) SetDefaultDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Calls returns a copy of every request the model has received.
func (m *MockModel) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockModel) register(fragment string) {
	for _, f := range m.order {
		if f == fragment {
			return
		}
	}
	m.order = append(m.order, fragment)
}

func (m *MockModel) match(prompt string) (response string, delay time.Duration, err error) {
	for _, fragment := range m.order {
		if fragment == "" || !strings.Contains(prompt, fragment) {
			continue
		}
		delay = m.delays[fragment]
		if e, ok := m.errors[fragment]; ok {
			return "", delay, e
		}
		if r, ok := m.responses[fragment]; ok {
			return r, delay, nil
		}
	}
	return fmt.Sprintf("mock response to: %s", prompt), m.delay, nil
}

// Complete implements Model, honoring scripted delays and context deadlines.
func (m *MockModel) Complete(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	response, delay, scripted := m.match(req.Prompt)
	if delay == 0 {
		delay = m.delay
	}
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	if scripted != nil {
		return Response{}, scripted
	}
	return Response{Text: response, FinishReason: "stop"}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
