// Package model defines the completion capability consumed by agents: a
// provider-neutral Model interface with normalized Request/Response shapes,
// unified tool calling structures and the LLMError failure type. Concrete
// providers live in the openai and anthropic subpackages; MockModel supports
// deterministic tests with scripted responses, failures and latency.
package model
