package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/swarmforge/swarmforge/memory"
)

// tavilyEndpoint is the search API web_search queries.
const tavilyEndpoint = "https://api.tavily.com/search"

// NewWebSearchTool returns a tool backed by the Tavily search API. The
// apiKey is required; an optional client overrides http.DefaultClient.
func NewWebSearchTool(apiKey string, client *http.Client) *FunctionTool {
	if client == nil {
		client = http.DefaultClient
	}
	return NewFunctionTool(
		"web_search",
		"Search the web and return titles, snippets and URLs for the top results",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":       map[string]any{"type": "string"},
				"max_results": map[string]any{"type": "integer"},
			},
			"required": []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			if apiKey == "" {
				return "", NewToolError("web_search", "search API key not configured", "EXECUTION_ERROR")
			}
			query, _ := args["query"].(string)
			maxResults := 5
			if n, ok := args["max_results"].(float64); ok && n > 0 {
				maxResults = int(n)
			}

			body, err := json.Marshal(map[string]any{
				"api_key":     apiKey,
				"query":       query,
				"max_results": maxResults,
			})
			if err != nil {
				return "", NewToolError("web_search", err.Error(), "EXECUTION_ERROR")
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
			if err != nil {
				return "", NewToolError("web_search", err.Error(), "EXECUTION_ERROR")
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := client.Do(req)
			if err != nil {
				return "", NewToolError("web_search", err.Error(), "EXECUTION_ERROR")
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", NewToolError("web_search", fmt.Sprintf("search API returned status %d", resp.StatusCode), "EXECUTION_ERROR")
			}

			var payload struct {
				Results []struct {
					Title   string `json:"title"`
					Content string `json:"content"`
					URL     string `json:"url"`
				} `json:"results"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
				return "", NewToolError("web_search", err.Error(), "EXECUTION_ERROR")
			}
			if len(payload.Results) == 0 {
				return "No results found.", nil
			}
			lines := make([]string, 0, len(payload.Results))
			for _, r := range payload.Results {
				lines = append(lines, fmt.Sprintf("- %s: %s\n  URL: %s", r.Title, r.Content, r.URL))
			}
			return strings.Join(lines, "\n"), nil
		},
	)
}

// codeExecutionTimeout bounds each code_execution invocation.
const codeExecutionTimeout = 10 * time.Second

// NewCodeExecutionTool returns a tool that runs short scripts through a
// local interpreter with a hard 10 second limit. Supported languages are
// "python" and "bash". Callers are responsible for sandboxing the host.
func NewCodeExecutionTool() *FunctionTool {
	return NewFunctionTool(
		"code_execution",
		"Execute a short python or bash snippet and return its output",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":     map[string]any{"type": "string"},
				"language": map[string]any{"type": "string", "enum": []any{"python", "bash"}},
			},
			"required": []string{"code"},
		},
		func(ctx context.Context, args map[string]any) (string, error) {
			code, _ := args["code"].(string)
			language, _ := args["language"].(string)
			if language == "" {
				language = "python"
			}

			runCtx, cancel := context.WithTimeout(ctx, codeExecutionTimeout)
			defer cancel()

			var cmd *exec.Cmd
			switch strings.ToLower(language) {
			case "python":
				cmd = exec.CommandContext(runCtx, "python", "-c", code)
			case "bash":
				cmd = exec.CommandContext(runCtx, "bash", "-c", code)
			default:
				return "", NewToolError("code_execution", fmt.Sprintf("unsupported language: %s", language), "EXECUTION_ERROR")
			}

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
			err := cmd.Run()
			if runCtx.Err() == context.DeadlineExceeded {
				return "", NewToolError("code_execution", "code execution timed out (10s limit)", "EXECUTION_ERROR")
			}
			if err != nil && stderr.Len() == 0 {
				return "", NewToolError("code_execution", err.Error(), "EXECUTION_ERROR")
			}
			output := stdout.String()
			if output == "" {
				output = stderr.String()
			}
			if output == "" {
				output = "Execution completed with no output."
			}
			return output, nil
		},
	)
}

// NewDataAnalysisTool returns a tool that performs lightweight analysis of a
// data payload: JSON structure validation or basic numeric statistics.
func NewDataAnalysisTool() *FunctionTool {
	return NewFunctionTool(
		"data_analysis",
		"Analyze data: validate JSON structure or compute basic statistics over whitespace-separated numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"data":          map[string]any{"type": "string"},
				"analysis_type": map[string]any{"type": "string", "enum": []any{"json", "stats"}},
			},
			"required": []string{"data", "analysis_type"},
		},
		func(_ context.Context, args map[string]any) (string, error) {
			data, _ := args["data"].(string)
			switch args["analysis_type"] {
			case "json":
				var parsed map[string]any
				if err := json.Unmarshal([]byte(data), &parsed); err != nil {
					return "", NewToolError("data_analysis", fmt.Sprintf("invalid JSON: %v", err), "EXECUTION_ERROR")
				}
				return fmt.Sprintf("valid JSON with %d top-level keys", len(parsed)), nil
			case "stats":
				var numbers []float64
				for _, field := range strings.Fields(data) {
					if n, err := strconv.ParseFloat(field, 64); err == nil {
						numbers = append(numbers, n)
					}
				}
				if len(numbers) == 0 {
					return "no numeric data found", nil
				}
				sum, minV, maxV := 0.0, numbers[0], numbers[0]
				for _, n := range numbers {
					sum += n
					if n < minV {
						minV = n
					}
					if n > maxV {
						maxV = n
					}
				}
				return fmt.Sprintf("count: %d, mean: %.2f, min: %g, max: %g", len(numbers), sum/float64(len(numbers)), minV, maxV), nil
			default:
				return "", NewToolError("data_analysis", fmt.Sprintf("analysis type %q not implemented", args["analysis_type"]), "EXECUTION_ERROR")
			}
		},
	)
}

// NewMemoryStoreTool returns a key-value tool backed by the shared memory
// manager's long-term tier under the "scratch" category.
func NewMemoryStoreTool(m *memory.Manager) *FunctionTool {
	const category = "scratch"
	return NewFunctionTool(
		"memory_store",
		"Store and retrieve key-value data in shared memory",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{"type": "string", "enum": []any{"set", "get"}},
				"key":       map[string]any{"type": "string"},
				"value":     map[string]any{"type": "string"},
			},
			"required": []string{"operation", "key"},
		},
		func(_ context.Context, args map[string]any) (string, error) {
			key, _ := args["key"].(string)
			switch args["operation"] {
			case "set":
				value, _ := args["value"].(string)
				if err := m.StoreLongTerm(key, value, category); err != nil {
					return "", err
				}
				return fmt.Sprintf("stored %q", key), nil
			case "get":
				value, ok := m.RetrieveLongTerm(key, category)
				if !ok {
					return fmt.Sprintf("no value stored under %q", key), nil
				}
				return value, nil
			default:
				return "", NewToolError("memory_store", fmt.Sprintf("unknown operation %q", args["operation"]), "EXECUTION_ERROR")
			}
		},
	)
}

// NewFileOperationsTool returns a tool that reads, writes and lists files
// rooted under dir. Paths escaping the root are rejected.
func NewFileOperationsTool(dir string) *FunctionTool {
	return NewFunctionTool(
		"file_operations",
		"Perform file operations (read, write, list) under the workspace directory",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{"type": "string", "enum": []any{"read", "write", "list"}},
				"path":      map[string]any{"type": "string"},
				"content":   map[string]any{"type": "string"},
			},
			"required": []string{"operation", "path"},
		},
		func(_ context.Context, args map[string]any) (string, error) {
			rel, _ := args["path"].(string)
			path := filepath.Join(dir, filepath.Clean("/"+rel))
			switch args["operation"] {
			case "read":
				b, err := os.ReadFile(path)
				if err != nil {
					return "", NewToolError("file_operations", err.Error(), "EXECUTION_ERROR")
				}
				return string(b), nil
			case "write":
				content, _ := args["content"].(string)
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return "", NewToolError("file_operations", err.Error(), "EXECUTION_ERROR")
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return "", NewToolError("file_operations", err.Error(), "EXECUTION_ERROR")
				}
				return fmt.Sprintf("file written: %s", rel), nil
			case "list":
				entries, err := os.ReadDir(path)
				if err != nil {
					return "", NewToolError("file_operations", err.Error(), "EXECUTION_ERROR")
				}
				names := make([]string, 0, len(entries))
				for _, e := range entries {
					names = append(names, e.Name())
				}
				return strings.Join(names, "\n"), nil
			default:
				return "", NewToolError("file_operations", fmt.Sprintf("unknown operation %q", args["operation"]), "EXECUTION_ERROR")
			}
		},
	)
}

// NewClockTool returns a trivial tool reporting the current time; handy for
// demos and for exercising the tool loop without external dependencies.
func NewClockTool() *FunctionTool {
	return NewFunctionTool(
		"clock",
		"Report the current time in RFC 3339 format",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(_ context.Context, _ map[string]any) (string, error) {
			return time.Now().Format(time.RFC3339), nil
		},
	)
}
