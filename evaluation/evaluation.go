// Package evaluation scores completed outputs against named criteria,
// producing structured reports. The scoring mechanism is a pluggable Scorer:
// the default is a deterministic rubric, with an LLM-as-judge implementation
// available behind the same interface.
package evaluation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/swarmforge/swarmforge/logging"
)

// Criteria maps a criterion name to a natural-language description of what
// "good" means for that criterion.
type Criteria map[string]string

// DefaultCriteria is the baseline rubric applied when a caller supplies none.
var DefaultCriteria = Criteria{
	"relevance":    "Is the output relevant to the task?",
	"completeness": "Does the output address all aspects of the task?",
}

// CriterionScore is one scored dimension of a report.
type CriterionScore struct {
	Score     float64 `json:"score"` // in [0,1]
	Rationale string  `json:"rationale"`
}

// Report is the structured outcome of evaluating one output. Overall is the
// arithmetic mean of the per-criterion scores.
type Report struct {
	TaskID    string                    `json:"task_id"`
	Output    string                    `json:"output"`
	Scores    map[string]CriterionScore `json:"criteria_scores"`
	Overall   float64                   `json:"overall_score"`
	CreatedAt time.Time                 `json:"created_at"`
}

// Options configures an Engine instance.
type Options struct {
	// Scorer derives a numeric score per criterion. Defaults to RubricScorer.
	Scorer Scorer

	// Logger receives evaluation records. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Engine scores outputs and keeps a history of every report it produced.
// It is safe for concurrent use.
type Engine struct {
	scorer Scorer
	logger logging.Logger

	mu      sync.Mutex
	history []*Report
}

// NewEngine creates an evaluation engine.
func NewEngine(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Scorer: RubricScorer{},
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{scorer: opts.Scorer, logger: opts.Logger}
}

// EvaluateOutput scores output against every criterion and returns the
// report, keyed to the task it evaluated. A criterion whose judging step
// fails is recorded with score 0 and rationale "evaluation failed"; a
// failure never aborts the overall report. Criteria are scored in sorted
// name order so reports are deterministic.
func (e *Engine) EvaluateOutput(ctx context.Context, taskID, output string, criteria Criteria) *Report {
	if len(criteria) == 0 {
		criteria = DefaultCriteria
	}

	report := &Report{
		TaskID:    taskID,
		Output:    truncate(output, 100),
		Scores:    make(map[string]CriterionScore, len(criteria)),
		CreatedAt: time.Now(),
	}

	names := make([]string, 0, len(criteria))
	for name := range criteria {
		names = append(names, name)
	}
	sort.Strings(names)

	total := 0.0
	for _, name := range names {
		score, rationale, err := e.scorer.Score(ctx, output, name, criteria[name])
		if err != nil {
			e.logger.Warn("evaluation.criterion_failed", "task_id", taskID, "criterion", name, "error", err)
			report.Scores[name] = CriterionScore{Score: 0, Rationale: "evaluation failed"}
			continue
		}
		score = clamp(score)
		report.Scores[name] = CriterionScore{Score: score, Rationale: rationale}
		total += score
	}
	report.Overall = total / float64(len(criteria))

	e.mu.Lock()
	e.history = append(e.history, report)
	e.mu.Unlock()

	e.logger.Info("evaluation.completed", "task_id", taskID, "criteria", len(criteria), "overall_score", report.Overall)
	return report
}

// BatchEvaluate scores multiple outputs against the same criteria, returning
// the individual reports and their average overall score.
func (e *Engine) BatchEvaluate(ctx context.Context, taskID string, outputs []string, criteria Criteria) ([]*Report, float64) {
	reports := make([]*Report, 0, len(outputs))
	total := 0.0
	for _, output := range outputs {
		r := e.EvaluateOutput(ctx, taskID, output, criteria)
		reports = append(reports, r)
		total += r.Overall
	}
	if len(reports) == 0 {
		return reports, 0
	}
	return reports, total / float64(len(reports))
}

// History returns a copy of every report produced so far, oldest first.
func (e *Engine) History() []*Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Report, len(e.history))
	copy(out, e.history)
	return out
}

// ReportFor returns the most recent report for a task, if any.
func (e *Engine) ReportFor(taskID string) (*Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].TaskID == taskID {
			return e.history[i], true
		}
	}
	return nil, false
}

// Summary returns a one-line textual digest of the evaluation history.
func (e *Engine) Summary() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history) == 0 {
		return "No evaluations performed yet."
	}
	total := 0.0
	for _, r := range e.history {
		total += r.Overall
	}
	return fmt.Sprintf("Evaluations: %d, Average Score: %.2f", len(e.history), total/float64(len(e.history)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
