package evaluation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/swarmforge/swarmforge/model"
)

// Scorer derives a score in [0,1] plus a short rationale for one criterion.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, output, criterion, description string) (float64, string, error)
}

// RubricScorer is the deterministic default scorer. It scores by substance
// (length-based coverage, capped at 1) plus a bonus for lexical overlap with
// the criterion description. It needs no model access, so evaluation works
// in tests and offline runs.
type RubricScorer struct{}

// Score implements Scorer.
func (RubricScorer) Score(_ context.Context, output, criterion, description string) (float64, string, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return 0, fmt.Sprintf("no output to assess for %s", criterion), nil
	}

	score := float64(len(trimmed)) / 1000.0
	if score > 1 {
		score = 1
	}

	// Reward outputs that touch the vocabulary of the criterion description.
	overlap := 0
	words := strings.Fields(strings.ToLower(description))
	lower := strings.ToLower(trimmed)
	for _, w := range words {
		w = strings.Trim(w, "?.,!")
		if len(w) > 3 && strings.Contains(lower, w) {
			overlap++
		}
	}
	if overlap > 0 && score < 1 {
		score += 0.1
		if score > 1 {
			score = 1
		}
	}

	return score, fmt.Sprintf("rubric score for %s based on output substance", criterion), nil
}

// ModelScorer judges each criterion with the completion capability. The
// model is asked for a bare number; the first parseable float in the reply
// is used and clamped to [0,1].
type ModelScorer struct {
	model model.Model
}

// NewModelScorer creates an LLM-as-judge scorer.
func NewModelScorer(m model.Model) *ModelScorer {
	return &ModelScorer{model: m}
}

// Score implements Scorer.
func (s *ModelScorer) Score(ctx context.Context, output, criterion, description string) (float64, string, error) {
	resp, err := s.model.Complete(ctx, model.Request{
		Instructions: "You are a strict evaluator. Reply with a single number between 0 and 1, optionally followed by a one-sentence rationale.",
		Prompt:       fmt.Sprintf("Criterion %q: %s\n\nOutput to evaluate:\n%s\n\nScore:", criterion, description, output),
	})
	if err != nil {
		return 0, "", err
	}

	score, rest, err := parseLeadingFloat(resp.Text)
	if err != nil {
		return 0, "", fmt.Errorf("unparseable judge reply %q: %w", resp.Text, err)
	}
	rationale := strings.TrimSpace(rest)
	if rationale == "" {
		rationale = fmt.Sprintf("judged against criterion %s", criterion)
	}
	return score, rationale, nil
}

// parseLeadingFloat extracts the first float in s, returning the remainder.
func parseLeadingFloat(s string) (float64, string, error) {
	fields := strings.Fields(s)
	for i, f := range fields {
		f = strings.Trim(f, ":,;")
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			return v, strings.Join(fields[i+1:], " "), nil
		}
	}
	return 0, "", fmt.Errorf("no numeric score found")
}
