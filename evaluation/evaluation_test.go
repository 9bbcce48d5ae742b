package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swarmforge/swarmforge/model"
)

// stubScorer returns fixed scores per criterion and fails on demand.
type stubScorer struct {
	scores map[string]float64
	fails  map[string]bool
}

func (s stubScorer) Score(_ context.Context, _, criterion, _ string) (float64, string, error) {
	if s.fails[criterion] {
		return 0, "", errors.New("judge unavailable")
	}
	return s.scores[criterion], "stubbed", nil
}

func TestEvaluateOutput_MeanOfCriteria(t *testing.T) {
	e := NewEngine(func(o *Options) {
		o.Scorer = stubScorer{scores: map[string]float64{"a": 0.9, "b": 0.6, "c": 0.3}}
	})

	report := e.EvaluateOutput(context.Background(), "t1", "some output", Criteria{
		"a": "first", "b": "second", "c": "third",
	})

	require.Len(t, report.Scores, 3)
	assert.InDelta(t, 0.6, report.Overall, 1e-9)
	assert.Equal(t, "t1", report.TaskID)
	assert.Equal(t, 0.9, report.Scores["a"].Score)
}

func TestEvaluateOutput_FailedCriterionScoresZero(t *testing.T) {
	e := NewEngine(func(o *Options) {
		o.Scorer = stubScorer{
			scores: map[string]float64{"good": 0.8},
			fails:  map[string]bool{"broken": true},
		}
	})

	report := e.EvaluateOutput(context.Background(), "t1", "output", Criteria{
		"good": "works", "broken": "fails",
	})

	require.Len(t, report.Scores, 2)
	assert.Equal(t, 0.0, report.Scores["broken"].Score)
	assert.Equal(t, "evaluation failed", report.Scores["broken"].Rationale)
	// the failed criterion still counts in the denominator
	assert.InDelta(t, 0.4, report.Overall, 1e-9)
}

func TestEvaluateOutput_ClampsScores(t *testing.T) {
	e := NewEngine(func(o *Options) {
		o.Scorer = stubScorer{scores: map[string]float64{"hot": 1.7, "cold": -0.4}}
	})

	report := e.EvaluateOutput(context.Background(), "t1", "output", Criteria{
		"hot": "", "cold": "",
	})

	assert.Equal(t, 1.0, report.Scores["hot"].Score)
	assert.Equal(t, 0.0, report.Scores["cold"].Score)
}

func TestEvaluateOutput_DefaultCriteria(t *testing.T) {
	e := NewEngine()

	report := e.EvaluateOutput(context.Background(), "t1", strings.Repeat("x", 500), nil)

	assert.Len(t, report.Scores, len(DefaultCriteria))
	assert.Contains(t, report.Scores, "relevance")
	assert.Contains(t, report.Scores, "completeness")
}

func TestEvaluateOutput_TruncatesStoredOutput(t *testing.T) {
	e := NewEngine()

	long := strings.Repeat("a", 150)
	report := e.EvaluateOutput(context.Background(), "t1", long, DefaultCriteria)

	assert.Len(t, report.Output, 103) // 100 chars plus ellipsis
	assert.True(t, strings.HasSuffix(report.Output, "..."))
}

func TestBatchEvaluate(t *testing.T) {
	e := NewEngine(func(o *Options) {
		o.Scorer = stubScorer{scores: map[string]float64{"only": 0.5}}
	})

	reports, avg := e.BatchEvaluate(context.Background(), "t1",
		[]string{"one", "two", "three"}, Criteria{"only": ""})

	require.Len(t, reports, 3)
	assert.InDelta(t, 0.5, avg, 1e-9)

	reports, avg = e.BatchEvaluate(context.Background(), "t1", nil, Criteria{"only": ""})
	assert.Empty(t, reports)
	assert.Equal(t, 0.0, avg)
}

func TestHistoryAndReportFor(t *testing.T) {
	e := NewEngine()

	assert.Equal(t, "No evaluations performed yet.", e.Summary())

	e.EvaluateOutput(context.Background(), "t1", "first", DefaultCriteria)
	e.EvaluateOutput(context.Background(), "t2", "second", DefaultCriteria)
	e.EvaluateOutput(context.Background(), "t1", "first again", DefaultCriteria)

	assert.Len(t, e.History(), 3)

	r, ok := e.ReportFor("t1")
	require.True(t, ok)
	assert.Equal(t, "first again", r.Output)

	_, ok = e.ReportFor("missing")
	assert.False(t, ok)

	assert.True(t, strings.HasPrefix(e.Summary(), "Evaluations: 3, Average Score: "))
}

func TestRubricScorer(t *testing.T) {
	s := RubricScorer{}

	score, _, err := s.Score(context.Background(), "", "relevance", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, _, err = s.Score(context.Background(), strings.Repeat("x", 2000), "relevance", "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	// 500 chars scores 0.5; overlap with the description adds the bonus
	base, _, err := s.Score(context.Background(), strings.Repeat("x", 500), "relevance", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, base, 1e-9)

	boosted, _, err := s.Score(context.Background(),
		strings.Repeat("x", 480)+" output is relevant", "relevance", "Is the output relevant to the task?")
	require.NoError(t, err)
	assert.Greater(t, boosted, base)
}

func TestModelScorer(t *testing.T) {
	m := model.NewMockModel("judge")
	m.AddResponse("Criterion \"clarity\"", "0.8 concise and well structured")

	s := NewModelScorer(m)
	score, rationale, err := s.Score(context.Background(), "output", "clarity", "Is it clear?")
	require.NoError(t, err)
	assert.Equal(t, 0.8, score)
	assert.Equal(t, "concise and well structured", rationale)
}

func TestModelScorer_UnparseableReply(t *testing.T) {
	m := model.NewMockModel("judge")
	m.AddResponse("Criterion", "no number here at all")

	s := NewModelScorer(m)
	_, _, err := s.Score(context.Background(), "output", "clarity", "Is it clear?")
	assert.Error(t, err)
}
