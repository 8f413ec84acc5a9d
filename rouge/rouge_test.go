package rouge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateIdentical(t *testing.T) {
	preds := []string{"the cat sat"}
	refs := []string{"the cat sat"}

	result, err := Calculate(preds, refs)
	require.NoError(t, err)

	for _, name := range Names {
		assert.InDelta(t, 1.0, result[name], 1e-9, "%s should be exactly 1 for identical pairs", name)
	}
}

func TestCalculateDisjoint(t *testing.T) {
	preds := []string{"a b c"}
	refs := []string{"x y z"}

	result, err := Calculate(preds, refs)
	require.NoError(t, err)

	for _, name := range Names {
		assert.Zero(t, result[name], "%s should be 0 for disjoint vocabularies", name)
	}
}

func TestCalculateLengthMismatch(t *testing.T) {
	_, err := Calculate([]string{"one", "two"}, []string{"one"})
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCalculateEmpty(t *testing.T) {
	_, err := Calculate(nil, nil)
	require.ErrorIs(t, err, ErrNoPairs)
}

func TestScorerPartialOverlap(t *testing.T) {
	// "the" occurs once in the reference and four times in the output;
	// clipped matching counts it once.
	s := NewScorer()
	scores := s.Score("police killed the gunman at night", "the the the the")

	got := scores["rouge1"]
	assert.InDelta(t, 1.0/4.0, got.Precision, 1e-9)
	assert.InDelta(t, 1.0/6.0, got.Recall, 1e-9)
}

func TestScorerRouge2(t *testing.T) {
	s := NewScorer()
	scores := s.Score("the cat sat on the mat", "the cat sat on the mat")
	assert.InDelta(t, 1.0, scores["rouge2"].F, 1e-9)

	scores = s.Score("the cat sat", "sat cat the")
	// Reversed order keeps all unigrams but no bigrams.
	assert.InDelta(t, 1.0, scores["rouge1"].F, 1e-9)
	assert.Zero(t, scores["rouge2"].F)
}

func TestScorerRougeLSubsequence(t *testing.T) {
	s := NewScorer()
	// LCS("the cat sat down", "the dog sat") = "the sat", length 2.
	got := s.Score("the cat sat down", "the dog sat")["rougeL"]
	assert.InDelta(t, 2.0/3.0, got.Precision, 1e-9)
	assert.InDelta(t, 2.0/4.0, got.Recall, 1e-9)
}

func TestScorerStemming(t *testing.T) {
	s := NewScorer()
	// "running" stems to "run"; short tokens are left alone so the
	// remaining words still have to match literally.
	got := s.Score("he was running home", "he was runs home")["rouge1"]
	assert.InDelta(t, 1.0, got.F, 1e-9)
}

func TestScorerEmptyStrings(t *testing.T) {
	s := NewScorer()
	for name, score := range s.Score("", "anything at all") {
		assert.Zero(t, score.F, "empty reference should score 0 for %s", name)
	}
}

func TestAggregatorConstantScores(t *testing.T) {
	agg := NewBootstrapAggregator()
	for i := 0; i < 10; i++ {
		agg.AddScores(map[string]Score{
			"rouge1": {Precision: 0.5, Recall: 0.5, F: 0.5},
			"rouge2": {Precision: 0.25, Recall: 0.25, F: 0.25},
			"rougeL": {Precision: 1, Recall: 1, F: 1},
		})
	}

	result := agg.Aggregate()
	// Resampling constants yields the constant back, at every percentile.
	assert.InDelta(t, 0.5, result["rouge1"].Mid.F, 1e-9)
	assert.InDelta(t, 0.5, result["rouge1"].Low.F, 1e-9)
	assert.InDelta(t, 0.25, result["rouge2"].Mid.F, 1e-9)
	assert.InDelta(t, 1.0, result["rougeL"].High.F, 1e-9)
}

func TestAggregatorIntervalOrdering(t *testing.T) {
	agg := NewBootstrapAggregator()
	for i := 0; i < 20; i++ {
		f := float64(i) / 19.0
		agg.AddScores(map[string]Score{
			"rouge1": {Precision: f, Recall: f, F: f},
			"rouge2": {},
			"rougeL": {},
		})
	}

	got := agg.Aggregate()["rouge1"]
	assert.LessOrEqual(t, got.Low.F, got.Mid.F)
	assert.LessOrEqual(t, got.Mid.F, got.High.F)
	assert.False(t, math.IsNaN(got.Mid.F))
	// The mean of 0..1 is 0.5; the bootstrap midpoint should be close.
	assert.InDelta(t, 0.5, got.Mid.F, 0.1)
}

func TestLCSLen(t *testing.T) {
	tests := []struct {
		a, b []string
		want int
	}{
		{[]string{"a", "b", "c"}, []string{"a", "b", "c"}, 3},
		{[]string{"a", "b", "c"}, []string{"c", "b", "a"}, 1},
		{[]string{"a", "x", "b", "y"}, []string{"a", "b"}, 2},
		{[]string{"a"}, []string{"b"}, 0},
	}
	for _, tt := range tests {
		if got := lcsLen(tt.a, tt.b); got != tt.want {
			t.Errorf("lcsLen(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
