package rouge

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when outputs and references are not
	// aligned pair-for-pair.
	ErrLengthMismatch = errors.New("rouge: outputs and references differ in length")

	// ErrNoPairs is returned for empty input; the bootstrap aggregate of
	// nothing is undefined, not zero.
	ErrNoPairs = errors.New("rouge: no pairs to score")
)

// Calculate scores every aligned (output, reference) pair and returns
// the bootstrap midpoint F-measure per metric name. Pairs are aligned
// by index.
func Calculate(outputs, references []string) (map[string]float64, error) {
	if len(outputs) != len(references) {
		return nil, fmt.Errorf("%w: %d outputs, %d references", ErrLengthMismatch, len(outputs), len(references))
	}
	if len(outputs) == 0 {
		return nil, ErrNoPairs
	}

	scorer := NewScorer()
	agg := NewBootstrapAggregator()
	for i, ref := range references {
		agg.AddScores(scorer.Score(ref, outputs[i]))
	}

	result := make(map[string]float64, len(Names))
	for name, score := range agg.Aggregate() {
		result[name] = score.Mid.F
	}
	return result, nil
}
