package rouge

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// bootstrap parameters matching the reference aggregator.
const (
	numSamples = 1000
	confidence = 0.95
)

// AggregateScore is the bootstrap estimate for one metric: the
// percentile interval plus its midpoint.
type AggregateScore struct {
	Low  Score
	Mid  Score
	High Score
}

// BootstrapAggregator collects per-pair score maps and produces a
// robust interval estimate per metric. Scores must be added in pairs
// aligned with the outputs/references passed to the Scorer; the
// aggregate itself does not depend on insertion order.
type BootstrapAggregator struct {
	scores []map[string]Score
	rng    *rand.Rand
}

// NewBootstrapAggregator returns an empty aggregator. The resampling
// source is fixed so repeated evaluation passes over the same pairs
// report the same aggregate.
func NewBootstrapAggregator() *BootstrapAggregator {
	return &BootstrapAggregator{rng: rand.New(rand.NewSource(2020))}
}

// AddScores records the metric map for one pair.
func (a *BootstrapAggregator) AddScores(scores map[string]Score) {
	a.scores = append(a.scores, scores)
}

// Len reports the number of pairs added so far.
func (a *BootstrapAggregator) Len() int { return len(a.scores) }

// Aggregate bootstrap-resamples the collected pairs and returns the
// percentile interval per metric. The aggregate of zero pairs is
// undefined; callers guard with Len.
func (a *BootstrapAggregator) Aggregate() map[string]AggregateScore {
	lo := (1 - confidence) / 2
	hi := 1 - lo

	result := make(map[string]AggregateScore, len(Names))
	for _, name := range Names {
		precs := make([]float64, 0, numSamples)
		recs := make([]float64, 0, numSamples)
		fs := make([]float64, 0, numSamples)
		for i := 0; i < numSamples; i++ {
			p, r, f := a.sampleMean(name)
			precs = append(precs, p)
			recs = append(recs, r)
			fs = append(fs, f)
		}
		result[name] = AggregateScore{
			Low:  Score{percentile(precs, lo), percentile(recs, lo), percentile(fs, lo)},
			Mid:  Score{percentile(precs, 0.5), percentile(recs, 0.5), percentile(fs, 0.5)},
			High: Score{percentile(precs, hi), percentile(recs, hi), percentile(fs, hi)},
		}
	}
	return result
}

// sampleMean draws len(scores) pairs with replacement and averages one
// metric over the draw.
func (a *BootstrapAggregator) sampleMean(name string) (p, r, f float64) {
	n := len(a.scores)
	for i := 0; i < n; i++ {
		s := a.scores[a.rng.Intn(n)][name]
		p += s.Precision
		r += s.Recall
		f += s.F
	}
	return p / float64(n), r / float64(n), f / float64(n)
}

func percentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}
