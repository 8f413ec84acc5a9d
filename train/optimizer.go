package train

import (
	"math"

	"github.com/manningwu07/seqtune/params"
	"gonum.org/v1/gonum/floats"
)

// AdamConfig carries the optimizer hyperparameters shared by every
// parameter group.
type AdamConfig struct {
	Beta1       float64
	Beta2       float64
	Eps         float64
	WeightDecay float64
}

// NewAdamConfig derives the optimizer settings from the run config,
// with the usual beta defaults.
func NewAdamConfig(cfg params.Config) AdamConfig {
	return AdamConfig{
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         cfg.AdamEpsilon,
		WeightDecay: cfg.WeightDecay,
	}
}

// AdamState is the per-parameter-group moment storage. Zero value is
// ready to use after Init.
type AdamState struct {
	M []float64
	V []float64
	T int
}

// Init sizes the moment buffers for n parameters.
func (s *AdamState) Init(n int) {
	s.M = make([]float64, n)
	s.V = make([]float64, n)
	s.T = 0
}

// AdamUpdate applies one bias-corrected AdamW step in place:
// p -= lr * (mhat/(sqrt(vhat)+eps) + wd*p). Backends call this per
// parameter group after gradients are ready.
func AdamUpdate(p, g []float64, s *AdamState, cfg AdamConfig, lr float64) {
	if len(p) != len(g) || len(p) != len(s.M) || len(p) != len(s.V) {
		panic("train: AdamUpdate length mismatch")
	}
	s.T++
	c1 := 1.0 / (1.0 - math.Pow(cfg.Beta1, float64(s.T)))
	c2 := 1.0 / (1.0 - math.Pow(cfg.Beta2, float64(s.T)))
	for i := range p {
		gi := g[i]
		mi := cfg.Beta1*s.M[i] + (1.0-cfg.Beta1)*gi
		vi := cfg.Beta2*s.V[i] + (1.0-cfg.Beta2)*gi*gi
		mhat := mi * c1
		vhat := vi * c2
		update := mhat/(math.Sqrt(vhat)+cfg.Eps) + cfg.WeightDecay*p[i]
		s.M[i] = mi
		s.V[i] = vi
		p[i] -= lr * update
	}
}

// GradNorm is the global L2 norm across all gradient slices.
func GradNorm(grads ...[]float64) float64 {
	var sum float64
	for _, g := range grads {
		sum += floats.Dot(g, g)
	}
	return math.Sqrt(sum)
}

// ClipGrads rescales every gradient slice in place so the global norm
// does not exceed maxNorm, and returns the pre-clip norm.
func ClipGrads(maxNorm float64, grads ...[]float64) float64 {
	norm := GradNorm(grads...)
	if maxNorm <= 0 || norm <= maxNorm {
		return norm
	}
	scale := maxNorm / norm
	for _, g := range grads {
		floats.Scale(scale, g)
	}
	return norm
}
