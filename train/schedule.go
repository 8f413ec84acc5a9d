package train

import "math"

// CosineAnnealing decays the learning rate from Base to Min over TMax
// epochs along half a cosine period, then holds Min.
type CosineAnnealing struct {
	Base float64
	Min  float64
	TMax int
}

// NewCosineAnnealing builds the stock schedule: ten-epoch horizon,
// annealing to zero.
func NewCosineAnnealing(base float64) *CosineAnnealing {
	return &CosineAnnealing{Base: base, TMax: 10}
}

// LR returns the learning rate for the given epoch. Epoch 0 yields
// Base; epoch TMax and beyond yield Min.
func (s *CosineAnnealing) LR(epoch int) float64 {
	if s.TMax <= 0 || epoch <= 0 {
		return s.Base
	}
	if epoch >= s.TMax {
		return s.Min
	}
	x := float64(epoch) / float64(s.TMax)
	return s.Min + 0.5*(s.Base-s.Min)*(1+math.Cos(math.Pi*x))
}
