package layer

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/param"
)

// Dropout implements inverted dropout regularization. During training,
// inputs are zeroed with probability p and survivors are scaled by
// 1/(1-p); in evaluation mode inputs pass through unchanged.
type Dropout struct {
	p   float64
	rng *rand.Rand

	maskBuf   []float64
	outputBuf []float64
	gradInBuf []float64
}

// NewDropout creates a dropout layer that drops inputs with probability p.
func NewDropout(p float64) *Dropout {
	return &Dropout{
		p:   p,
		rng: rand.New(rand.NewSource(42)),
	}
}

// Forward applies the dropout mask in training mode and passes input
// through unchanged in evaluation mode.
func (d *Dropout) Forward(x []float64, training bool) []float64 {
	n := len(x)
	if len(d.outputBuf) < n {
		d.outputBuf = make([]float64, n)
		d.maskBuf = make([]float64, n)
		d.gradInBuf = make([]float64, n)
	}
	out := d.outputBuf[:n]

	if !training {
		copy(out, x)
		return out
	}

	scale := 1 / (1 - d.p)
	mask := d.maskBuf[:n]
	for i := 0; i < n; i++ {
		if d.rng.Float64() < d.p {
			mask[i] = 0
			out[i] = 0
		} else {
			mask[i] = 1
			out[i] = x[i] * scale
		}
	}
	return out
}

// Backward propagates the gradient through the last training-mode mask.
func (d *Dropout) Backward(grad []float64) []float64 {
	n := len(grad)
	scale := 1 / (1 - d.p)
	in := d.gradInBuf[:n]
	for i := 0; i < n; i++ {
		in[i] = grad[i] * d.maskBuf[i] * scale
	}
	return in
}

// Roles returns nil: dropout has no learnable parameters.
func (d *Dropout) Roles() []param.Role {
	return nil
}

// Param returns nil for every role.
func (d *Dropout) Param(r param.Role) *mat.Dense {
	return nil
}

// Grad returns nil for every role.
func (d *Dropout) Grad(r param.Role) *mat.Dense {
	return nil
}

// Deterministic reports false: the training-mode forward pass draws a
// random mask.
func (d *Dropout) Deterministic() bool {
	return false
}
