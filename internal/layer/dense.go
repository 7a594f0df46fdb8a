package layer

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/activations"
	"github.com/gradkit/gradkit/internal/param"
)

// Dense is a fully connected layer. Weights have shape (out, in) and the
// bias is an (out, 1) column, both stored as live matrices that the
// gradient checker may mutate in place.
type Dense struct {
	weights *mat.Dense // (out, in)
	bias    *mat.Dense // (out, 1)
	gradW   *mat.Dense
	gradB   *mat.Dense

	act     activations.Activation
	inSize  int
	outSize int

	// Reusable buffers; the forward pass caches input and pre-activation
	// for the backward pass.
	inputBuf  []float64
	preActBuf []float64
	outputBuf []float64
	dzBuf     []float64
	gradInBuf []float64
}

// NewDense creates a dense layer with Xavier-initialized weights and
// small random biases.
func NewDense(in, out int, act activations.Activation) *Dense {
	weights := mat.NewDense(out, in, nil)
	scale := math.Sqrt(2.0 / float64(in+out))
	for i := 0; i < out; i++ {
		for j := 0; j < in; j++ {
			weights.Set(i, j, rand.Float64()*2*scale-scale)
		}
	}
	bias := mat.NewDense(out, 1, nil)
	for i := 0; i < out; i++ {
		bias.Set(i, 0, rand.Float64()*0.2-0.1)
	}

	return &Dense{
		weights:   weights,
		bias:      bias,
		gradW:     mat.NewDense(out, in, nil),
		gradB:     mat.NewDense(out, 1, nil),
		act:       act,
		inSize:    in,
		outSize:   out,
		inputBuf:  make([]float64, in),
		preActBuf: make([]float64, out),
		outputBuf: make([]float64, out),
		dzBuf:     make([]float64, out),
		gradInBuf: make([]float64, in),
	}
}

// Forward computes act(W*x + b). The training flag is accepted for the
// Layer contract; a dense layer behaves identically in both modes.
func (d *Dense) Forward(x []float64, training bool) []float64 {
	if len(x) != d.inSize {
		panic(fmt.Sprintf("layer: Dense expects input of size %d, got %d", d.inSize, len(x)))
	}
	copy(d.inputBuf, x)
	for i := 0; i < d.outSize; i++ {
		sum := d.bias.At(i, 0)
		for j := 0; j < d.inSize; j++ {
			sum += d.weights.At(i, j) * x[j]
		}
		d.preActBuf[i] = sum
		d.outputBuf[i] = d.act.Activate(sum)
	}
	return d.outputBuf
}

// Backward stores dW = dz*x^T and db = dz, where dz applies the
// activation derivative at the cached pre-activation, and returns
// W^T * dz, the gradient w.r.t. the layer's input.
func (d *Dense) Backward(grad []float64) []float64 {
	if len(grad) != d.outSize {
		panic(fmt.Sprintf("layer: Dense expects gradient of size %d, got %d", d.outSize, len(grad)))
	}
	for i := 0; i < d.outSize; i++ {
		d.dzBuf[i] = grad[i] * d.act.Derivative(d.preActBuf[i])
	}
	for i := 0; i < d.outSize; i++ {
		for j := 0; j < d.inSize; j++ {
			d.gradW.Set(i, j, d.dzBuf[i]*d.inputBuf[j])
		}
		d.gradB.Set(i, 0, d.dzBuf[i])
	}
	for j := 0; j < d.inSize; j++ {
		var sum float64
		for i := 0; i < d.outSize; i++ {
			sum += d.weights.At(i, j) * d.dzBuf[i]
		}
		d.gradInBuf[j] = sum
	}
	return d.gradInBuf
}

// Roles returns the weight role followed by the bias role.
func (d *Dense) Roles() []param.Role {
	return []param.Role{param.RoleWeight, param.RoleBias}
}

// Param returns the live parameter matrix for the role.
func (d *Dense) Param(r param.Role) *mat.Dense {
	switch r {
	case param.RoleWeight:
		return d.weights
	case param.RoleBias:
		return d.bias
	}
	return nil
}

// Grad returns the live gradient matrix for the role.
func (d *Dense) Grad(r param.Role) *mat.Dense {
	switch r {
	case param.RoleWeight:
		return d.gradW
	case param.RoleBias:
		return d.gradB
	}
	return nil
}

// Deterministic reports true: a dense forward pass has no stochastic or
// batch-dependent behavior.
func (d *Dense) Deterministic() bool {
	return true
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}
