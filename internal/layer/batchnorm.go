package layer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/param"
)

// BatchNorm normalizes each feature using batch statistics during
// training and running averages during evaluation, with learnable
// per-feature scale (gamma) and shift (beta) stored as (n, 1) columns.
//
// The cost of a single parameter under batch normalization depends on
// the statistics of the whole batch, so the layer reports itself as
// non-deterministic for gradient-checking purposes.
type BatchNorm struct {
	features int
	eps      float64
	momentum float64

	gamma     *mat.Dense // (features, 1)
	beta      *mat.Dense // (features, 1)
	gradGamma *mat.Dense
	gradBeta  *mat.Dense

	runningMean []float64
	runningVar  []float64

	// Saved training-pass state for the backward pass.
	xhatBuf   []float64
	outputBuf []float64
	gradInBuf []float64
}

// NewBatchNorm creates a batch normalization layer for the given number
// of features, with gamma initialized to ones and beta to zeros.
func NewBatchNorm(features int) *BatchNorm {
	gamma := mat.NewDense(features, 1, nil)
	runningVar := make([]float64, features)
	for i := 0; i < features; i++ {
		gamma.Set(i, 0, 1)
		runningVar[i] = 1
	}

	return &BatchNorm{
		features:    features,
		eps:         1e-5,
		momentum:    0.1,
		gamma:       gamma,
		beta:        mat.NewDense(features, 1, nil),
		gradGamma:   mat.NewDense(features, 1, nil),
		gradBeta:    mat.NewDense(features, 1, nil),
		runningMean: make([]float64, features),
		runningVar:  runningVar,
		xhatBuf:     make([]float64, features),
		outputBuf:   make([]float64, features),
		gradInBuf:   make([]float64, features),
	}
}

// Forward normalizes the input. Training mode uses the statistics of the
// current batch (here a batch of one) and updates the running averages;
// evaluation mode uses the running averages only and leaves all stored
// state untouched.
func (b *BatchNorm) Forward(x []float64, training bool) []float64 {
	if len(x) != b.features {
		panic(fmt.Sprintf("layer: BatchNorm expects input of size %d, got %d", b.features, len(x)))
	}

	if !training {
		for i := 0; i < b.features; i++ {
			xhat := (x[i] - b.runningMean[i]) / math.Sqrt(b.runningVar[i]+b.eps)
			b.outputBuf[i] = b.gamma.At(i, 0)*xhat + b.beta.At(i, 0)
		}
		return b.outputBuf
	}

	// Batch of one: the batch mean is the sample itself and the batch
	// variance is zero, so the normalized value collapses to zero.
	for i := 0; i < b.features; i++ {
		b.runningMean[i] = (1-b.momentum)*b.runningMean[i] + b.momentum*x[i]
		b.runningVar[i] = (1 - b.momentum) * b.runningVar[i]
		b.xhatBuf[i] = 0
		b.outputBuf[i] = b.beta.At(i, 0)
	}
	return b.outputBuf
}

// Backward stores the gamma and beta gradients from the last training
// pass and returns the gradient w.r.t. the input. With a batch of one
// the normalized input is identically zero, so the input gradient
// vanishes after centering.
func (b *BatchNorm) Backward(grad []float64) []float64 {
	if len(grad) != b.features {
		panic(fmt.Sprintf("layer: BatchNorm expects gradient of size %d, got %d", b.features, len(grad)))
	}
	for i := 0; i < b.features; i++ {
		b.gradGamma.Set(i, 0, grad[i]*b.xhatBuf[i])
		b.gradBeta.Set(i, 0, grad[i])
		// d(xhat)/dx cancels against the mean term for a single sample.
		b.gradInBuf[i] = 0
	}
	return b.gradInBuf
}

// Roles returns the weight role (gamma) followed by the bias role (beta).
func (b *BatchNorm) Roles() []param.Role {
	return []param.Role{param.RoleWeight, param.RoleBias}
}

// Param returns the live parameter matrix for the role.
func (b *BatchNorm) Param(r param.Role) *mat.Dense {
	switch r {
	case param.RoleWeight:
		return b.gamma
	case param.RoleBias:
		return b.beta
	}
	return nil
}

// Grad returns the live gradient matrix for the role.
func (b *BatchNorm) Grad(r param.Role) *mat.Dense {
	switch r {
	case param.RoleWeight:
		return b.gradGamma
	case param.RoleBias:
		return b.gradBeta
	}
	return nil
}

// Deterministic reports false: the training-mode forward pass depends on
// batch statistics.
func (b *BatchNorm) Deterministic() bool {
	return false
}
