package gradkit

import (
	"github.com/gradkit/gradkit/internal/activations"
	"github.com/gradkit/gradkit/internal/check"
	"github.com/gradkit/gradkit/internal/layer"
	"github.com/gradkit/gradkit/internal/loss"
	"github.com/gradkit/gradkit/internal/net"
	"github.com/gradkit/gradkit/internal/opt"
)

// Re-export common types and functions for easier access
type (
	Network   = net.Network
	Layer     = layer.Layer
	Loss      = loss.Loss
	Optimizer = opt.Optimizer
	Checker   = check.Checker
	Result    = check.Result
	Model     = check.Model
)

// Checker construction and options
var (
	NewChecker = check.New
	Epsilon    = check.Epsilon
	Tolerance  = check.Tolerance
)

// ErrNonDeterministic is returned by NewChecker for models containing
// stochastic or batch-statistic-dependent layers.
var ErrNonDeterministic = check.ErrNonDeterministic

// Model creation
func NewNetwork(l Loss, optimizer Optimizer, layers ...Layer) *Network {
	return net.New(layers, l, optimizer)
}

// Activations
var (
	ReLU    = activations.ReLU{}
	Sigmoid = activations.Sigmoid{}
	Tanh    = activations.Tanh{}
	Linear  = activations.Linear{}
)

// Losses
var (
	MSE          = loss.MSE{}
	CrossEntropy = loss.CrossEntropy{}
)

// Layers
func Dense(in, out int, act activations.Activation) Layer {
	return layer.NewDense(in, out, act)
}

func Dropout(p float64) Layer {
	return layer.NewDropout(p)
}

func BatchNorm(features int) Layer {
	return layer.NewBatchNorm(features)
}

// Optimizers
func SGD(learningRate float64) Optimizer {
	return opt.SGD{LearningRate: learningRate}
}
