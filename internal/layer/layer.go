// Package layer provides neural network layer implementations.
package layer

import (
	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/param"
)

// Layer is a neural network layer. Parameters and their gradients are
// exposed as 2-D matrices through typed role accessors, so callers never
// dispatch on attribute-name strings.
type Layer interface {
	// Forward propagates input through the layer. With training false
	// the pass runs in evaluation mode: stochastic and batch-statistic
	// behavior is suppressed and stored gradients are left untouched.
	Forward(x []float64, training bool) []float64

	// Backward consumes the gradient w.r.t. the layer's output, stores
	// the parameter gradients, and returns the gradient w.r.t. the
	// layer's input.
	Backward(grad []float64) []float64

	// Roles lists the layer's parameter roles in their canonical order.
	// Parameterless layers return nil.
	Roles() []param.Role

	// Param returns the live parameter matrix for a role, nil if the
	// layer has no such role.
	Param(r param.Role) *mat.Dense

	// Grad returns the live gradient matrix for a role, nil if the
	// layer has no such role.
	Grad(r param.Role) *mat.Dense

	// Deterministic reports whether the layer's forward pass is free of
	// stochastic and batch-statistic-dependent behavior. Layers that
	// report false cannot be gradient-checked.
	Deterministic() bool
}
