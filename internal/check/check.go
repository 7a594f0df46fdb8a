// Package check implements numerical gradient checking: it verifies a
// model's analytic backpropagation gradients against central-difference
// estimates of the cost function and reports a normalized discrepancy
// score.
package check

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/param"
)

// ErrNonDeterministic is returned when the model contains a layer whose
// forward pass is stochastic or depends on batch statistics. Such layers
// make the cost non-smooth with respect to a single perturbed parameter,
// which invalidates the finite-difference approximation. This is a hard
// precondition, not a retryable condition.
var ErrNonDeterministic = errors.New("check: model forward pass is not deterministic")

// DefaultEpsilon is the default perturbation size. Values above ~1e-5
// risk truncation error from the finite-difference approximation itself;
// values far below risk catastrophic cancellation in the cost
// subtraction. The useful range is roughly 1e-7 to 1e-5.
const DefaultEpsilon = 1e-7

// Model is the collaborator contract the checker runs against. The
// checker requires exclusive ownership of the model's mutable parameter
// and gradient state for the full duration of a Run.
type Model interface {
	// Forward propagates input through the model. With training false
	// the pass runs in evaluation mode: it must be free of stochastic
	// behavior and must not mutate stored gradients.
	Forward(x []float64, training bool) []float64

	// Backward propagates the error from output and target, storing
	// parameter gradients in the model as a side effect.
	Backward(output, target []float64)

	// Cost evaluates the scalar cost of output against target.
	Cost(output, target []float64) float64

	// ParamKeys enumerates the model's parameter keys deterministically:
	// lower layer indices before higher, weights before biases within a
	// layer. The same order addresses both collections below.
	ParamKeys() []param.Key

	// Params and Grads expose the live, mutable collections. They share
	// the key space reported by ParamKeys.
	Params() param.Collection
	Grads() param.Collection

	// Deterministic reports whether every layer's forward pass is
	// deterministic and batch-independent.
	Deterministic() bool
}

// Checker verifies a model's backpropagation by comparing its analytic
// gradients to a two-sided finite-difference approximation. A check
// costs two full forward passes per parameter coordinate; callers
// needing bounded latency must keep the model small.
type Checker struct {
	model Model
	eps   float64
	tol   float64
}

// Option configures a Checker.
type Option func(*Checker)

// Epsilon sets the perturbation size used for the central difference.
func Epsilon(eps float64) Option {
	return func(c *Checker) { c.eps = eps }
}

// Tolerance sets the score threshold used by Check to classify the
// result as passing or failing.
func Tolerance(tol float64) Option {
	return func(c *Checker) { c.tol = tol }
}

// New creates a Checker for the given model. It fails with
// ErrNonDeterministic before any forward or backward call if the model
// declares a stochastic or batch-statistic-dependent layer.
func New(model Model, opts ...Option) (*Checker, error) {
	if !model.Deterministic() {
		return nil, ErrNonDeterministic
	}
	c := &Checker{
		model: model,
		eps:   DefaultEpsilon,
		tol:   DefaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run checks the model's backpropagation on one input/target pair and
// returns the relative discrepancy between the analytic and the numeric
// gradient vector.
//
// Run snapshots the model's parameters and gradients before the analytic
// pass, perturbs every flat coordinate by ±eps from the original values
// (perturbations never accumulate across coordinates), and restores both
// snapshots before returning, on success and on every failure past the
// snapshot phase. The model therefore ends the call in its entry state.
func (c *Checker) Run(x, y []float64) (score float64, err error) {
	if !c.model.Deterministic() {
		return 0, ErrNonDeterministic
	}

	keys := c.model.ParamKeys()
	params := c.model.Params()
	grads := c.model.Grads()

	// Snapshot before the analytic pass: Backward overwrites stored
	// gradients, but restoration must reproduce the state at call entry.
	paramSnap, paramIdx, err := param.Flatten(params, keys)
	if err != nil {
		return 0, fmt.Errorf("snapshot parameters: %w", err)
	}
	gradSnap, gradIdx, err := param.Flatten(grads, keys)
	if err != nil {
		return 0, fmt.Errorf("snapshot gradients: %w", err)
	}

	// Every exit path below restores the snapshots.
	defer func() {
		rerr := param.Install(paramSnap, paramIdx, params)
		if rerr == nil {
			rerr = param.Install(gradSnap, gradIdx, grads)
		}
		if err == nil && rerr != nil {
			err = fmt.Errorf("restore model state: %w", rerr)
		}
	}()

	// One forward+backward pass to populate the analytic gradients.
	output := c.model.Forward(x, true)
	c.model.Backward(output, y)

	// Flatten parameters and gradients with the same key order, so
	// coordinate i of both vectors belongs to the same (layer, role).
	paramTheta, _, err := param.Flatten(params, keys)
	if err != nil {
		return 0, fmt.Errorf("flatten parameters: %w", err)
	}
	gradTheta, _, err := param.Flatten(grads, keys)
	if err != nil {
		return 0, fmt.Errorf("flatten gradients: %w", err)
	}

	n := param.VecLen(paramTheta)
	approx := make([]float64, n)
	for i := 0; i < n; i++ {
		costPlus, cerr := c.costAt(x, y, paramTheta, paramIdx, params, i, c.eps)
		if cerr != nil {
			return 0, cerr
		}
		costMinus, cerr := c.costAt(x, y, paramTheta, paramIdx, params, i, -c.eps)
		if cerr != nil {
			return 0, cerr
		}
		// Two-sided Taylor approximation; truncation error is O(eps^2).
		approx[i] = (costPlus - costMinus) / (2 * c.eps)
	}

	var gradApprox *mat.VecDense
	if n > 0 {
		gradApprox = mat.NewVecDense(n, approx)
	}
	return Diff(gradTheta, gradApprox), nil
}

// costAt evaluates the cost with coordinate i of theta nudged by delta.
// The perturbed copy always derives from the original theta, and the
// forward pass runs in evaluation mode so stored gradients stay intact.
func (c *Checker) costAt(x, y []float64, theta *mat.VecDense, idx param.Index, params param.Collection, i int, delta float64) (float64, error) {
	nudged := mat.VecDenseCopyOf(theta)
	nudged.SetVec(i, nudged.AtVec(i)+delta)
	if err := param.Install(nudged, idx, params); err != nil {
		return 0, fmt.Errorf("install perturbed parameters: %w", err)
	}
	output := c.model.Forward(x, false)
	return c.model.Cost(output, y), nil
}

// Result is the outcome of a full check: the discrepancy score and its
// classification against the checker's tolerance.
type Result struct {
	Score     float64
	Tolerance float64
	Passed    bool
}

// String renders a human-readable pass/fail message.
func (r Result) String() string {
	verdict := "failed"
	if r.Passed {
		verdict = "passed"
	}
	return fmt.Sprintf("%s gradient checking (score %.3g, tolerance %.3g)", verdict, r.Score, r.Tolerance)
}

// Check runs a full gradient check and classifies the score against the
// checker's tolerance.
func (c *Checker) Check(x, y []float64) (Result, error) {
	score, err := c.Run(x, y)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Score:     score,
		Tolerance: c.tol,
		Passed:    score < c.tol,
	}, nil
}
