package opt

import (
	"math"
	"testing"
)

// TestSGDStepInPlace tests the in-place parameter update.
func TestSGDStepInPlace(t *testing.T) {
	sgd := SGD{LearningRate: 0.1}

	params := []float64{1.0, 2.0}
	grads := []float64{0.5, -0.5}
	sgd.StepInPlace(params, grads)

	want := []float64{0.95, 2.05}
	for i := range want {
		if math.Abs(params[i]-want[i]) > 1e-12 {
			t.Errorf("params[%d] = %v, want %v", i, params[i], want[i])
		}
	}
}

// TestSGDZeroGradient tests that a zero gradient leaves params unchanged.
func TestSGDZeroGradient(t *testing.T) {
	sgd := SGD{LearningRate: 0.5}

	params := []float64{1.0, -3.0}
	sgd.StepInPlace(params, []float64{0, 0})

	if params[0] != 1.0 || params[1] != -3.0 {
		t.Errorf("params = %v, want [1 -3]", params)
	}
}
