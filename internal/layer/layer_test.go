// Package layer provides unit tests for layer implementations.
package layer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/gradkit/gradkit/internal/activations"
	"github.com/gradkit/gradkit/internal/param"
)

func setRows(m interface{ Set(i, j int, v float64) }, rows [][]float64) {
	for i, row := range rows {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
}

// TestDenseForward tests the affine transform with a linear activation.
func TestDenseForward(t *testing.T) {
	d := NewDense(2, 2, activations.Linear{})
	setRows(d.Param(param.RoleWeight), [][]float64{{1, 2}, {3, 4}})
	setRows(d.Param(param.RoleBias), [][]float64{{0.5}, {-0.5}})

	got := d.Forward([]float64{1, 1}, false)
	want := []float64{3.5, 6.5}
	if !floats.EqualApprox(got, want, 1e-12) {
		t.Errorf("Forward() = %v, want %v", got, want)
	}
}

// TestDenseForwardSizeMismatch tests the panic on wrong input size.
func TestDenseForwardSizeMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for input size mismatch")
		}
	}()
	NewDense(3, 2, activations.Linear{}).Forward([]float64{1, 2}, false)
}

// TestDenseBackward tests the stored gradients and the input gradient.
func TestDenseBackward(t *testing.T) {
	d := NewDense(2, 2, activations.Linear{})
	setRows(d.Param(param.RoleWeight), [][]float64{{1, 2}, {3, 4}})
	setRows(d.Param(param.RoleBias), [][]float64{{0}, {0}})

	d.Forward([]float64{1, 1}, true)
	gradIn := d.Backward([]float64{1, 2})

	// dW = dz * x^T with dz = grad for a linear activation.
	wantW := [][]float64{{1, 1}, {2, 2}}
	for i := range wantW {
		for j := range wantW[i] {
			if got := d.Grad(param.RoleWeight).At(i, j); got != wantW[i][j] {
				t.Errorf("gradW[%d][%d] = %v, want %v", i, j, got, wantW[i][j])
			}
		}
	}
	// db = dz.
	if d.Grad(param.RoleBias).At(0, 0) != 1 || d.Grad(param.RoleBias).At(1, 0) != 2 {
		t.Errorf("gradB = %v, want [1 2]", d.Grad(param.RoleBias).RawMatrix().Data)
	}
	// W^T * dz.
	if !floats.EqualApprox(gradIn, []float64{7, 10}, 1e-12) {
		t.Errorf("Backward() = %v, want [7 10]", gradIn)
	}
}

// TestDenseBackwardNumeric tests the analytic weight gradient against a
// direct finite difference of the layer's output.
func TestDenseBackwardNumeric(t *testing.T) {
	d := NewDense(2, 1, activations.Sigmoid{})
	setRows(d.Param(param.RoleWeight), [][]float64{{0.3, -0.7}})
	setRows(d.Param(param.RoleBias), [][]float64{{0.2}})
	x := []float64{0.9, -0.4}

	d.Forward(x, true)
	d.Backward([]float64{1})
	analytic := d.Grad(param.RoleWeight).At(0, 0)

	eps := 1e-6
	w := d.Param(param.RoleWeight)
	orig := w.At(0, 0)
	w.Set(0, 0, orig+eps)
	plus := d.Forward(x, false)[0]
	w.Set(0, 0, orig-eps)
	minus := d.Forward(x, false)[0]
	w.Set(0, 0, orig)

	numeric := (plus - minus) / (2 * eps)
	if math.Abs(analytic-numeric) > 1e-8 {
		t.Errorf("analytic dW = %v, numeric = %v", analytic, numeric)
	}
}

// TestDenseContract tests the roles, accessors and capability flag.
func TestDenseContract(t *testing.T) {
	d := NewDense(3, 2, activations.Tanh{})

	roles := d.Roles()
	if len(roles) != 2 || roles[0] != param.RoleWeight || roles[1] != param.RoleBias {
		t.Errorf("Roles() = %v, want [W b]", roles)
	}
	if r, c := d.Param(param.RoleWeight).Dims(); r != 2 || c != 3 {
		t.Errorf("weight shape = (%d,%d), want (2,3)", r, c)
	}
	if r, c := d.Grad(param.RoleBias).Dims(); r != 2 || c != 1 {
		t.Errorf("bias gradient shape = (%d,%d), want (2,1)", r, c)
	}
	if d.Param("unknown") != nil {
		t.Error("Param() for unknown role should be nil")
	}
	if !d.Deterministic() {
		t.Error("Dense must be deterministic")
	}
}

// TestDropout tests evaluation-mode passthrough and the training mask.
func TestDropout(t *testing.T) {
	d := NewDropout(0.5)
	x := []float64{1, 2, 3, 4}

	out := d.Forward(x, false)
	if !floats.Equal(out, x) {
		t.Errorf("evaluation Forward() = %v, want %v", out, x)
	}

	out = d.Forward(x, true)
	for i := range out {
		if out[i] != 0 && out[i] != x[i]*2 {
			t.Errorf("training Forward()[%d] = %v, want 0 or %v", i, out[i], x[i]*2)
		}
	}

	gradIn := d.Backward([]float64{1, 1, 1, 1})
	for i := range gradIn {
		dropped := out[i] == 0
		if dropped && gradIn[i] != 0 {
			t.Errorf("Backward()[%d] = %v for dropped input", i, gradIn[i])
		}
		if !dropped && gradIn[i] != 2 {
			t.Errorf("Backward()[%d] = %v, want 2", i, gradIn[i])
		}
	}

	if d.Roles() != nil {
		t.Error("Dropout has no parameter roles")
	}
	if d.Deterministic() {
		t.Error("Dropout must not be deterministic")
	}
}

// TestBatchNormEval tests the running-statistics normalization path.
func TestBatchNormEval(t *testing.T) {
	b := NewBatchNorm(2)
	x := []float64{1, -2}

	// Fresh running statistics: mean 0, variance 1.
	out := b.Forward(x, false)
	scale := 1 / math.Sqrt(1+1e-5)
	want := []float64{x[0] * scale, x[1] * scale}
	if !floats.EqualApprox(out, want, 1e-12) {
		t.Errorf("evaluation Forward() = %v, want %v", out, want)
	}
}

// TestBatchNormContract tests roles, gradients and the capability flag.
func TestBatchNormContract(t *testing.T) {
	b := NewBatchNorm(2)

	roles := b.Roles()
	if len(roles) != 2 || roles[0] != param.RoleWeight || roles[1] != param.RoleBias {
		t.Errorf("Roles() = %v, want [W b]", roles)
	}
	if b.Deterministic() {
		t.Error("BatchNorm must not be deterministic")
	}

	b.Forward([]float64{1, -2}, true)
	b.Backward([]float64{0.5, -0.5})
	if b.Grad(param.RoleBias).At(0, 0) != 0.5 || b.Grad(param.RoleBias).At(1, 0) != -0.5 {
		t.Errorf("beta gradient = %v, want [0.5 -0.5]", b.Grad(param.RoleBias).RawMatrix().Data)
	}
}
