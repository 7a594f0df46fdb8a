package check

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(data ...float64) *mat.VecDense {
	return mat.NewVecDense(len(data), data)
}

// TestDiff tests the relative discrepancy metric.
func TestDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b *mat.VecDense
		want float64
	}{
		{"Identical vectors", vec(1, -2, 3), vec(1, -2, 3), 0},
		{"Both zero", vec(0, 0, 0), vec(0, 0, 0), 0},
		{"Empty vectors", nil, nil, 0},
		{"Opposite vectors", vec(1, 0), vec(-1, 0), 1},
		{"Known value", vec(3, 0), vec(0, 4), 5.0 / 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.a, tt.b)
			if math.IsNaN(got) {
				t.Fatal("Diff() returned NaN")
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Diff() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDiffSymmetric tests that the metric is symmetric in its arguments.
func TestDiffSymmetric(t *testing.T) {
	a := vec(0.1, -0.7, 2.5, 0)
	b := vec(0.1, -0.69, 2.4, 1e-9)
	if Diff(a, b) != Diff(b, a) {
		t.Errorf("Diff(a, b) = %v, Diff(b, a) = %v", Diff(a, b), Diff(b, a))
	}
}

// TestDiffScaleInvariant tests that scaling both vectors preserves the score.
func TestDiffScaleInvariant(t *testing.T) {
	a := vec(1, 2, 3)
	b := vec(1.1, 2.1, 2.9)
	small := Diff(a, b)

	scale := 1e6
	as := vec(1*scale, 2*scale, 3*scale)
	bs := vec(1.1*scale, 2.1*scale, 2.9*scale)
	large := Diff(as, bs)

	if math.Abs(small-large) > 1e-12 {
		t.Errorf("score changed under scaling: %v vs %v", small, large)
	}
}

// TestDiffLengthMismatch tests the panic on mismatched vector lengths.
func TestDiffLengthMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for length mismatch")
		}
	}()
	Diff(vec(1, 2), vec(1))
}
