package check

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/gradkit/gradkit/internal/param"
)

// DefaultTolerance is the score below which two gradient vectors are
// considered to agree. It is calibrated for the default epsilon; a
// caller using a larger epsilon should loosen it accordingly or expect
// more false failures.
const DefaultTolerance = 2e-7

// Diff computes the relative discrepancy between two vectors:
//
//	||a - b|| / (||a|| + ||b||)
//
// using the Euclidean norm. The normalization bounds the score
// independent of the gradient magnitude scale, and the metric is
// symmetric in its arguments.
//
// When both vectors have exactly zero norm the quotient is 0/0; since
// two all-zero vectors are identical, Diff defines the result as 0
// rather than letting a NaN escape.
//
// Diff panics if the vectors differ in length; comparing vectors from
// different flatten orders is a programming error, not an input error.
func Diff(a, b *mat.VecDense) float64 {
	n := param.VecLen(a)
	if param.VecLen(b) != n {
		panic("check: compared vectors must have the same length")
	}
	if n == 0 {
		return 0
	}
	av := a.RawVector().Data
	bv := b.RawVector().Data

	d := make([]float64, n)
	floats.SubTo(d, av, bv)

	den := floats.Norm(av, 2) + floats.Norm(bv, 2)
	if den == 0 {
		return 0
	}
	return floats.Norm(d, 2) / den
}
