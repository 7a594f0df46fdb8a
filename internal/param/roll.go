package param

import (
	"gonum.org/v1/gonum/mat"
)

// VecLen returns the length of v, treating a nil vector as empty.
// Flatten returns a nil vector for a collection with no coordinates, so
// callers use VecLen instead of touching v directly.
func VecLen(v *mat.VecDense) int {
	if v == nil {
		return 0
	}
	return v.Len()
}

// Flatten rolls the matrices selected by keys into a single column
// vector, appending each matrix in row-major order, and records every
// key's interval and shape in the returned Index.
//
// Flatten is pure: the collection is only read. It is also
// deterministic: the output is driven solely by the order of keys, so
// flattening the same collection with the same keys always yields a
// bit-identical vector.
//
// A *ShapeError is returned if a listed key has no matrix or its matrix
// is empty.
func Flatten(c Collection, keys []Key) (*mat.VecDense, Index, error) {
	var (
		idx  Index
		data []float64
	)
	for _, k := range keys {
		m, ok := c[k]
		if !ok || m == nil {
			return nil, Index{}, &ShapeError{Key: k}
		}
		r, cols := m.Dims()
		if r == 0 || cols == 0 {
			return nil, Index{}, &ShapeError{Key: k, Rows: r, Cols: cols}
		}
		start := len(data)
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				data = append(data, m.At(i, j))
			}
		}
		idx.spans = append(idx.spans, Span{Key: k, Start: start, End: len(data), Rows: r, Cols: cols})
	}
	idx.total = len(data)
	if idx.total == 0 {
		return nil, idx, nil
	}
	return mat.NewVecDense(len(data), data), idx, nil
}

// Unflatten rebuilds a fresh collection from a flat vector using the
// shapes and offsets recorded in the index. The returned matrices are
// newly allocated; neither v nor any source collection is touched.
//
// A *LengthError is returned if the vector's length does not equal the
// index's total length.
func Unflatten(v *mat.VecDense, idx Index) (Collection, error) {
	if VecLen(v) != idx.total {
		return nil, &LengthError{Want: idx.total, Got: VecLen(v)}
	}
	out := make(Collection, len(idx.spans))
	for _, s := range idx.spans {
		m := mat.NewDense(s.Rows, s.Cols, nil)
		for i := 0; i < s.Rows; i++ {
			for j := 0; j < s.Cols; j++ {
				m.Set(i, j, v.AtVec(s.Start+i*s.Cols+j))
			}
		}
		out[s.Key] = m
	}
	return out, nil
}

// Install writes the vector's values back into the existing matrices of
// a live collection, span by span. This is how perturbed or snapshot
// coordinates reach a model without rebinding its storage.
//
// A *LengthError is returned on vector length mismatch, and a
// *ShapeError if a destination matrix is missing or its shape disagrees
// with the recorded span. Destination matrices are only mutated after
// both checks pass for their span.
func Install(v *mat.VecDense, idx Index, dst Collection) error {
	if VecLen(v) != idx.total {
		return &LengthError{Want: idx.total, Got: VecLen(v)}
	}
	for _, s := range idx.spans {
		m, ok := dst[s.Key]
		if !ok || m == nil {
			return &ShapeError{Key: s.Key}
		}
		r, cols := m.Dims()
		if r != s.Rows || cols != s.Cols {
			return &ShapeError{Key: s.Key, Rows: r, Cols: cols}
		}
		for i := 0; i < s.Rows; i++ {
			for j := 0; j < s.Cols; j++ {
				m.Set(i, j, v.AtVec(s.Start+i*s.Cols+j))
			}
		}
	}
	return nil
}
