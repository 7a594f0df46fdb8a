package param

import "fmt"

// ShapeError reports a key whose matrix is missing, empty, or shaped
// differently from what the position index recorded.
type ShapeError struct {
	Key        Key
	Rows, Cols int
}

func (e *ShapeError) Error() string {
	if e.Rows == 0 && e.Cols == 0 {
		return fmt.Sprintf("param: no 2-D matrix for key %s", e.Key)
	}
	return fmt.Sprintf("param: matrix for key %s has shape (%d,%d)", e.Key, e.Rows, e.Cols)
}

// LengthError reports a flat vector whose length does not match the
// total length recorded in the position index. It indicates inconsistent
// key ordering between flatten and unflatten, not bad input data.
type LengthError struct {
	Want, Got int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("param: vector length %d does not match index length %d", e.Got, e.Want)
}
