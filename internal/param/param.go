// Package param provides the parameter collection model and the roller
// that converts structured per-layer parameter matrices to and from a
// single flat coordinate vector.
package param

import (
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Role identifies the kind of parameter a matrix holds within a layer.
// Using a typed tag instead of free-form strings keeps key construction
// and dispatch explicit.
type Role string

const (
	// RoleWeight is the weight matrix of a layer.
	RoleWeight Role = "W"

	// RoleBias is the bias column of a layer.
	RoleBias Role = "b"
)

// Key identifies one parameter matrix: which layer it belongs to and
// which role it plays there. Keys are comparable and can be used as map
// keys directly.
type Key struct {
	Layer int
	Role  Role
}

// String renders the key in the conventional short form, e.g. "W1" or "b3".
func (k Key) String() string {
	return string(k.Role) + strconv.Itoa(k.Layer)
}

// Collection maps keys to 2-D parameter matrices. A model exposes one
// Collection for its parameters and one for its gradients; the two share
// the same key space.
//
// Map iteration order is never relied upon: every operation that walks a
// Collection is driven by an explicit key slice.
type Collection map[Key]*mat.Dense

// Span records where one key's matrix landed in a flat vector, together
// with the shape it had at flatten time. Start and End delimit a
// half-open interval [Start, End).
type Span struct {
	Key        Key
	Start, End int
	Rows, Cols int
}

// Index is the position index produced by Flatten: an ordered list of
// spans covering the whole flat vector. Because it records shapes as
// well as offsets, unflattening never has to consult the (possibly
// mutated) source collection.
type Index struct {
	spans []Span
	total int
}

// Spans returns the recorded spans in flatten order.
func (ix Index) Spans() []Span {
	return ix.spans
}

// Len returns the total length of a vector described by the index.
func (ix Index) Len() int {
	return ix.total
}
