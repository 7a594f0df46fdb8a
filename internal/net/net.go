// Package net provides the network container that ties layers, loss and
// optimizer together.
package net

import (
	"github.com/gradkit/gradkit/internal/layer"
	"github.com/gradkit/gradkit/internal/loss"
	"github.com/gradkit/gradkit/internal/opt"
	"github.com/gradkit/gradkit/internal/param"
)

// Network is a sequential collection of layers with a loss function and
// an optimizer. It satisfies the gradient checker's model contract:
// deterministic parameter enumeration, live parameter and gradient
// collections, and an evaluation-mode forward pass.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer
}

// New creates a new network with the given layers.
func New(layers []layer.Layer, l loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   l,
		opt:    optimizer,
	}
}

// Forward performs a forward pass through all layers. With training
// false every layer runs in evaluation mode.
func (n *Network) Forward(x []float64, training bool) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr, training)
	}
	return curr
}

// Predict runs an evaluation-mode forward pass.
func (n *Network) Predict(x []float64) []float64 {
	return n.Forward(x, false)
}

// Backward propagates the error from output and target through all
// layers in reverse, storing each layer's parameter gradients.
func (n *Network) Backward(output, target []float64) {
	grad := n.loss.Backward(output, target)
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].Backward(grad)
	}
}

// Cost evaluates the network's loss for an output/target pair.
func (n *Network) Cost(output, target []float64) float64 {
	return n.loss.Forward(output, target)
}

// ParamKeys enumerates the parameter keys of all layers: lower layer
// indices first, and within a layer the order its Roles method declares
// (weights before biases). Layer numbering is 1-based and counts every
// layer, so parameterless layers leave gaps rather than renumbering
// their successors.
func (n *Network) ParamKeys() []param.Key {
	var keys []param.Key
	for i, l := range n.layers {
		for _, r := range l.Roles() {
			keys = append(keys, param.Key{Layer: i + 1, Role: r})
		}
	}
	return keys
}

// Params assembles the live parameter collection from the layers' typed
// accessors. The matrices are shared with the layers, not copied.
func (n *Network) Params() param.Collection {
	c := make(param.Collection)
	for i, l := range n.layers {
		for _, r := range l.Roles() {
			c[param.Key{Layer: i + 1, Role: r}] = l.Param(r)
		}
	}
	return c
}

// Grads assembles the live gradient collection from the layers' typed
// accessors. The matrices are shared with the layers, not copied.
func (n *Network) Grads() param.Collection {
	c := make(param.Collection)
	for i, l := range n.layers {
		for _, r := range l.Roles() {
			c[param.Key{Layer: i + 1, Role: r}] = l.Grad(r)
		}
	}
	return c
}

// Deterministic reports whether every layer's forward pass is
// deterministic.
func (n *Network) Deterministic() bool {
	for _, l := range n.layers {
		if !l.Deterministic() {
			return false
		}
	}
	return true
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Step applies one optimizer update to every parameter matrix using the
// stored gradients.
func (n *Network) Step() {
	for _, l := range n.layers {
		for _, r := range l.Roles() {
			p := l.Param(r).RawMatrix()
			g := l.Grad(r).RawMatrix()
			n.opt.StepInPlace(p.Data, g.Data)
		}
	}
}

// Train performs a training step on a single sample and returns the loss
// before the update.
func (n *Network) Train(x, y []float64) float64 {
	output := n.Forward(x, true)
	cost := n.loss.Forward(output, y)
	n.Backward(output, y)
	n.Step()
	return cost
}
