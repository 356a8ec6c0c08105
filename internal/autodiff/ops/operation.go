// Package ops defines the differentiable operations recorded by the
// gradient tape. Each operation keeps references to its forward inputs and
// output and knows how to turn the output gradient into input gradients.
package ops

import "github.com/cifar-ml/cifarnet/internal/tensor"

// Operation is one node of the recorded computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output
	// gradient, in the same order as Inputs(). A nil entry means no
	// gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the forward-pass input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the forward-pass output tensor.
	Output() *tensor.RawTensor
}
