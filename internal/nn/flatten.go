package nn

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Flatten collapses all dimensions after the batch dimension into one,
// bridging convolutional feature maps and dense layers.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes [batch, d1, d2, ...] to [batch, d1*d2*...].
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) < 2 {
		panic(fmt.Sprintf("flatten: want at least 2D input, got %v", shape))
	}

	features := 1
	for _, d := range shape[1:] {
		features *= d
	}
	return input.Reshape(shape[0], features)
}

// Parameters returns nil; Flatten has no trainable parameters.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }

// String describes the module.
func (f *Flatten[B]) String() string { return "Flatten()" }
