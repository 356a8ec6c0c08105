// Package nn implements the neural network building blocks used by the
// CIFAR-10 classifier: convolution, pooling, dense layers, activations,
// dropout, and the categorical cross-entropy loss. Modules compose through
// the Sequential container, PyTorch-style but with Go generics carrying
// the backend type.
package nn

import "github.com/cifar-ml/cifarnet/internal/tensor"

// Module is the base interface for all network components.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, including those of
	// nested modules. Parameter-free modules return an empty slice.
	Parameters() []*Parameter[B]
}

// TrainingAware is implemented by modules whose forward pass differs
// between training and inference, such as Dropout.
type TrainingAware interface {
	SetTraining(training bool)
}
