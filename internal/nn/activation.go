package nn

import "github.com/cifar-ml/cifarnet/internal/tensor"

// ReLUBackend is implemented by backends that provide a fused ReLU with
// gradient support. The autodiff decorator implements it.
type ReLUBackend interface {
	ReLU(*tensor.RawTensor) *tensor.RawTensor
}

// ReLU applies f(x) = max(0, x) element-wise.
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the activation. The backend must implement ReLUBackend,
// otherwise gradients could not flow through the activation.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	backend := input.Backend()
	reluBackend, ok := any(backend).(ReLUBackend)
	if !ok {
		panic("relu: backend must implement ReLU (wrap it in autodiff.New)")
	}
	return tensor.New[float32, B](reluBackend.ReLU(input.Raw()), backend)
}

// Parameters returns nil; ReLU has no trainable parameters.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// String describes the module.
func (r *ReLU[B]) String() string { return "ReLU()" }

// Softmax normalizes the last dimension into a probability distribution.
// As the output activation of a classifier it turns logits into per-class
// probabilities.
type Softmax[B tensor.Backend] struct{}

// NewSoftmax creates a Softmax activation module.
func NewSoftmax[B tensor.Backend]() *Softmax[B] {
	return &Softmax[B]{}
}

// Forward applies softmax along the last dimension.
func (s *Softmax[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Softmax()
}

// Parameters returns nil; Softmax has no trainable parameters.
func (s *Softmax[B]) Parameters() []*Parameter[B] { return nil }

// String describes the module.
func (s *Softmax[B]) String() string { return "Softmax()" }
