package ops

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// SoftmaxOp records a softmax along the last dimension of a 2D tensor.
//
// The Jacobian contracts to a per-row expression that only needs the
// cached forward output:
//
//	dL/dx_j = s_j * (dL/ds_j - Σ_i dL/ds_i * s_i)
type SoftmaxOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // cached probabilities
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{input: input, output: output}
}

// Backward computes the input gradient from the cached probabilities.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("softmax backward: want 2D input, got %v", shape))
	}
	rows, cols := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("softmax backward: %v", err))
	}

	probs := op.output.AsFloat32()
	outGrad := outputGrad.AsFloat32()
	inGrad := grad.AsFloat32()

	for r := 0; r < rows; r++ {
		base := r * cols
		var dot float32
		for j := 0; j < cols; j++ {
			dot += outGrad[base+j] * probs[base+j]
		}
		for j := 0; j < cols; j++ {
			inGrad[base+j] = probs[base+j] * (outGrad[base+j] - dot)
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [input].
func (op *SoftmaxOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the probability tensor.
func (op *SoftmaxOp) Output() *tensor.RawTensor { return op.output }
