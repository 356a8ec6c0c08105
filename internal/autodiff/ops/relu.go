package ops

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// ReLUOp records output = max(0, input). The gradient passes through where
// the input was positive and is zero elsewhere.
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward masks the output gradient by the sign of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("relu backward: %v", err))
	}

	in := op.input.AsFloat32()
	out := outputGrad.AsFloat32()
	gradData := grad.AsFloat32()
	for i, v := range in {
		if v > 0 {
			gradData[i] = out[i]
		}
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [input].
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the activated tensor.
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }
