package ops

import "github.com/cifar-ml/cifarnet/internal/tensor"

// Conv2DOp records a 2D convolution so gradients flow back to both the
// feature map and the kernel. The actual gradient kernels live in the
// backend; this op only orchestrates them.
type Conv2DOp struct {
	input   *tensor.RawTensor // [N, C_in, H, W]
	kernel  *tensor.RawTensor // [C_out, C_in, K, K]
	output  *tensor.RawTensor
	stride  int
	padding int
}

// NewConv2DOp creates a new Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
	}
}

// Backward computes the input and kernel gradients.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	gradKernel := backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding)
	return []*tensor.RawTensor{gradInput, gradKernel}
}

// Inputs returns [input, kernel].
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the convolved feature map.
func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }
