package ops

import (
	"math"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// MaxPool2DOp records a max pooling operation. The argmax position of each
// window is captured at construction time so the backward pass can route
// the gradient to exactly the element that won the max.
type MaxPool2DOp struct {
	input      *tensor.RawTensor
	output     *tensor.RawTensor
	maxIndices []int // flat input index of the max per output element
	kernelSize int
	stride     int
}

// NewMaxPool2DOp creates a new MaxPool2DOp and computes the max indices.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		maxIndices: computeMaxIndices(input, output, kernelSize, stride),
		kernelSize: kernelSize,
		stride:     stride,
	}
}

// computeMaxIndices scans each pooling window and records the flat input
// index of its maximum.
func computeMaxIndices(input, output *tensor.RawTensor, kernelSize, stride int) []int {
	inShape := input.Shape()
	outShape := output.Shape()
	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut, wOut := outShape[2], outShape[3]

	data := input.AsFloat32()
	maxIndices := make([]int, n*c*hOut*wOut)

	outIdx := 0
	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					maxVal := float32(math.Inf(-1))
					maxPos := 0
					for kh := 0; kh < kernelSize; kh++ {
						for kw := 0; kw < kernelSize; kw++ {
							idx := ((ni*c+ci)*h+oh*stride+kh)*w + ow*stride + kw
							if data[idx] > maxVal {
								maxVal = data[idx]
								maxPos = idx
							}
						}
					}
					maxIndices[outIdx] = maxPos
					outIdx++
				}
			}
		}
	}
	return maxIndices
}

// Backward routes the output gradient to the max positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradInput := backend.MaxPool2DBackward(op.input, outputGrad, op.maxIndices, op.kernelSize, op.stride)
	return []*tensor.RawTensor{gradInput}
}

// Inputs returns [input].
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the pooled feature map.
func (op *MaxPool2DOp) Output() *tensor.RawTensor { return op.output }
