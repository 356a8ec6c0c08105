package ops

import (
	"fmt"
	"math"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// reduceBroadcast reduces a gradient to the target shape by summing the
// dimensions that were broadcast in the forward pass. NumPy broadcasting
// aligns shapes from the right, so leading extra dimensions are summed
// away first, then any dimension where the target is 1.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone when shapes already match so in-place ops downstream cannot
	// corrupt a gradient shared between inputs.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDimension(result, 0)
	}

	shape := result.Shape()
	for i := range targetShape {
		if targetShape[i] == 1 && shape[i] > 1 {
			result = sumAlongDimension(result, i)
			shape = result.Shape()
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumAlongDimension sums a float32 tensor along dim, keeping the dimension
// with size 1.
func sumAlongDimension(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumAlongDimension: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = 1

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDimension: %v", err))
	}

	data := t.AsFloat32()
	out := result.AsFloat32()
	strides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := range data {
		outIdx := 0
		rem := i
		for d := range shape {
			coord := rem / strides[d]
			rem %= strides[d]
			if d != dim {
				outIdx += coord * outStrides[d]
			}
		}
		out[outIdx] += data[i]
	}
	return result
}

// negateGradient returns -grad.
func negateGradient(grad *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(grad.Shape(), grad.DType(), grad.Device())
	if err != nil {
		panic(fmt.Sprintf("negateGradient: %v", err))
	}
	in := grad.AsFloat32()
	out := result.AsFloat32()
	for i, v := range in {
		out[i] = -v
	}
	return result
}

// rowSoftmax computes max-shifted softmax of a single row into probs.
func rowSoftmax(logits, probs []float32) {
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	var sum float32
	for i, v := range logits {
		e := float32(math.Exp(float64(v - maxVal)))
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
}
