package cpu

import (
	"math"

	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Softmax computes the softmax along the last dimension.
// Inputs are shifted by the row maximum for numerical stability.
func (cpu *CPUBackend) Softmax(t *tensor.RawTensor) *tensor.RawTensor {
	shape := t.Shape()
	rowLen := shape[len(shape)-1]
	numRows := t.NumElements() / rowLen

	result := mustRaw(shape, cpu.device)
	inData := t.AsFloat32()
	outData := result.AsFloat32()

	parallel.For(numRows, func(row int) {
		in := inData[row*rowLen : (row+1)*rowLen]
		out := outData[row*rowLen : (row+1)*rowLen]

		maxVal := in[0]
		for _, v := range in[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for i, v := range in {
			e := float32(math.Exp(float64(v - maxVal)))
			out[i] = e
			sum += e
		}
		for i := range out {
			out[i] /= sum
		}
	}, cpu.par)

	return result
}
