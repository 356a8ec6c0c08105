package cpu

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows of the result are computed in parallel.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v @ %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions mismatch: %v @ %v", aShape, bShape))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result := mustRaw(tensor.Shape{m, n}, cpu.device)

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := result.AsFloat32()

	parallel.For(m, func(i int) {
		row := aData[i*k : (i+1)*k]
		out := outData[i*n : (i+1)*n]
		// k-outer loop keeps the inner loop streaming through b rows,
		// which is cache-friendly for row-major layout.
		for p := 0; p < k; p++ {
			av := row[p]
			if av == 0 {
				continue
			}
			bRow := bData[p*n : (p+1)*n]
			for j := range out {
				out[j] += av * bRow[j]
			}
		}
	}, cpu.par)

	return result
}
