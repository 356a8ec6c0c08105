package cpu

import (
	"fmt"
	"math"

	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// MaxPool2D performs 2D max pooling with a square window.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, (H-kernelSize)/stride+1, (W-kernelSize)/stride+1]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	inShape := input.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("maxpool2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}

	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	hOut := (h-kernelSize)/stride + 1
	wOut := (w-kernelSize)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid output dimensions %dx%d", hOut, wOut))
	}

	output := mustRaw(tensor.Shape{n, c, hOut, wOut}, cpu.device)
	inData := input.AsFloat32()
	outData := output.AsFloat32()

	parallel.ForBatch(n, c, func(b, ch int) {
		img := inData[(b*c+ch)*h*w:]
		out := outData[(b*c+ch)*hOut*wOut:]
		for oh := 0; oh < hOut; oh++ {
			for ow := 0; ow < wOut; ow++ {
				maxVal := float32(math.Inf(-1))
				for y := 0; y < kernelSize; y++ {
					row := img[(oh*stride+y)*w+ow*stride:]
					for x := 0; x < kernelSize; x++ {
						if row[x] > maxVal {
							maxVal = row[x]
						}
					}
				}
				out[oh*wOut+ow] = maxVal
			}
		}
	}, cpu.par)

	return output
}

// MaxPool2DBackward routes the output gradient to the input positions that
// held the window maxima. maxIndices holds one flat input index per output
// element, captured during the forward pass.
func (cpu *CPUBackend) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int, kernelSize, stride int) *tensor.RawTensor {
	inputGrad := mustRaw(input.Shape(), cpu.device)
	gradData := inputGrad.AsFloat32()
	outData := outputGrad.AsFloat32()

	if len(maxIndices) != len(outData) {
		panic(fmt.Sprintf("maxpool2d backward: %d max indices for %d output gradients", len(maxIndices), len(outData)))
	}

	// Windows can overlap when stride < kernelSize, so accumulate.
	for i, idx := range maxIndices {
		gradData[idx] += outData[i]
	}

	return inputGrad
}
