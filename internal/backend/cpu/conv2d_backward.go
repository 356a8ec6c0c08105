package cpu

import (
	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a Conv2D forward pass with
// respect to its input.
//
// For every output gradient value, the contribution is scattered back to
// the input positions the corresponding patch covered:
//
//	dInput[n,ci,h,w] += dOut[n,co,oh,ow] * kernel[co,ci,kh,kw]
//
// Parallel over batch elements: each goroutine scatters into a disjoint
// slice of the gradient.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()
	outShape := outputGrad.Shape()

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	hOut, wOut := outShape[2], outShape[3]

	inputGrad := mustRaw(inShape, cpu.device)
	gradData := inputGrad.AsFloat32()
	kData := kernel.AsFloat32()
	outData := outputGrad.AsFloat32()

	parallel.For(n, func(b int) {
		for co := 0; co < cOut; co++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					g := outData[((b*cOut+co)*hOut+oh)*wOut+ow]
					if g == 0 {
						continue
					}
					for ci := 0; ci < cIn; ci++ {
						for y := 0; y < kh; y++ {
							iy := oh*stride + y - padding
							if iy < 0 || iy >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								ix := ow*stride + x - padding
								if ix < 0 || ix >= w {
									continue
								}
								gradData[((b*cIn+ci)*h+iy)*w+ix] += g * kData[((co*cIn+ci)*kh+y)*kw+x]
							}
						}
					}
				}
			}
		}
	}, cpu.par)

	return inputGrad
}

// Conv2DKernelBackward computes the gradient of a Conv2D forward pass with
// respect to its kernel:
//
//	dKernel[co,ci,kh,kw] += dOut[n,co,oh,ow] * input[n,ci,h,w]
//
// Parallel over output channels: each goroutine owns one slice of the
// kernel gradient and accumulates across the whole batch.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()
	outShape := outputGrad.Shape()

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	hOut, wOut := outShape[2], outShape[3]

	kernelGrad := mustRaw(kShape, cpu.device)
	gradData := kernelGrad.AsFloat32()
	inData := input.AsFloat32()
	outData := outputGrad.AsFloat32()

	parallel.For(cOut, func(co int) {
		for b := 0; b < n; b++ {
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					g := outData[((b*cOut+co)*hOut+oh)*wOut+ow]
					if g == 0 {
						continue
					}
					for ci := 0; ci < cIn; ci++ {
						for y := 0; y < kh; y++ {
							iy := oh*stride + y - padding
							if iy < 0 || iy >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								ix := ow*stride + x - padding
								if ix < 0 || ix >= w {
									continue
								}
								gradData[((co*cIn+ci)*kh+y)*kw+x] += g * inData[((b*cIn+ci)*h+iy)*w+ix]
							}
						}
					}
				}
			}
		}
	}, cpu.par)

	return kernelGrad
}
