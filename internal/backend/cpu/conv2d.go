package cpu

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// where out_h = (H + 2*padding - K_h)/stride + 1 and likewise for width.
//
// Im2col turns each input patch into a column so the convolution becomes
// one matrix multiplication per batch element, which is both simple and
// cache-friendly.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	inShape := input.Shape()
	kShape := kernel.Shape()
	if len(inShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inShape)))
	}
	if len(kShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", len(kShape)))
	}

	n, cIn, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cOut, kh, kw := kShape[0], kShape[2], kShape[3]
	if cIn != kShape[1] {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", cIn, kShape[1]))
	}

	hOut := (h+2*padding-kh)/stride + 1
	wOut := (w+2*padding-kw)/stride + 1
	if hOut <= 0 || wOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions %dx%d (check stride/padding)", hOut, wOut))
	}

	output := mustRaw(tensor.Shape{n, cOut, hOut, wOut}, cpu.device)

	inData := input.AsFloat32()
	kData := kernel.AsFloat32()
	outData := output.AsFloat32()

	colWidth := cIn * kh * kw
	patches := hOut * wOut

	parallel.For(n, func(b int) {
		// Build the column matrix for this batch element:
		// [hOut*wOut, cIn*kh*kw].
		col := make([]float32, patches*colWidth)
		im2col(col, inData[b*cIn*h*w:(b+1)*cIn*h*w], cIn, h, w, kh, kw, hOut, wOut, stride, padding)

		// kernel [cOut, colWidth] @ col^T [colWidth, patches].
		for co := 0; co < cOut; co++ {
			kRow := kData[co*colWidth : (co+1)*colWidth]
			out := outData[(b*cOut+co)*patches : (b*cOut+co+1)*patches]
			for p := 0; p < patches; p++ {
				patch := col[p*colWidth : (p+1)*colWidth]
				var sum float32
				for i := range kRow {
					sum += kRow[i] * patch[i]
				}
				out[p] = sum
			}
		}
	}, cpu.par)

	return output
}

// im2col unrolls convolution patches of a single image [C, H, W] into rows
// of col. Out-of-bounds (padding) positions stay zero.
func im2col(col, img []float32, cIn, h, w, kh, kw, hOut, wOut, stride, padding int) {
	colWidth := cIn * kh * kw
	for oh := 0; oh < hOut; oh++ {
		for ow := 0; ow < wOut; ow++ {
			row := col[(oh*wOut+ow)*colWidth:]
			i := 0
			for c := 0; c < cIn; c++ {
				for y := 0; y < kh; y++ {
					iy := oh*stride + y - padding
					for x := 0; x < kw; x++ {
						ix := ow*stride + x - padding
						if iy >= 0 && iy < h && ix >= 0 && ix < w {
							row[i] = img[(c*h+iy)*w+ix]
						}
						i++
					}
				}
			}
		}
	}
}
