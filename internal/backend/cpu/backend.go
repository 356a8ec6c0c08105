// Package cpu implements the CPU backend: pure Go float32 kernels with
// goroutine-parallel loops for the heavy operations.
package cpu

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/parallel"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend with the default worker configuration.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, func(x, y float32) float32 { return x / y })
}

// binary applies f element-wise over a and b with broadcasting.
func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, f func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("%s: unsupported dtypes %s, %s (only float32)", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()

	if !needsBroadcast {
		// Fast path: matching shapes. Run in place when a is the sole
		// reference to its buffer.
		if a.IsUnique() {
			for i := range aData {
				aData[i] = f(aData[i], bData[i])
			}
			return a
		}
		result := mustRaw(outShape, cpu.device)
		outData := result.AsFloat32()
		for i := range outData {
			outData[i] = f(aData[i], bData[i])
		}
		return result
	}

	result := mustRaw(outShape, cpu.device)
	outData := result.AsFloat32()
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(a.Shape(), outShape)
	bStrides := broadcastStrides(b.Shape(), outShape)

	for i := range outData {
		ai, bi := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			ai += coord * aStrides[d]
			bi += coord * bStrides[d]
		}
		outData[i] = f(aData[ai], bData[bi])
	}
	return result
}

// broadcastStrides returns strides for indexing a tensor of shape `in` as
// if it had shape `out`: broadcast dimensions get stride 0.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue // missing leading dim, stride 0
		}
		if in[d-offset] != 1 {
			strides[d] = inStrides[d-offset]
		}
	}
	return strides
}

// mustRaw allocates a float32 RawTensor or panics. The kernels validate
// shapes before allocation, so failure here is a programming error.
func mustRaw(shape tensor.Shape, device tensor.Device) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, tensor.Float32, device)
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to allocate tensor: %v", err))
	}
	return raw
}
