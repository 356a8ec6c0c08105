package nn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Xavier returns a tensor initialized with Glorot uniform values:
// U(-b, b) with b = sqrt(6 / (fanIn + fanOut)). This keeps activation
// variance roughly constant across layers.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		panic(fmt.Sprintf("xavier init: %v", err))
	}

	data := raw.AsFloat32()
	for i := range data {
		//nolint:gosec // weight initialization, not security-critical
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}

	return tensor.New[float32, B](raw, backend)
}

// Zeros returns a zero-filled tensor, the usual bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones returns a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
