package nn

import (
	"fmt"
	"math/rand"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Dropout randomly zeroes elements of the input during training with
// probability rate, scaling the survivors by 1/(1-rate) so the expected
// activation magnitude stays constant (inverted dropout). During
// evaluation it is the identity.
//
// The mask is applied with a recorded multiplication, so the backward
// pass drops the same elements without a dedicated gradient op.
type Dropout[B tensor.Backend] struct {
	rate     float64
	training bool
	rng      *rand.Rand
	backend  B
}

// NewDropout creates a dropout layer. rate must be in [0, 1).
func NewDropout[B tensor.Backend](rate float64, backend B) *Dropout[B] {
	return NewDropoutWithSeed(rate, rand.Int63(), backend)
}

// NewDropoutWithSeed creates a dropout layer with a deterministic mask
// sequence, for reproducible training runs.
func NewDropoutWithSeed[B tensor.Backend](rate float64, seed int64, backend B) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		panic(fmt.Sprintf("dropout: rate %v outside [0, 1)", rate))
	}
	return &Dropout[B]{
		rate:    rate,
		rng:     rand.New(rand.NewSource(seed)),
		backend: backend,
	}
}

// SetTraining toggles between training and inference behavior.
func (d *Dropout[B]) SetTraining(training bool) {
	d.training = training
}

// Training reports whether the layer is in training mode.
func (d *Dropout[B]) Training() bool { return d.training }

// Rate returns the drop probability.
func (d *Dropout[B]) Rate() float64 { return d.rate }

// Forward applies the dropout mask in training mode and is a no-op
// otherwise.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.rate == 0 {
		return input
	}

	maskRaw, err := tensor.NewRaw(input.Shape(), tensor.Float32, d.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("dropout: %v", err))
	}

	scale := float32(1.0 / (1.0 - d.rate))
	mask := maskRaw.AsFloat32()
	for i := range mask {
		if d.rng.Float64() >= d.rate {
			mask[i] = scale
		}
	}

	return input.Mul(tensor.New[float32, B](maskRaw, d.backend))
}

// Parameters returns nil; the mask is not trainable.
func (d *Dropout[B]) Parameters() []*Parameter[B] { return nil }

// String describes the layer.
func (d *Dropout[B]) String() string {
	return fmt.Sprintf("Dropout(rate=%v)", d.rate)
}
