package nn

import (
	"fmt"
	"math"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// CategoricalCrossEntropy computes the mean cross-entropy between logits
// and one-hot targets.
//
// The loss expects raw logits: the softmax is fused into the loss for
// numerical stability (log-sum-exp trick) and for the simple gradient
// softmax(logits) - targets.
type CategoricalCrossEntropy[B tensor.Backend] struct {
	backend B
}

// NewCategoricalCrossEntropy creates the loss function.
func NewCategoricalCrossEntropy[B tensor.Backend](backend B) *CategoricalCrossEntropy[B] {
	return &CategoricalCrossEntropy[B]{backend: backend}
}

// crossEntropyBackend is implemented by autodiff-aware backends.
type crossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// Forward returns the scalar mean loss for a batch.
//
// logits:  [batch, classes]
// targets: [batch, classes] one-hot
func (c *CategoricalCrossEntropy[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	if adBackend, ok := any(c.backend).(crossEntropyBackend); ok {
		// Autodiff path: the fused op lands on the tape.
		raw := adBackend.CrossEntropy(logits.Raw(), targets.Raw())
		return tensor.New[float32, B](raw, c.backend)
	}

	// Plain backends get the loss value without gradient support.
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross-entropy: want 2D logits, got %v", shape))
	}
	if !targets.Shape().Equal(shape) {
		panic(fmt.Sprintf("cross-entropy: targets %v do not match logits %v", targets.Shape(), shape))
	}
	batch, classes := shape[0], shape[1]

	logitsData := logits.Raw().AsFloat32()
	targetsData := targets.Raw().AsFloat32()

	var total float32
	for b := 0; b < batch; b++ {
		row := logitsData[b*classes : (b+1)*classes]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float32
		for _, v := range row {
			sumExp += float32(math.Exp(float64(v - maxVal)))
		}
		logSumExp := maxVal + float32(math.Log(float64(sumExp)))

		for j, v := range row {
			if y := targetsData[b*classes+j]; y != 0 {
				total += -y * (v - logSumExp)
			}
		}
	}

	raw, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, c.backend.Device())
	if err != nil {
		panic(fmt.Sprintf("cross-entropy: %v", err))
	}
	raw.AsFloat32()[0] = total / float32(batch)
	return tensor.New[float32, B](raw, c.backend)
}
