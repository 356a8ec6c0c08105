package nn

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Accuracy returns the fraction of rows where the argmax of the
// predictions matches the argmax of the one-hot targets.
//
// predictions: [batch, classes] (probabilities or logits; argmax is the
// same either way)
// targets:     [batch, classes] one-hot
func Accuracy[B tensor.Backend](predictions, targets *tensor.Tensor[float32, B]) float64 {
	shape := predictions.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("accuracy: want 2D predictions, got %v", shape))
	}
	if !targets.Shape().Equal(shape) {
		panic(fmt.Sprintf("accuracy: targets %v do not match predictions %v", targets.Shape(), shape))
	}

	batch, classes := shape[0], shape[1]
	predData := predictions.Raw().AsFloat32()
	targetData := targets.Raw().AsFloat32()

	correct := 0
	for b := 0; b < batch; b++ {
		base := b * classes
		if argmaxRow(predData[base:base+classes]) == argmaxRow(targetData[base:base+classes]) {
			correct++
		}
	}
	return float64(correct) / float64(batch)
}

func argmaxRow(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
