package ops

import (
	"fmt"
	"math"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// CrossEntropyOp records categorical cross-entropy between logits and
// one-hot targets, fused with the softmax.
//
// Forward:
//
//	loss = mean_b( -Σ_j y[b,j] * log_softmax(logits[b])[j] )
//
// Backward:
//
//	dL/dlogits[b,j] = (softmax(logits[b])[j] - y[b,j]) / batch_size
//
// The fusion is what keeps the gradient this simple; computing softmax and
// the log loss as separate tape ops would be both slower and less stable.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor // [batch, classes]
	targets *tensor.RawTensor // [batch, classes] one-hot, not differentiated
	output  *tensor.RawTensor // scalar mean loss
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns [logits]. Targets carry no gradient.
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// Backward computes the logits gradient (softmax - target) / batch, scaled
// by the upstream gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]

	grad, err := tensor.NewRaw(shape, op.logits.DType(), op.logits.Device())
	if err != nil {
		panic(fmt.Sprintf("cross-entropy backward: %v", err))
	}

	logits := op.logits.AsFloat32()
	targets := op.targets.AsFloat32()
	gradData := grad.AsFloat32()
	gradScale := outputGrad.AsFloat32()[0]

	probs := make([]float32, classes)
	for b := 0; b < batch; b++ {
		base := b * classes
		rowSoftmax(logits[base:base+classes], probs)
		for j := 0; j < classes; j++ {
			gradData[base+j] = gradScale * (probs[j] - targets[base+j]) / float32(batch)
		}
	}

	return []*tensor.RawTensor{grad}
}

// CrossEntropyForward computes the mean categorical cross-entropy loss of
// logits against one-hot targets using the log-sum-exp trick.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("cross-entropy: want 2D logits, got %v", shape))
	}
	if !targets.Shape().Equal(shape) {
		panic(fmt.Sprintf("cross-entropy: targets %v do not match logits %v", targets.Shape(), shape))
	}
	batch, classes := shape[0], shape[1]

	output, err := tensor.NewRaw(tensor.Shape{1}, logits.DType(), device)
	if err != nil {
		panic(fmt.Sprintf("cross-entropy: %v", err))
	}

	logitsData := logits.AsFloat32()
	targetsData := targets.AsFloat32()

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

	output.AsFloat32()[0] = total / float32(batch)
	return output
}
