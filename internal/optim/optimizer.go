// Package optim implements the optimizers used to train the classifier.
//
// Optimizers consume the gradient map produced by autodiff.Backward and
// update parameters in place:
//
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	optimizer.ZeroGrad()
package optim

import (
	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Optimizer is the interface shared by all optimization algorithms.
type Optimizer interface {
	// Step applies one gradient update to all parameters. Parameters
	// without an entry in the gradient map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current effective learning rate.
	GetLR() float32
}

// getGradient looks up the gradient recorded for a parameter's tensor.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}
