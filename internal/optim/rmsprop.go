package optim

import (
	"math"

	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// RMSProp implements the RMSProp optimizer with inverse-time learning
// rate decay, matching the classic Keras update rule:
//
//	acc  = rho * acc + (1 - rho) * grad²
//	lr_t = lr / (1 + decay * iterations)
//	param -= lr_t * grad / (sqrt(acc) + epsilon)
//
// The running average of squared gradients normalizes the step size per
// weight, which keeps the update magnitude stable across layers with very
// different gradient scales.
type RMSProp[B tensor.Backend] struct {
	params     []*nn.Parameter[B]
	lr         float32
	rho        float32
	epsilon    float32
	decay      float32
	iterations int

	// squared-gradient accumulators, lazily allocated per parameter
	accumulators map[*nn.Parameter[B]][]float32

	backend B
}

// RMSPropConfig holds RMSProp hyperparameters.
type RMSPropConfig struct {
	LR      float32 // learning rate (default 0.001)
	Rho     float32 // accumulator discount factor (default 0.9)
	Epsilon float32 // numerical stability constant (default 1e-7)
	Decay   float32 // inverse-time learning rate decay (default 0)
}

// NewRMSProp creates an RMSProp optimizer for the given parameters.
func NewRMSProp[B tensor.Backend](params []*nn.Parameter[B], config RMSPropConfig, backend B) *RMSProp[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-7
	}

	return &RMSProp[B]{
		params:       params,
		lr:           config.LR,
		rho:          config.Rho,
		epsilon:      config.Epsilon,
		decay:        config.Decay,
		accumulators: make(map[*nn.Parameter[B]][]float32),
		backend:      backend,
	}
}

// Step applies one RMSProp update to every parameter with a gradient.
func (r *RMSProp[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	lrT := r.currentLR()
	r.iterations++

	for _, param := range r.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		paramData := param.Tensor().Raw().AsFloat32()
		gradData := grad.AsFloat32()

		acc, ok := r.accumulators[param]
		if !ok {
			acc = make([]float32, len(paramData))
			r.accumulators[param] = acc
		}

		for i := range paramData {
			g := gradData[i]
			acc[i] = r.rho*acc[i] + (1-r.rho)*g*g
			paramData[i] -= lrT * g / (float32(math.Sqrt(float64(acc[i]))) + r.epsilon)
		}
	}
}

// currentLR returns the decayed learning rate for this step.
func (r *RMSProp[B]) currentLR() float32 {
	if r.decay == 0 {
		return r.lr
	}
	return r.lr / (1 + r.decay*float32(r.iterations))
}

// ZeroGrad clears gradients for all parameters.
func (r *RMSProp[B]) ZeroGrad() {
	for _, param := range r.params {
		param.ZeroGrad()
	}
}

// GetLR returns the current decayed learning rate.
func (r *RMSProp[B]) GetLR() float32 {
	return r.currentLR()
}

// Iterations returns the number of updates applied so far.
func (r *RMSProp[B]) Iterations() int {
	return r.iterations
}
