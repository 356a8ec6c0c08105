// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"fmt"

	"github.com/cifar-ml/cifarnet/internal/checkpoint"
	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/optim"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Model is the CIFAR-10 convolutional classifier together with its loss
// and optimizer.
//
// The backbone is a sequential stack of two convolutional blocks followed
// by a dense head:
//
//	conv 3x3 (same) -> relu -> conv 3x3 -> relu -> maxpool 2x2 -> dropout 0.25   (32 filters)
//	conv 3x3 (same) -> relu -> conv 3x3 -> relu -> maxpool 2x2 -> dropout 0.25   (64 filters)
//	flatten -> dense 512 -> relu -> dropout 0.5 -> dense 10
//
// The backbone emits logits; Predict appends a softmax for probability
// output, while training consumes the logits directly through the fused
// softmax cross-entropy loss.
type Model[B tensor.Backend] struct {
	backbone  *nn.Sequential[B]
	softmax   *nn.Softmax[B]
	loss      *nn.CategoricalCrossEntropy[B]
	optimizer *optim.RMSProp[B]
	cfg       Config
	backend   B
}

// BuildModel constructs and compiles the classifier.
//
// Both "learning_rate" and "decay" must be present in hp; a missing key is
// reported before any layer is built.
func BuildModel[B tensor.Backend](hp Hyperparameters, cfg Config, backend B) (*Model[B], error) {
	lr, err := hp.Float(HyperLearningRate)
	if err != nil {
		return nil, err
	}
	decay, err := hp.Float(HyperDecay)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	pooledH, pooledW := cfg.Height, cfg.Width
	for i := 0; i < 2; i++ {
		pooledH = (pooledH - 2) / 2 // unpadded 3x3 conv, then 2x2 pool
		pooledW = (pooledW - 2) / 2
	}
	flatFeatures := 64 * pooledH * pooledW

	backbone := nn.NewSequential(
		// Block 1: 32 filters.
		nn.NewConv2D(cfg.Depth, 32, 3, 1, 1, backend),
		nn.NewReLU[B](),
		nn.NewConv2D(32, 32, 3, 1, 0, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D[B](2, 2, backend),
		nn.NewDropoutWithSeed(0.25, cfg.sourceSeed(2), backend),

		// Block 2: 64 filters.
		nn.NewConv2D(32, 64, 3, 1, 1, backend),
		nn.NewReLU[B](),
		nn.NewConv2D(64, 64, 3, 1, 0, backend),
		nn.NewReLU[B](),
		nn.NewMaxPool2D[B](2, 2, backend),
		nn.NewDropoutWithSeed(0.25, cfg.sourceSeed(3), backend),

		// Dense head.
		nn.NewFlatten[B](),
		nn.NewLinear(flatFeatures, 512, backend),
		nn.NewReLU[B](),
		nn.NewDropoutWithSeed(0.5, cfg.sourceSeed(4), backend),
		nn.NewLinear(512, cfg.NumClasses, backend),
	)

	optimizer := optim.NewRMSProp(backbone.Parameters(), optim.RMSPropConfig{
		LR:    float32(lr),
		Decay: float32(decay),
	}, backend)

	return &Model[B]{
		backbone:  backbone,
		softmax:   nn.NewSoftmax[B](),
		loss:      nn.NewCategoricalCrossEntropy(backend),
		optimizer: optimizer,
		cfg:       cfg,
		backend:   backend,
	}, nil
}

// Logits runs the backbone on a batch of images in [batch, height, width,
// depth] layout and returns the unnormalized class scores.
func (m *Model[B]) Logits(images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	// Convolution kernels expect channels-first layout.
	nchw := images.Transpose(0, 3, 1, 2)
	return m.backbone.Forward(nchw)
}

// Predict returns class probabilities for a batch of images.
func (m *Model[B]) Predict(images *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return m.softmax.Forward(m.Logits(images))
}

// Loss returns the scalar mean categorical cross-entropy of logits against
// one-hot targets.
func (m *Model[B]) Loss(logits, targets *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return m.loss.Forward(logits, targets)
}

// Parameters returns every trainable parameter of the backbone.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	return m.backbone.Parameters()
}

// Optimizer returns the compiled RMSProp optimizer.
func (m *Model[B]) Optimizer() *optim.RMSProp[B] {
	return m.optimizer
}

// Train switches dropout layers to training behavior.
func (m *Model[B]) Train() {
	m.backbone.SetTraining(true)
}

// Eval switches dropout layers to pass-through behavior.
func (m *Model[B]) Eval() {
	m.backbone.SetTraining(false)
}

// InputName returns the feature key the model reads its images from.
func (m *Model[B]) InputName() string {
	return PredictInputs
}

// NumParameters returns the total number of trainable scalar values.
func (m *Model[B]) NumParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.Tensor().Shape().NumElements()
	}
	return total
}

// stateDict keys parameters by position and layer-local name, e.g.
// "0.conv2d.weight". Positions follow the backbone's module order, which
// is fixed by the architecture.
func (m *Model[B]) stateDict() map[string]*tensor.RawTensor {
	params := m.Parameters()
	dict := make(map[string]*tensor.RawTensor, len(params))
	for i, p := range params {
		dict[fmt.Sprintf("%d.%s", i, p.Name())] = p.Tensor().Raw()
	}
	return dict
}

// Save writes the model weights to a checkpoint file. step and loss
// record the training position, zero values for untrained exports.
func (m *Model[B]) Save(path string, step int, loss float64) error {
	return checkpoint.Save(path, "CifarNet", m.stateDict(), &checkpoint.TrainingMeta{
		Step: step,
		Loss: loss,
	})
}

// Load restores weights from a checkpoint into the model's parameters.
// Every parameter must be present with a matching shape.
func (m *Model[B]) Load(path string) error {
	stateDict, _, err := checkpoint.Load(path)
	if err != nil {
		return err
	}

	params := m.Parameters()
	for i, p := range params {
		key := fmt.Sprintf("%d.%s", i, p.Name())
		raw, ok := stateDict[key]
		if !ok {
			return fmt.Errorf("cifar10: checkpoint missing parameter %s", key)
		}
		dst := p.Tensor().Raw()
		if !raw.Shape().Equal(dst.Shape()) {
			return fmt.Errorf("cifar10: parameter %s has shape %v, checkpoint holds %v", key, dst.Shape(), raw.Shape())
		}
		copy(dst.AsFloat32(), raw.AsFloat32())
	}
	return nil
}

func (m *Model[B]) String() string {
	return fmt.Sprintf("CifarNet(\n%v\n)", m.backbone)
}
