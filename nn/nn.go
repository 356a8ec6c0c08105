// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn is the public API for the neural network building blocks:
// layers, activations, the Sequential container, the categorical
// cross-entropy loss, and the accuracy metric.
package nn

import (
	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Module is the common interface of all network components.
type Module[B tensor.Backend] = nn.Module[B]

// TrainingAware is implemented by modules that behave differently during
// training, such as Dropout.
type TrainingAware = nn.TrainingAware

// Parameter is a named trainable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter around an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a dense layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// Conv2D is a 2D convolutional layer with a square kernel.
type Conv2D[B tensor.Backend] = nn.Conv2D[B]

// NewConv2D creates a convolutional layer.
//
// Example:
//
//	conv := nn.NewConv2D(3, 32, 3, 1, 1, backend) // 3->32 channels, 3x3 kernel, same padding
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// MaxPool2D is a 2D max pooling layer.
type MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]

// NewMaxPool2D creates a pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// Dropout randomly zeroes activations during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout layer with the given drop rate.
func NewDropout[B tensor.Backend](rate float64, backend B) *Dropout[B] {
	return nn.NewDropout(rate, backend)
}

// NewDropoutWithSeed creates a dropout layer with a deterministic mask
// sequence.
func NewDropoutWithSeed[B tensor.Backend](rate float64, seed int64, backend B) *Dropout[B] {
	return nn.NewDropoutWithSeed(rate, seed, backend)
}

// Flatten collapses all non-batch dimensions.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return nn.NewFlatten[B]()
}

// Activations

// ReLU is the rectified linear activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Softmax converts logits to class probabilities.
type Softmax[B tensor.Backend] = nn.Softmax[B]

// NewSoftmax creates a Softmax activation module.
func NewSoftmax[B tensor.Backend]() *Softmax[B] {
	return nn.NewSoftmax[B]()
}

// Container

// Sequential chains modules output-to-input.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Loss and metrics

// CategoricalCrossEntropy is the mean cross-entropy of logits against
// one-hot targets.
type CategoricalCrossEntropy[B tensor.Backend] = nn.CategoricalCrossEntropy[B]

// NewCategoricalCrossEntropy creates the loss function.
func NewCategoricalCrossEntropy[B tensor.Backend](backend B) *CategoricalCrossEntropy[B] {
	return nn.NewCategoricalCrossEntropy(backend)
}

// Accuracy returns the fraction of predictions whose argmax matches the
// one-hot targets.
func Accuracy[B tensor.Backend](predictions, targets *tensor.Tensor[float32, B]) float64 {
	return nn.Accuracy(predictions, targets)
}

// Initializers

// Xavier returns a Glorot-uniform initialized tensor.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Xavier(fanIn, fanOut, shape, backend)
}

// Zeros returns a zero-filled tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}
