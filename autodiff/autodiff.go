// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff is the public API for automatic differentiation.
//
// Wrap any backend to record a gradient tape:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := model.Forward(input)
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	"github.com/cifar-ml/cifarnet/internal/autodiff"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// AutodiffBackend decorates a backend with gradient tracking.
type AutodiffBackend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records operations for reverse-mode differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is satisfied by backends carrying a gradient tape.
type BackwardCapable = autodiff.BackwardCapable

// New wraps a backend with autodiff support.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return autodiff.New(backend)
}

// Backward seeds the output gradient with ones and walks the tape,
// returning gradients keyed by tensor.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
