// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim is the public API for the optimizers.
package optim

import (
	"github.com/cifar-ml/cifarnet/internal/nn"
	"github.com/cifar-ml/cifarnet/internal/optim"
	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Optimizer is the interface shared by all optimizers.
type Optimizer = optim.Optimizer

// RMSProp is the RMSProp optimizer with inverse-time learning rate decay.
type RMSProp[B tensor.Backend] = optim.RMSProp[B]

// RMSPropConfig holds RMSProp hyperparameters.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates an RMSProp optimizer.
//
// Example:
//
//	opt := optim.NewRMSProp(model.Parameters(), optim.RMSPropConfig{
//	    LR:    0.0001,
//	    Decay: 1e-6,
//	}, backend)
func NewRMSProp[B tensor.Backend](params []*nn.Parameter[B], config RMSPropConfig, backend B) *RMSProp[B] {
	return optim.NewRMSProp(params, config, backend)
}

// SGD is stochastic gradient descent with optional momentum.
type SGD[B tensor.Backend] = optim.SGD[B]

// SGDConfig holds SGD hyperparameters.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return optim.NewSGD(params, config, backend)
}
