// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Hyperparameters is the tuning map handed to the model builder by the
// training harness. Lookups have no defaults: the harness owns the
// values, and a silent fallback would hide a misconfigured job.
type Hyperparameters map[string]float64

// Hyperparameter keys the model builder requires.
const (
	HyperLearningRate = "learning_rate"
	HyperDecay        = "decay"
)

// Float returns the value for key or an error when the key is absent.
func (h Hyperparameters) Float(key string) (float64, error) {
	v, ok := h[key]
	if !ok {
		return 0, fmt.Errorf("hyperparameter %q not set", key)
	}
	return v, nil
}

// LoadHyperparameters reads a flat YAML (or JSON) mapping of
// hyperparameter names to numbers, e.g.
//
//	learning_rate: 0.001
//	decay: 1.0e-6
func LoadHyperparameters(path string) (Hyperparameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cifar10: read hyperparameters: %w", err)
	}

	var hp Hyperparameters
	if err := yaml.UnmarshalStrict(data, &hp); err != nil {
		return nil, fmt.Errorf("cifar10: parse hyperparameters %s: %w", path, err)
	}
	return hp, nil
}
