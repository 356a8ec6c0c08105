// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

// TensorSpec describes the shape and element type of one serving input. A
// -1 dimension accepts any extent at request time.
type TensorSpec struct {
	Shape []int
	DType string
}

// ServingInputReceiver names the placeholder tensors an exported model
// accepts at inference time.
type ServingInputReceiver struct {
	Features map[string]TensorSpec
}

// ServingInput describes the inference-time input surface: a single image
// placeholder of [batch, height, width, depth] with an unconstrained
// batch dimension, keyed by the same name the model reads its features
// from during training.
func ServingInput(cfg Config) ServingInputReceiver {
	return ServingInputReceiver{
		Features: map[string]TensorSpec{
			PredictInputs: {
				Shape: []int{-1, cfg.Height, cfg.Width, cfg.Depth},
				DType: "float32",
			},
		},
	}
}
