// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"errors"
	"fmt"
	"io"

	"github.com/cifar-ml/cifarnet/internal/autodiff"
	"github.com/cifar-ml/cifarnet/internal/nn"
)

// FitResult summarizes a training run.
type FitResult struct {
	Steps     int
	FinalLoss float32
}

// EvalResult summarizes one pass over the evaluation shard.
type EvalResult struct {
	Loss     float32
	Accuracy float64
	Examples int
}

// Fit runs steps optimization steps of the model against an infinite
// training iterator. onStep, if non-nil, is called after every step with
// the batch loss.
func Fit[B autodiff.BackwardCapable](model *Model[B], data *Iterator[B], steps int, onStep func(step int, loss float32)) (*FitResult, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("cifar10: steps must be positive, got %d", steps)
	}

	tape := model.backend.GetTape()
	tape.StartRecording()
	defer tape.StopRecording()

	model.Train()
	defer model.Eval()

	optimizer := model.Optimizer()
	var lastLoss float32

	for step := 1; step <= steps; step++ {
		batch, err := data.Next()
		if err != nil {
			return nil, fmt.Errorf("cifar10: training step %d: %w", step, err)
		}

		optimizer.ZeroGrad()
		tape.Clear()

		logits := model.Logits(batch.Images())
		loss := model.Loss(logits, batch.Labels)
		lastLoss = loss.Raw().AsFloat32()[0]

		grads := autodiff.Backward(loss, model.backend)
		optimizer.Step(grads)
		tape.Clear()

		if onStep != nil {
			onStep(step, lastLoss)
		}
	}

	return &FitResult{Steps: steps, FinalLoss: lastLoss}, nil
}

// Evaluate consumes the iterator to exhaustion, reporting mean loss and
// accuracy over all evaluation examples. Recording is suspended for the
// duration so evaluation leaves no trace on the tape.
func Evaluate[B autodiff.BackwardCapable](model *Model[B], data *Iterator[B]) (*EvalResult, error) {
	tape := model.backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		if wasRecording {
			tape.StartRecording()
		}
	}()

	model.Eval()

	var totalLoss float64
	var totalCorrect float64
	examples := 0

	for {
		batch, err := data.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cifar10: evaluation: %w", err)
		}

		logits := model.Logits(batch.Images())
		loss := model.Loss(logits, batch.Labels)

		totalLoss += float64(loss.Raw().AsFloat32()[0]) * float64(batch.Size)
		totalCorrect += nn.Accuracy(logits, batch.Labels) * float64(batch.Size)
		examples += batch.Size
	}

	if examples == 0 {
		return nil, fmt.Errorf("cifar10: evaluation dataset is empty")
	}

	return &EvalResult{
		Loss:     float32(totalLoss / float64(examples)),
		Accuracy: totalCorrect / float64(examples),
		Examples: examples,
	}, nil
}
