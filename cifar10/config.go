// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cifar10 implements a convolutional classifier and input pipeline
// for the CIFAR-10 dataset: a model builder compiled with RMSProp and
// categorical cross-entropy, a lazy batched dataset pipeline over the
// binary shard files, and the serving input contract shared with
// inference.
package cifar10

import (
	"fmt"
	"math/rand"
)

// PredictInputs is the well-known tensor key shared between the model's
// input, the serving input receiver, and the feature map emitted by the
// dataset pipeline. All three must agree on this name.
const PredictInputs = "inputs"

// batchDirName is the subdirectory the extracted CIFAR-10 binary archive
// creates under the data directory.
const batchDirName = "cifar-10-batches-bin"

// Mode selects which dataset split a pipeline reads.
type Mode int

// Dataset modes.
const (
	ModeTrain Mode = iota
	ModeEval
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeTrain:
		return "TRAIN"
	case ModeEval:
		return "EVAL"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config carries the fixed dataset and pipeline dimensions. The values
// are properties of the CIFAR-10 binary format and the training setup,
// passed explicitly to each stage instead of living in package globals.
type Config struct {
	Height     int // image rows
	Width      int // image columns
	Depth      int // color channels
	NumClasses int

	BatchSize        int
	NumDataBatches   int // training shard file count
	ExamplesPerEpoch int

	// ShuffleBuffer is the number of examples the shuffle stage holds.
	// Zero means use the default heuristic of 40% of an epoch plus
	// three batches.
	ShuffleBuffer int

	// PrefetchDepth is how many decoded examples the pipeline keeps
	// ready ahead of the consumer. Zero means two batches.
	PrefetchDepth int

	// Seed makes augmentation and shuffling deterministic when nonzero.
	Seed int64
}

// DefaultConfig returns the standard CIFAR-10 configuration.
func DefaultConfig() Config {
	return Config{
		Height:           32,
		Width:            32,
		Depth:            3,
		NumClasses:       10,
		BatchSize:        128,
		NumDataBatches:   5,
		ExamplesPerEpoch: 50000,
	}
}

// RecordSize returns the byte length of one labeled image record: a label
// byte followed by depth-major pixel bytes.
func (c Config) RecordSize() int {
	return 1 + c.Height*c.Width*c.Depth
}

// ImageSize returns the number of pixel values per image.
func (c Config) ImageSize() int {
	return c.Height * c.Width * c.Depth
}

// shuffleBuffer resolves the configured or default shuffle buffer size.
func (c Config) shuffleBuffer() int {
	if c.ShuffleBuffer > 0 {
		return c.ShuffleBuffer
	}
	return int(0.4*float64(c.ExamplesPerEpoch)) + 3*c.BatchSize
}

// sourceSeed derives the seed for one random source. A nonzero Seed gives
// every run the same sequence; offset separates the sources (augmentation,
// shuffling, dropout layers) so they do not mirror each other. Unseeded
// configurations draw a fresh seed per source.
func (c Config) sourceSeed(offset int64) int64 {
	if c.Seed != 0 {
		return c.Seed + offset
	}
	return rand.Int63() //nolint:gosec // run-to-run variation, not crypto
}

// prefetchDepth resolves the configured or default prefetch depth.
func (c Config) prefetchDepth() int {
	if c.PrefetchDepth > 0 {
		return c.PrefetchDepth
	}
	return 2 * c.BatchSize
}

// validate rejects configurations the pipeline cannot serve.
func (c Config) validate() error {
	if c.Height <= 0 || c.Width <= 0 || c.Depth <= 0 {
		return fmt.Errorf("cifar10: invalid image dimensions %dx%dx%d", c.Height, c.Width, c.Depth)
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("cifar10: invalid class count %d", c.NumClasses)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("cifar10: invalid batch size %d", c.BatchSize)
	}
	if c.NumDataBatches <= 0 {
		return fmt.Errorf("cifar10: invalid shard count %d", c.NumDataBatches)
	}
	return nil
}
