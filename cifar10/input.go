// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/cifar-ml/cifarnet/internal/tensor"
)

// Batch is one minibatch of decoded examples ready for the model. Features
// maps the model's input name to an image tensor of shape
// [size, height, width, depth]; Labels holds the matching one-hot targets
// of shape [size, numClasses].
type Batch[B tensor.Backend] struct {
	Features map[string]*tensor.Tensor[float32, B]
	Labels   *tensor.Tensor[float32, B]
	Size     int
}

// Images returns the image tensor stored under the model's input name.
func (b *Batch[B]) Images() *tensor.Tensor[float32, B] {
	return b.Features[PredictInputs]
}

// Iterator yields batches from the dataset pipeline. A TRAIN iterator is
// infinite; an EVAL iterator returns io.EOF after one pass over the
// evaluation shard. Close releases the pipeline's files and goroutines.
type Iterator[B tensor.Backend] struct {
	source  exampleStream
	cfg     Config
	backend B
}

// NewInput builds the full dataset pipeline for mode and returns a batch
// iterator over it. The pipeline stages run lazily: records are decoded,
// augmented (TRAIN only), shuffled (TRAIN only), standardized, prefetched
// and finally gathered into batches as the caller consumes them.
func NewInput[B tensor.Backend](mode Mode, dataDir string, cfg Config, backend B) (*Iterator[B], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	files, err := Filenames(dataDir, mode, cfg)
	if err != nil {
		return nil, err
	}

	var stream exampleStream
	if mode == ModeTrain {
		stream = newRepeatStream(func() (exampleStream, error) {
			return newRecordReader(files, cfg), nil
		})

		rng := rand.New(rand.NewSource(cfg.sourceSeed(0))) //nolint:gosec // reproducible augmentation, not crypto
		stream = newMapStream(stream, func(ex example) example {
			ex.image = augment(ex.image, cfg, rng)
			return ex
		})

		shuffleRng := rand.New(rand.NewSource(cfg.sourceSeed(1))) //nolint:gosec // see above
		stream = newShuffleStream(stream, cfg.shuffleBuffer(), shuffleRng)
	} else {
		stream = newRecordReader(files, cfg)
	}

	stream = newMapStream(stream, func(ex example) example {
		standardize(ex.image)
		return ex
	})
	stream = newPrefetchStream(stream, cfg.prefetchDepth())

	return &Iterator[B]{source: stream, cfg: cfg, backend: backend}, nil
}

// TrainInput returns an infinite training iterator over the shard files
// under dataDir, with augmentation and shuffling enabled.
func TrainInput[B tensor.Backend](dataDir string, cfg Config, backend B) (*Iterator[B], error) {
	return NewInput(ModeTrain, dataDir, cfg, backend)
}

// EvalInput returns a single-pass evaluation iterator over the test shard
// under dataDir.
func EvalInput[B tensor.Backend](dataDir string, cfg Config, backend B) (*Iterator[B], error) {
	return NewInput(ModeEval, dataDir, cfg, backend)
}

// Next gathers up to cfg.BatchSize examples into the next batch. A final
// partial batch is returned as-is; io.EOF follows once the stream is
// exhausted.
func (it *Iterator[B]) Next() (*Batch[B], error) {
	imageSize := it.cfg.ImageSize()
	images := make([]float32, 0, it.cfg.BatchSize*imageSize)
	labels := make([]float32, 0, it.cfg.BatchSize*it.cfg.NumClasses)

	n := 0
	for n < it.cfg.BatchSize {
		ex, err := it.source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		images = append(images, ex.image...)
		labels = append(labels, ex.label...)
		n++
	}

	if n == 0 {
		return nil, io.EOF
	}

	imageShape := tensor.Shape{n, it.cfg.Height, it.cfg.Width, it.cfg.Depth}
	imageTensor, err := tensor.FromSlice(images, imageShape, it.backend)
	if err != nil {
		return nil, fmt.Errorf("cifar10: batch images: %w", err)
	}
	labelTensor, err := tensor.FromSlice(labels, tensor.Shape{n, it.cfg.NumClasses}, it.backend)
	if err != nil {
		return nil, fmt.Errorf("cifar10: batch labels: %w", err)
	}

	return &Batch[B]{
		Features: map[string]*tensor.Tensor[float32, B]{PredictInputs: imageTensor},
		Labels:   labelTensor,
		Size:     n,
	}, nil
}

// Close releases the underlying pipeline.
func (it *Iterator[B]) Close() error {
	return it.source.Close()
}
