// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"math"
	"math/rand"
)

// augmentPadding is how many zero pixels are added on each side before
// the random crop. Crop offsets then range over [0, 2*augmentPadding].
const augmentPadding = 4

// augment applies the training-time distortions in place semantics-wise
// (a new image slice is returned): pad by 4 on each side, randomly crop
// back to the original size, then flip horizontally with probability 1/2.
// The output shape always equals the input shape.
func augment(image []float32, cfg Config, rng *rand.Rand) []float32 {
	padded := padImage(image, cfg, augmentPadding)
	cropped := cropImage(padded, cfg, augmentPadding, rng.Intn(2*augmentPadding+1), rng.Intn(2*augmentPadding+1))
	if rng.Intn(2) == 1 {
		flipHorizontal(cropped, cfg)
	}
	return cropped
}

// padImage surrounds an [H, W, D] image with pad zero pixels on each side.
func padImage(image []float32, cfg Config, pad int) []float32 {
	h, w, d := cfg.Height, cfg.Width, cfg.Depth
	outW := w + 2*pad
	out := make([]float32, (h+2*pad)*outW*d)

	for row := 0; row < h; row++ {
		src := image[row*w*d : (row+1)*w*d]
		dstStart := ((row+pad)*outW + pad) * d
		copy(out[dstStart:dstStart+w*d], src)
	}
	return out
}

// cropImage cuts an [H, W, D] window out of a padded image at the given
// top-left offset.
func cropImage(padded []float32, cfg Config, pad, offH, offW int) []float32 {
	h, w, d := cfg.Height, cfg.Width, cfg.Depth
	paddedW := w + 2*pad
	out := make([]float32, h*w*d)

	for row := 0; row < h; row++ {
		srcStart := ((row+offH)*paddedW + offW) * d
		copy(out[row*w*d:(row+1)*w*d], padded[srcStart:srcStart+w*d])
	}
	return out
}

// flipHorizontal mirrors an [H, W, D] image along the width axis in place.
func flipHorizontal(image []float32, cfg Config) {
	h, w, d := cfg.Height, cfg.Width, cfg.Depth
	for row := 0; row < h; row++ {
		for col := 0; col < w/2; col++ {
			left := (row*w + col) * d
			right := (row*w + (w - 1 - col)) * d
			for c := 0; c < d; c++ {
				image[left+c], image[right+c] = image[right+c], image[left+c]
			}
		}
	}
}

// standardize normalizes an image to zero mean and unit variance using
// its own statistics, not dataset-wide ones. The divisor is floored at
// 1/sqrt(N) so constant images do not blow up.
func standardize(image []float32) {
	n := float64(len(image))

	var mean float64
	for _, v := range image {
		mean += float64(v)
	}
	mean /= n

	var variance float64
	for _, v := range image {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= n

	std := math.Sqrt(variance)
	if minStd := 1 / math.Sqrt(n); std < minStd {
		std = minStd
	}

	for i, v := range image {
		image[i] = float32((float64(v) - mean) / std)
	}
}
