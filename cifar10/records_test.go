// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// smallConfig is compact enough to hand-check transposes and crops.
func smallConfig() Config {
	return Config{
		Height:           2,
		Width:            2,
		Depth:            3,
		NumClasses:       10,
		BatchSize:        4,
		NumDataBatches:   2,
		ExamplesPerEpoch: 8,
		Seed:             1,
	}
}

func TestFilenames_Train(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dataDir, batchDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Filenames(dataDir, ModeTrain, DefaultConfig())
	if err != nil {
		t.Fatalf("Filenames failed: %v", err)
	}
	if len(files) != 5 {
		t.Fatalf("want 5 training shards, got %d", len(files))
	}
	for i, f := range files {
		want := filepath.Join(dataDir, batchDirName, fmt.Sprintf("data_batch_%d.bin", i+1))
		if f != want {
			t.Errorf("shard %d: got %s, want %s", i, f, want)
		}
	}
}

func TestFilenames_Eval(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dataDir, batchDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Filenames(dataDir, ModeEval, DefaultConfig())
	if err != nil {
		t.Fatalf("Filenames failed: %v", err)
	}
	want := []string{filepath.Join(dataDir, batchDirName, "test_batch.bin")}
	if len(files) != 1 || files[0] != want[0] {
		t.Errorf("got %v, want %v", files, want)
	}
}

func TestFilenames_InvalidModeBeforeIO(t *testing.T) {
	// The directory does not exist: the mode check must win.
	_, err := Filenames("/nonexistent", Mode(99), DefaultConfig())
	if err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Errorf("want invalid mode error, got %v", err)
	}
}

func TestFilenames_MissingDirectory(t *testing.T) {
	_, err := Filenames(t.TempDir(), ModeTrain, DefaultConfig())
	if err == nil {
		t.Fatal("want error for missing batch directory")
	}
	if !strings.Contains(err.Error(), "download and extract") {
		t.Errorf("error should name the extraction step, got: %v", err)
	}
}

func TestParseRecord_TransposesDepthMajor(t *testing.T) {
	cfg := smallConfig()

	// Pixels laid out depth-major: channel 0 holds 0..3, channel 1
	// holds 10..13, channel 2 holds 20..23.
	record := make([]byte, cfg.RecordSize())
	record[0] = 7
	for d := 0; d < cfg.Depth; d++ {
		for i := 0; i < 4; i++ {
			record[1+d*4+i] = byte(10*d + i)
		}
	}

	ex, err := parseRecord(record, cfg)
	if err != nil {
		t.Fatalf("parseRecord failed: %v", err)
	}

	// [H, W, D] layout interleaves the channels per pixel.
	wantImage := []float32{
		0, 10, 20, 1, 11, 21,
		2, 12, 22, 3, 13, 23,
	}
	for i, want := range wantImage {
		if ex.image[i] != want {
			t.Errorf("image[%d] = %v, want %v", i, ex.image[i], want)
		}
	}

	for i, v := range ex.label {
		want := float32(0)
		if i == 7 {
			want = 1
		}
		if v != want {
			t.Errorf("label[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestParseRecord_LabelOutOfRange(t *testing.T) {
	cfg := smallConfig()
	record := make([]byte, cfg.RecordSize())
	record[0] = byte(cfg.NumClasses)

	if _, err := parseRecord(record, cfg); err == nil {
		t.Error("want error for out-of-range label")
	}
}

func TestParseRecord_WrongLength(t *testing.T) {
	cfg := smallConfig()
	if _, err := parseRecord(make([]byte, cfg.RecordSize()-1), cfg); err == nil {
		t.Error("want error for short record")
	}
}

func TestAugment_PreservesShape(t *testing.T) {
	cfg := smallConfig()
	rng := rand.New(rand.NewSource(42))
	image := make([]float32, cfg.ImageSize())
	for i := range image {
		image[i] = float32(i)
	}

	for trial := 0; trial < 20; trial++ {
		out := augment(image, cfg, rng)
		if len(out) != cfg.ImageSize() {
			t.Fatalf("trial %d: augmented image has %d values, want %d", trial, len(out), cfg.ImageSize())
		}
	}
}

func TestCrop_CenterOffsetRecoversOriginal(t *testing.T) {
	cfg := smallConfig()
	image := make([]float32, cfg.ImageSize())
	for i := range image {
		image[i] = float32(i + 1)
	}

	padded := padImage(image, cfg, augmentPadding)
	cropped := cropImage(padded, cfg, augmentPadding, augmentPadding, augmentPadding)

	for i := range image {
		if cropped[i] != image[i] {
			t.Fatalf("cropped[%d] = %v, want %v", i, cropped[i], image[i])
		}
	}
}

func TestFlipHorizontal(t *testing.T) {
	cfg := smallConfig()
	image := []float32{
		0, 10, 20, 1, 11, 21,
		2, 12, 22, 3, 13, 23,
	}
	flipHorizontal(image, cfg)

	want := []float32{
		1, 11, 21, 0, 10, 20,
		3, 13, 23, 2, 12, 22,
	}
	for i := range want {
		if image[i] != want[i] {
			t.Errorf("image[%d] = %v, want %v", i, image[i], want[i])
		}
	}
}

func TestStandardize_ZeroMeanUnitStd(t *testing.T) {
	image := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	standardize(image)

	var mean, variance float64
	for _, v := range image {
		mean += float64(v)
	}
	mean /= float64(len(image))
	for _, v := range image {
		d := float64(v) - mean
		variance += d * d
	}
	variance /= float64(len(image))

	if math.Abs(mean) > 1e-6 {
		t.Errorf("mean = %v, want 0", mean)
	}
	if math.Abs(math.Sqrt(variance)-1) > 1e-5 {
		t.Errorf("std = %v, want 1", math.Sqrt(variance))
	}
}

func TestStandardize_ConstantImage(t *testing.T) {
	image := []float32{5, 5, 5, 5}
	standardize(image)

	for i, v := range image {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("image[%d] = %v after standardizing constant image", i, v)
		}
		if v != 0 {
			t.Errorf("image[%d] = %v, want 0", i, v)
		}
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.RecordSize(); got != 3073 {
		t.Errorf("RecordSize() = %d, want 3073", got)
	}
	if got := cfg.ImageSize(); got != 3072 {
		t.Errorf("ImageSize() = %d, want 3072", got)
	}
	// 40% of an epoch plus three batches.
	if got := cfg.shuffleBuffer(); got != 20384 {
		t.Errorf("shuffleBuffer() = %d, want 20384", got)
	}
	if got := cfg.prefetchDepth(); got != 256 {
		t.Errorf("prefetchDepth() = %d, want 256", got)
	}

	cfg.ShuffleBuffer = 100
	cfg.PrefetchDepth = 7
	if got := cfg.shuffleBuffer(); got != 100 {
		t.Errorf("shuffleBuffer() override = %d, want 100", got)
	}
	if got := cfg.prefetchDepth(); got != 7 {
		t.Errorf("prefetchDepth() override = %d, want 7", got)
	}
}

func TestHyperparameters_MissingKey(t *testing.T) {
	hp := Hyperparameters{HyperLearningRate: 0.001}

	if _, err := hp.Float(HyperLearningRate); err != nil {
		t.Errorf("present key failed: %v", err)
	}
	_, err := hp.Float(HyperDecay)
	if err == nil || !strings.Contains(err.Error(), "decay") {
		t.Errorf("want error naming the missing key, got %v", err)
	}
}

func TestServingInput_MatchesModelInputName(t *testing.T) {
	cfg := DefaultConfig()
	receiver := ServingInput(cfg)

	spec, ok := receiver.Features[PredictInputs]
	if !ok {
		t.Fatalf("serving input missing feature %q", PredictInputs)
	}

	want := []int{-1, 32, 32, 3}
	if len(spec.Shape) != len(want) {
		t.Fatalf("shape = %v, want %v", spec.Shape, want)
	}
	for i := range want {
		if spec.Shape[i] != want[i] {
			t.Errorf("shape[%d] = %d, want %d", i, spec.Shape[i], want[i])
		}
	}
	if spec.DType != "float32" {
		t.Errorf("dtype = %q, want float32", spec.DType)
	}
}
