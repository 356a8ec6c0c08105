// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"fmt"
	"os"
	"path/filepath"
)

// Filenames resolves the shard files for a mode: the five numbered
// data_batch files for TRAIN, the single test_batch file for EVAL.
//
// An unrecognized mode fails before any filesystem access. A missing
// batch directory fails with a message naming the required download and
// extraction step, since the pipeline never fetches data itself.
func Filenames(dataDir string, mode Mode, cfg Config) ([]string, error) {
	switch mode {
	case ModeTrain, ModeEval:
	default:
		return nil, fmt.Errorf("cifar10: invalid mode %v", mode)
	}

	batchDir := filepath.Join(dataDir, batchDirName)
	if _, err := os.Stat(batchDir); err != nil {
		return nil, fmt.Errorf(
			"cifar10: dataset directory %s not found: download and extract the CIFAR-10 binary archive into %s first: %w",
			batchDir, dataDir, err)
	}

	if mode == ModeEval {
		return []string{filepath.Join(batchDir, "test_batch.bin")}, nil
	}

	files := make([]string, 0, cfg.NumDataBatches)
	for i := 1; i <= cfg.NumDataBatches; i++ {
		files = append(files, filepath.Join(batchDir, fmt.Sprintf("data_batch_%d.bin", i)))
	}
	return files, nil
}

// example is one decoded record: an [H, W, D] float image flattened
// row-major and a one-hot label vector.
type example struct {
	image []float32
	label []float32
}

// parseRecord decodes one fixed-length record. The first byte is the
// class label; the remaining bytes are pixels in depth-major [D, H, W]
// order, transposed here to [H, W, D].
func parseRecord(record []byte, cfg Config) (example, error) {
	if len(record) != cfg.RecordSize() {
		return example{}, fmt.Errorf("cifar10: record is %d bytes, want %d", len(record), cfg.RecordSize())
	}

	labelByte := int(record[0])
	if labelByte >= cfg.NumClasses {
		return example{}, fmt.Errorf("cifar10: label %d out of range [0, %d)", labelByte, cfg.NumClasses)
	}

	label := make([]float32, cfg.NumClasses)
	label[labelByte] = 1

	pixels := record[1:]
	image := make([]float32, cfg.ImageSize())
	area := cfg.Height * cfg.Width
	for d := 0; d < cfg.Depth; d++ {
		for h := 0; h < cfg.Height; h++ {
			for w := 0; w < cfg.Width; w++ {
				image[(h*cfg.Width+w)*cfg.Depth+d] = float32(pixels[d*area+h*cfg.Width+w])
			}
		}
	}

	return example{image: image, label: label}, nil
}
