// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cifar10

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHyperparamsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hyperparams.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHyperparameters_YAML(t *testing.T) {
	path := writeHyperparamsFile(t, "learning_rate: 0.001\ndecay: 1.0e-6\n")

	hp, err := LoadHyperparameters(path)
	require.NoError(t, err)

	lr, err := hp.Float(HyperLearningRate)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, lr, 1e-12)

	decay, err := hp.Float(HyperDecay)
	require.NoError(t, err)
	assert.InDelta(t, 1e-6, decay, 1e-15)
}

func TestLoadHyperparameters_JSON(t *testing.T) {
	path := writeHyperparamsFile(t, `{"learning_rate": 0.01, "decay": 0}`)

	hp, err := LoadHyperparameters(path)
	require.NoError(t, err)

	lr, err := hp.Float(HyperLearningRate)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, lr, 1e-12)
}

func TestLoadHyperparameters_MissingFile(t *testing.T) {
	_, err := LoadHyperparameters(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadHyperparameters_NonNumericValue(t *testing.T) {
	path := writeHyperparamsFile(t, "learning_rate: fast\n")

	_, err := LoadHyperparameters(path)
	assert.Error(t, err)
}
