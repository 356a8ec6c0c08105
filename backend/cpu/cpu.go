// Copyright 2025 The CifarNet Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu is the public API for the CPU backend.
package cpu

import (
	"github.com/cifar-ml/cifarnet/internal/backend/cpu"
)

// CPUBackend computes tensor operations with pure Go float32 kernels.
type CPUBackend = cpu.CPUBackend

// New creates a CPU backend with the default worker configuration.
func New() *CPUBackend {
	return cpu.New()
}
