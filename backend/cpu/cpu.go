// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/tensor"
)

// Backend is the CPU backend implementation: pure Go kernels with
// chunked multi-core parallelism for elementwise and matmul paths.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend with parallelism sized from the CPU
// topology.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a CPU backend with parallel execution disabled,
// useful for debugging and reproducing kernel results.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
