// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend with a gradient tape that records operations
// during the forward pass and replays them in reverse to accumulate
// gradients.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//
//	loss := model.Forward(batch)
//	grads := autodiff.Backward(loss, backend)
package autodiff

import (
	internal "github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/tensor"
)

// AutodiffBackend decorates an inner backend with gradient recording.
type AutodiffBackend[B tensor.Backend] = internal.AutodiffBackend[B]

// GradientTape records operations for the backward pass.
type GradientTape = internal.GradientTape

// BackwardCapable is satisfied by backends that can run a backward
// pass; AutodiffBackend implements it.
type BackwardCapable = internal.BackwardCapable

// New wraps a backend with autodiff capabilities. Recording starts
// disabled; call Tape().StartRecording() before the forward pass.
func New[B tensor.Backend](inner B) *AutodiffBackend[B] {
	return internal.New(inner)
}

// Backward computes gradients of t with respect to every tensor on the
// backend's tape, seeding the output gradient with ones. The result is
// keyed by RawTensor identity.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return internal.Backward(t, backend)
}
