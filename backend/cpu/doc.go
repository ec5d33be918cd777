// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU compute backend.
//
// # Overview
//
// The CPU backend implements every tensor.Backend operation in pure Go:
//   - broadcast elementwise arithmetic with an in-place fast path
//   - parallel blocked matrix multiplication
//   - reductions, shape manipulation, concatenation and chunking
//   - embedding lookup for token indices
//
// Worker counts and chunk sizes derive from the CPU topology reported
// by klauspost/cpuid.
//
// # Basic Usage
//
//	backend := cpu.New()
//	x := tensor.Randn[float32](tensor.Shape{128, 128}, backend)
//	y := x.MatMul(x)
package cpu
