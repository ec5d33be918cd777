// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training.
//
// # Overview
//
// This package contains:
//   - SGD: stochastic gradient descent with momentum and a mutable
//     learning rate for plateau schedules
//   - ClipGradNorm: global-norm gradient clipping
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 20}, backend)
//
//	for epoch := 0; epoch < epochs; epoch++ {
//	    grads := autodiff.Backward(loss, backend)
//	    optim.ClipGradNorm(model.Parameters(), grads, 0.25)
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim
