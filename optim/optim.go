// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/fathom-ml/fathom/internal/nn"
	internal "github.com/fathom-ml/fathom/internal/optim"
	"github.com/fathom-ml/fathom/tensor"
)

// Optimizer is the common interface for all optimizers.
type Optimizer = internal.Optimizer

// SGD is the stochastic gradient descent optimizer with optional
// momentum.
type SGD[B tensor.Backend] = internal.SGD[B]

// SGDConfig contains configuration for the SGD optimizer.
type SGDConfig = internal.SGDConfig

// NewSGD creates an SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR: 20,
//	}, backend)
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	return internal.NewSGD(params, config, backend)
}

// ClipGradNorm rescales parameter gradients in place so their joint
// global L2 norm does not exceed maxNorm, returning the pre-clip norm.
func ClipGradNorm[B tensor.Backend](params []*nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor, maxNorm float32) float32 {
	return internal.ClipGradNorm(params, grads, maxNorm)
}
