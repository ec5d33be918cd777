// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package train drives truncated-BPTT language model training with
// perplexity logging and validation-driven learning rate decay.
//
// Example:
//
//	trainer, err := train.New(train.Config{
//	    Epochs:    6,
//	    BatchSize: 64,
//	    BPTT:      35,
//	    LR:        20,
//	    Clip:      0.25,
//	}, model, corpus, backend)
//
//	result, err := trainer.Run(ctx)
package train

import (
	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/dataset"
	"github.com/fathom-ml/fathom/internal/model"
	internal "github.com/fathom-ml/fathom/internal/train"
)

// Config is the immutable training configuration.
type Config = internal.Config

// Result summarizes a completed run.
type Result = internal.Result

// Trainer owns the training loop state.
type Trainer[B autodiff.BackwardCapable] = internal.Trainer[B]

// New batchifies the corpus segments and prepares a Trainer.
func New[B autodiff.BackwardCapable](config Config, m *model.LSTMLM[B], corpus *dataset.Corpus, backend B) (*Trainer[B], error) {
	return internal.New(config, m, corpus, backend)
}
