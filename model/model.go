// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package model provides complete language model architectures.
//
// Example:
//
//	m, err := model.NewLSTMLM[Backend](model.StandardLSTM200(vocabSize), backend)
//	logits, state := m.Forward(input, m.InitState(batchSize))
package model

import (
	internal "github.com/fathom-ml/fathom/internal/model"
	"github.com/fathom-ml/fathom/tensor"
)

// LSTMLM is a word-level LSTM language model: embedding, dropout,
// stacked LSTM, dropout and a linear decoder over the vocabulary.
type LSTMLM[B tensor.Backend] = internal.LSTMLM[B]

// LSTMLMConfig describes the model geometry.
type LSTMLMConfig = internal.LSTMLMConfig

// NewLSTMLM builds the model described by config on the given backend.
func NewLSTMLM[B tensor.Backend](config LSTMLMConfig, backend B) (*LSTMLM[B], error) {
	return internal.NewLSTMLM[B](config, backend)
}

// Standard word-LM zoo presets.
func StandardLSTM200(vocabSize int) LSTMLMConfig  { return internal.StandardLSTM200(vocabSize) }
func StandardLSTM650(vocabSize int) LSTMLMConfig  { return internal.StandardLSTM650(vocabSize) }
func StandardLSTM1500(vocabSize int) LSTMLMConfig { return internal.StandardLSTM1500(vocabSize) }
