// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers for language modeling.
//
// # Overview
//
// This package contains:
//   - Embedding, Linear, LSTM, Dropout layers
//   - CrossEntropyLoss criterion
//   - Parameter with gradient tracking and the Module interface
//
// # Basic Usage
//
//	backend := autodiff.New(cpu.New())
//	lstm := nn.NewLSTM[Backend](200, 200, 2, backend)
//	state := lstm.InitState(batchSize)
//
//	out, state := lstm.Forward(embedded, state)
//	state = state.Detach() // truncate BPTT at the window boundary
package nn
