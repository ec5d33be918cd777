// Copyright 2025 The Fathom ML Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	internal "github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] = internal.Module[B]

// Parameter is a trainable tensor with gradient tracking.
type Parameter[B tensor.Backend] = internal.Parameter[B]

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return internal.NewParameter(name, t)
}

// Linear is a fully connected layer: y = x W^T + b.
type Linear[B tensor.Backend] = internal.Linear[B]

// NewLinear creates a Linear layer with Xavier-initialized weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return internal.NewLinear(inFeatures, outFeatures, backend)
}

// Embedding is a lookup table mapping token ids to dense vectors.
type Embedding[B tensor.Backend] = internal.Embedding[B]

// NewEmbedding creates an Embedding with weights drawn from
// U(-bound, bound).
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, bound float32, backend B) *Embedding[B] {
	return internal.NewEmbedding(numEmbeddings, embeddingDim, bound, backend)
}

// LSTM is a stacked LSTM applied over time-major sequences.
type LSTM[B tensor.Backend] = internal.LSTM[B]

// State is the recurrent carry of an LSTM stack.
type State[B tensor.Backend] = internal.State[B]

// NewLSTM creates a stacked LSTM with fused gate weights.
func NewLSTM[B tensor.Backend](inputSize, hiddenSize, numLayers int, backend B) *LSTM[B] {
	return internal.NewLSTM(inputSize, hiddenSize, numLayers, backend)
}

// Dropout zeroes elements with probability p during training.
type Dropout[B tensor.Backend] = internal.Dropout[B]

// NewDropout creates a Dropout layer in training mode.
func NewDropout[B tensor.Backend](p float32, backend B) *Dropout[B] {
	return internal.NewDropout(p, backend)
}

// CrossEntropyLoss computes mean negative log-likelihood over logits.
type CrossEntropyLoss[B tensor.Backend] = internal.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates the criterion.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return internal.NewCrossEntropyLoss[B]()
}

// Sigmoid applies the logistic function elementwise.
func Sigmoid[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return internal.Sigmoid(x)
}

// Tanh applies the hyperbolic tangent elementwise.
func Tanh[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return internal.Tanh(x)
}
