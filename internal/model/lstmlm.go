// Package model assembles nn layers into complete language models.
package model

import (
	"fmt"

	"github.com/fathom-ml/fathom/internal/nn"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// LSTMLMConfig describes an LSTM language model: embedding followed by
// a stacked LSTM and a linear decoder over the vocabulary, with
// dropout applied to the embedded inputs and the LSTM outputs.
type LSTMLMConfig struct {
	VocabSize  int
	EmbedDim   int
	HiddenSize int
	NumLayers  int
	Dropout    float32

	// InitRange bounds the uniform embedding initialization.
	// Zero selects the conventional 0.1.
	InitRange float32
}

// Standard word-level LM zoo presets: small, medium and large
// configurations distinguished by width and dropout.
func StandardLSTM200(vocabSize int) LSTMLMConfig {
	return LSTMLMConfig{VocabSize: vocabSize, EmbedDim: 200, HiddenSize: 200, NumLayers: 2, Dropout: 0.2}
}

func StandardLSTM650(vocabSize int) LSTMLMConfig {
	return LSTMLMConfig{VocabSize: vocabSize, EmbedDim: 650, HiddenSize: 650, NumLayers: 2, Dropout: 0.5}
}

func StandardLSTM1500(vocabSize int) LSTMLMConfig {
	return LSTMLMConfig{VocabSize: vocabSize, EmbedDim: 1500, HiddenSize: 1500, NumLayers: 2, Dropout: 0.65}
}

// LSTMLM is a word-level LSTM language model.
type LSTMLM[B tensor.Backend] struct {
	config  LSTMLMConfig
	embed   *nn.Embedding[B]
	dropIn  *nn.Dropout[B]
	lstm    *nn.LSTM[B]
	dropOut *nn.Dropout[B]
	decoder *nn.Linear[B]
}

// NewLSTMLM builds the model described by config on the given backend.
func NewLSTMLM[B tensor.Backend](config LSTMLMConfig, backend B) (*LSTMLM[B], error) {
	if config.VocabSize < 2 {
		return nil, fmt.Errorf("model: vocab size must be at least 2, got %d", config.VocabSize)
	}
	if config.EmbedDim < 1 || config.HiddenSize < 1 || config.NumLayers < 1 {
		return nil, fmt.Errorf("model: invalid geometry %d/%d/%d", config.EmbedDim, config.HiddenSize, config.NumLayers)
	}
	if config.InitRange == 0 {
		config.InitRange = 0.1
	}

	return &LSTMLM[B]{
		config:  config,
		embed:   nn.NewEmbedding[B](config.VocabSize, config.EmbedDim, config.InitRange, backend),
		dropIn:  nn.NewDropout[B](config.Dropout, backend),
		lstm:    nn.NewLSTM[B](config.EmbedDim, config.HiddenSize, config.NumLayers, backend),
		dropOut: nn.NewDropout[B](config.Dropout, backend),
		decoder: nn.NewLinear[B](config.HiddenSize, config.VocabSize, backend),
	}, nil
}

// Config returns the model configuration.
func (m *LSTMLM[B]) Config() LSTMLMConfig {
	return m.config
}

// InitState returns the zero recurrent carry for a batch size.
func (m *LSTMLM[B]) InitState(batchSize int) *nn.State[B] {
	return m.lstm.InitState(batchSize)
}

// Forward maps a time-major token batch [seqLen, batch] to logits
// [seqLen*batch, vocabSize] plus the updated carry. Rows of the logits
// follow the same time-major order as the flattened input, so targets
// flattened the same way line up with them one to one.
func (m *LSTMLM[B]) Forward(input *tensor.Tensor[int32, B], state *nn.State[B]) (*tensor.Tensor[float32, B], *nn.State[B]) {
	shape := input.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("model input must be [seqLen, batch], got shape %v", shape))
	}
	seqLen, batch := shape[0], shape[1]

	embedded := m.dropIn.Forward(m.embed.Forward(input)) // [seqLen, batch, embedDim]
	hidden, next := m.lstm.Forward(embedded, state)      // [seqLen, batch, hiddenSize]
	hidden = m.dropOut.Forward(hidden)

	logits := m.decoder.Forward(hidden.Reshape(seqLen*batch, m.config.HiddenSize))
	return logits, next
}

// Train puts dropout layers in training mode.
func (m *LSTMLM[B]) Train() {
	m.dropIn.SetTraining(true)
	m.dropOut.SetTraining(true)
}

// Eval disables dropout.
func (m *LSTMLM[B]) Eval() {
	m.dropIn.SetTraining(false)
	m.dropOut.SetTraining(false)
}

// Parameters returns every trainable parameter for the optimizer.
func (m *LSTMLM[B]) Parameters() []*nn.Parameter[B] {
	params := m.embed.Parameters()
	params = append(params, m.lstm.Parameters()...)
	params = append(params, m.decoder.Parameters()...)
	return params
}
