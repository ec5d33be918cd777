package nn

import (
	"fmt"
	"math"

	"github.com/fathom-ml/fathom/internal/tensor"
)

// State holds the recurrent carry of a stacked LSTM: one hidden and
// one cell tensor per layer, each [batchSize, hiddenSize].
type State[B tensor.Backend] struct {
	H []*tensor.Tensor[float32, B]
	C []*tensor.Tensor[float32, B]
}

// Detach returns a copy of the state whose tensors no longer
// participate in gradient recording. Passing the detached state into
// the next window truncates backpropagation at the window boundary.
func (s *State[B]) Detach() *State[B] {
	out := &State[B]{
		H: make([]*tensor.Tensor[float32, B], len(s.H)),
		C: make([]*tensor.Tensor[float32, B], len(s.C)),
	}
	for i := range s.H {
		out.H[i] = s.H[i].Detach()
		out.C[i] = s.C[i].Detach()
	}
	return out
}

// lstmLayer holds the fused-gate weights of a single LSTM layer. Gate
// pre-activations for input, forget, cell and output gates are packed
// along the first dimension in that order.
type lstmLayer[B tensor.Backend] struct {
	weightIH *Parameter[B] // [4*hidden, in]
	weightHH *Parameter[B] // [4*hidden, hidden]
	biasIH   *Parameter[B] // [4*hidden]
	biasHH   *Parameter[B] // [4*hidden]
}

// LSTM is a stack of LSTM layers applied over a time-major sequence.
type LSTM[B tensor.Backend] struct {
	InputSize  int
	HiddenSize int
	NumLayers  int

	layers  []lstmLayer[B]
	backend B
}

// NewLSTM creates a stacked LSTM. All weights and biases are drawn
// from U(-k, k) with k = 1/sqrt(hiddenSize), the usual recurrent
// initialization.
func NewLSTM[B tensor.Backend](inputSize, hiddenSize, numLayers int, backend B) *LSTM[B] {
	if numLayers < 1 {
		panic(fmt.Sprintf("LSTM needs at least one layer, got %d", numLayers))
	}

	bound := float32(1.0 / math.Sqrt(float64(hiddenSize)))
	layers := make([]lstmLayer[B], numLayers)
	for l := range layers {
		in := inputSize
		if l > 0 {
			in = hiddenSize
		}
		layers[l] = lstmLayer[B]{
			weightIH: NewParameter[B](fmt.Sprintf("lstm.%d.weight_ih", l),
				Uniform[B](tensor.Shape{4 * hiddenSize, in}, bound, backend)),
			weightHH: NewParameter[B](fmt.Sprintf("lstm.%d.weight_hh", l),
				Uniform[B](tensor.Shape{4 * hiddenSize, hiddenSize}, bound, backend)),
			biasIH: NewParameter[B](fmt.Sprintf("lstm.%d.bias_ih", l),
				Uniform[B](tensor.Shape{4 * hiddenSize}, bound, backend)),
			biasHH: NewParameter[B](fmt.Sprintf("lstm.%d.bias_hh", l),
				Uniform[B](tensor.Shape{4 * hiddenSize}, bound, backend)),
		}
	}

	return &LSTM[B]{
		InputSize:  inputSize,
		HiddenSize: hiddenSize,
		NumLayers:  numLayers,
		layers:     layers,
		backend:    backend,
	}
}

// InitState returns an all-zero carry for the given batch size.
func (l *LSTM[B]) InitState(batchSize int) *State[B] {
	s := &State[B]{
		H: make([]*tensor.Tensor[float32, B], l.NumLayers),
		C: make([]*tensor.Tensor[float32, B], l.NumLayers),
	}
	for i := 0; i < l.NumLayers; i++ {
		s.H[i] = tensor.Zeros[float32, B](tensor.Shape{batchSize, l.HiddenSize}, l.backend)
		s.C[i] = tensor.Zeros[float32, B](tensor.Shape{batchSize, l.HiddenSize}, l.backend)
	}
	return s
}

// Forward runs the stack over a time-major input [seqLen, batch,
// inputSize] and returns the top-layer outputs [seqLen, batch,
// hiddenSize] together with the carry after the last step. The input
// state is not modified.
func (l *LSTM[B]) Forward(x *tensor.Tensor[float32, B], state *State[B]) (*tensor.Tensor[float32, B], *State[B]) {
	shape := x.Shape()
	if len(shape) != 3 {
		panic(fmt.Sprintf("LSTM input must be [seqLen, batch, features], got shape %v", shape))
	}
	if shape[2] != l.InputSize {
		panic(fmt.Sprintf("LSTM input features mismatch: expected %d, got %d", l.InputSize, shape[2]))
	}
	if len(state.H) != l.NumLayers || len(state.C) != l.NumLayers {
		panic(fmt.Sprintf("LSTM state has %d layers, expected %d", len(state.H), l.NumLayers))
	}

	seqLen := shape[0]

	h := make([]*tensor.Tensor[float32, B], l.NumLayers)
	c := make([]*tensor.Tensor[float32, B], l.NumLayers)
	copy(h, state.H)
	copy(c, state.C)

	steps := x.Chunk(seqLen, 0)
	outputs := make([]*tensor.Tensor[float32, B], seqLen)
	for t := 0; t < seqLen; t++ {
		input := steps[t].Squeeze(0) // [batch, inputSize]
		for li := range l.layers {
			h[li], c[li] = l.step(li, input, h[li], c[li])
			input = h[li]
		}
		outputs[t] = input.Unsqueeze(0)
	}

	out := tensor.Cat(outputs, 0)
	return out, &State[B]{H: h, C: c}
}

// step advances one layer by one time step. Gate order in the fused
// pre-activation is input, forget, cell, output.
func (l *LSTM[B]) step(layer int, x, h, c *tensor.Tensor[float32, B]) (hNext, cNext *tensor.Tensor[float32, B]) {
	p := l.layers[layer]

	gates := x.MatMul(p.weightIH.Tensor().Transpose()).
		Add(h.MatMul(p.weightHH.Tensor().Transpose())).
		Add(p.biasIH.Tensor().Reshape(1, 4*l.HiddenSize)).
		Add(p.biasHH.Tensor().Reshape(1, 4*l.HiddenSize))

	chunks := gates.Chunk(4, 1)
	i := Sigmoid(chunks[0])
	f := Sigmoid(chunks[1])
	g := Tanh(chunks[2])
	o := Sigmoid(chunks[3])

	cNext = f.Mul(c).Add(i.Mul(g))
	hNext = o.Mul(Tanh(cNext))
	return hNext, cNext
}

// Parameters returns the fused weights and biases of every layer, in
// layer order.
func (l *LSTM[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4*len(l.layers))
	for i := range l.layers {
		p := &l.layers[i]
		params = append(params, p.weightIH, p.weightHH, p.biasIH, p.biasHH)
	}
	return params
}
