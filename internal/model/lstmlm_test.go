package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/model"
	"github.com/fathom-ml/fathom/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() Backend {
	b := autodiff.New(cpu.New())
	b.Tape().StartRecording()
	return b
}

func newModel(t *testing.T, b Backend) *model.LSTMLM[Backend] {
	t.Helper()
	m, err := model.NewLSTMLM[Backend](model.LSTMLMConfig{
		VocabSize:  12,
		EmbedDim:   8,
		HiddenSize: 6,
		NumLayers:  2,
		Dropout:    0,
	}, b)
	require.NoError(t, err)
	return m
}

func TestLSTMLM_ForwardShapes(t *testing.T) {
	b := newBackend()
	m := newModel(t, b)

	input, err := tensor.FromSlice[int32, Backend](
		[]int32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)

	logits, state := m.Forward(input, m.InitState(2))

	assert.Equal(t, tensor.Shape{6, 12}, logits.Shape())
	require.Len(t, state.H, 2)
	assert.Equal(t, tensor.Shape{2, 6}, state.H[0].Shape())
}

func TestLSTMLM_EvalIsDeterministic(t *testing.T) {
	b := newBackend()
	b.Tape().StopRecording()

	m, err := model.NewLSTMLM[Backend](model.LSTMLMConfig{
		VocabSize:  10,
		EmbedDim:   4,
		HiddenSize: 4,
		NumLayers:  1,
		Dropout:    0.5,
	}, b)
	require.NoError(t, err)
	m.Eval()

	input, err := tensor.FromSlice[int32, Backend]([]int32{1, 2, 3, 4}, tensor.Shape{4, 1}, b)
	require.NoError(t, err)

	first, _ := m.Forward(input, m.InitState(1))
	second, _ := m.Forward(input, m.InitState(1))
	assert.Equal(t, first.Data(), second.Data())
}

func TestLSTMLM_ParameterCount(t *testing.T) {
	b := newBackend()
	m := newModel(t, b)

	// embedding + 2 layers x 4 fused tensors + decoder weight/bias.
	assert.Len(t, m.Parameters(), 1+8+2)
}

func TestLSTMLM_GradientsReachAllParameters(t *testing.T) {
	b := newBackend()
	m := newModel(t, b)

	input, err := tensor.FromSlice[int32, Backend](
		[]int32{0, 1, 2, 3, 4, 5, 6, 7}, tensor.Shape{4, 2}, b)
	require.NoError(t, err)

	logits, _ := m.Forward(input, m.InitState(2))
	grads := autodiff.Backward(logits.Sum(), b)

	for _, p := range m.Parameters() {
		grad, ok := grads[p.Tensor().Raw()]
		require.True(t, ok, "no gradient for %s", p.Name())
		assert.True(t, grad.Shape().Equal(p.Tensor().Shape()), "shape mismatch for %s", p.Name())
	}
}

func TestStandardPresets(t *testing.T) {
	cfg := model.StandardLSTM200(1000)
	assert.Equal(t, 200, cfg.EmbedDim)
	assert.Equal(t, 200, cfg.HiddenSize)
	assert.Equal(t, 2, cfg.NumLayers)

	assert.Equal(t, 650, model.StandardLSTM650(1000).HiddenSize)
	assert.Equal(t, 1500, model.StandardLSTM1500(1000).HiddenSize)
}
