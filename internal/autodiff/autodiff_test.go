package autodiff_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/autodiff"
	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/tensor"
)

// Backend is the autodiff-wrapped CPU backend used across these tests.
type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func newBackend() Backend {
	b := autodiff.New(cpu.New())
	b.Tape().StartRecording()
	return b
}

func fromSlice(t *testing.T, b Backend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, Backend] {
	t.Helper()
	x, err := tensor.FromSlice[float32, Backend](data, shape, b)
	require.NoError(t, err)
	return x
}

func TestBackward_Mul(t *testing.T) {
	b := newBackend()

	// y = x * x, dy/dx = 2x
	x := fromSlice(t, b, []float32{2, 3}, tensor.Shape{2})
	y := x.Mul(x)

	grads := autodiff.Backward(y, b)
	grad := grads[x.Raw()]
	require.NotNil(t, grad, "no gradient for x")

	assert.InDelta(t, 4.0, float64(grad.AsFloat32()[0]), 1e-6)
	assert.InDelta(t, 6.0, float64(grad.AsFloat32()[1]), 1e-6)
}

func TestBackward_AddBroadcastReducesBias(t *testing.T) {
	b := newBackend()

	// x[2,3] + bias[3]: bias gradient sums over the batch dimension.
	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	bias := fromSlice(t, b, []float32{10, 20, 30}, tensor.Shape{3})

	y := x.Add(bias)
	grads := autodiff.Backward(y, b)

	gradBias := grads[bias.Raw()]
	require.NotNil(t, gradBias)
	require.True(t, gradBias.Shape().Equal(tensor.Shape{3}))
	assert.Equal(t, []float32{2, 2, 2}, gradBias.AsFloat32())
}

func TestBackward_MatMul(t *testing.T) {
	b := newBackend()

	a := fromSlice(t, b, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	w := fromSlice(t, b, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})

	y := a.MatMul(w)
	grads := autodiff.Backward(y, b)

	// grad_a = ones @ w^T, grad_w = a^T @ ones
	gradA := grads[a.Raw()]
	gradW := grads[w.Raw()]
	require.NotNil(t, gradA)
	require.NotNil(t, gradW)

	assert.Equal(t, []float32{11, 15, 11, 15}, gradA.AsFloat32())
	assert.Equal(t, []float32{4, 4, 6, 6}, gradW.AsFloat32())
}

func TestBackward_Sigmoid(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{0}, tensor.Shape{1})
	raw := b.Sigmoid(x.Raw())
	y := tensor.New[float32, Backend](raw, b)

	assert.InDelta(t, 0.5, float64(y.Item()), 1e-6)

	grads := autodiff.Backward(y, b)
	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	// σ'(0) = 0.25
	assert.InDelta(t, 0.25, float64(grad.AsFloat32()[0]), 1e-6)
}

func TestBackward_Tanh(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{0.5}, tensor.Shape{1})
	raw := b.Tanh(x.Raw())
	y := tensor.New[float32, Backend](raw, b)

	grads := autodiff.Backward(y, b)
	grad := grads[x.Raw()]
	require.NotNil(t, grad)

	th := math.Tanh(0.5)
	assert.InDelta(t, 1-th*th, float64(grad.AsFloat32()[0]), 1e-6)
}

func TestBackward_CrossEntropy(t *testing.T) {
	b := newBackend()

	// Uniform logits over 4 classes: loss = log(4), gradient rows sum to 0.
	logits := fromSlice(t, b, make([]float32, 8), tensor.Shape{2, 4})

	targets, err := tensor.NewRaw(tensor.Shape{2}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(targets.AsInt32(), []int32{1, 3})

	raw := b.CrossEntropy(logits.Raw(), targets)
	loss := tensor.New[float32, Backend](raw, b)

	assert.InDelta(t, math.Log(4), float64(loss.Item()), 1e-5)

	grads := autodiff.Backward(loss, b)
	grad := grads[logits.Raw()]
	require.NotNil(t, grad)

	data := grad.AsFloat32()
	for row := 0; row < 2; row++ {
		var sum float32
		for c := 0; c < 4; c++ {
			sum += data[row*4+c]
		}
		assert.InDelta(t, 0, float64(sum), 1e-6, "gradient row %d should sum to zero", row)
	}
	// Target entry gets (p - 1) / batch = (0.25 - 1) / 2
	assert.InDelta(t, -0.375, float64(data[0*4+1]), 1e-5)
}

func TestBackward_ChunkCatRoundtrip(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	parts := x.Chunk(2, 0)
	require.Len(t, parts, 2)

	y := tensor.Cat(parts, 0)
	grads := autodiff.Backward(y, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, grad.AsFloat32())
}

func TestBackward_ChunkPartialUse(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{1, 2, 3, 4}, tensor.Shape{4})
	parts := x.Chunk(2, 0)

	// Only the second chunk participates in the loss; the first chunk's
	// gradient slot is zero-filled.
	y := parts[1].Mul(parts[1])
	grads := autodiff.Backward(y, b)

	grad := grads[x.Raw()]
	require.NotNil(t, grad)
	assert.Equal(t, []float32{0, 0, 6, 8}, grad.AsFloat32())
}

func TestBackward_EmbeddingAccumulates(t *testing.T) {
	b := newBackend()

	weight := fromSlice(t, b, []float32{
		1, 1,
		2, 2,
		3, 3,
	}, tensor.Shape{3, 2})

	indices, err := tensor.NewRaw(tensor.Shape{3}, tensor.Int32, tensor.CPU)
	require.NoError(t, err)
	copy(indices.AsInt32(), []int32{0, 2, 0}) // index 0 used twice

	raw := b.Embedding(weight.Raw(), indices)
	out := tensor.New[float32, Backend](raw, b)

	grads := autodiff.Backward(out, b)
	grad := grads[weight.Raw()]
	require.NotNil(t, grad)

	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1}, grad.AsFloat32())
}

func TestDetach_StopsGradientFlow(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{2}, tensor.Shape{1})
	w := fromSlice(t, b, []float32{3}, tensor.Shape{1})

	y := x.Mul(x)          // y = x²
	z := y.Detach()        // carries the value, drops the lineage
	loss := z.Mul(w)       // loss = z * w

	grads := autodiff.Backward(loss, b)

	require.NotNil(t, grads[w.Raw()], "gradient must reach w")
	assert.InDelta(t, 4.0, float64(grads[w.Raw()].AsFloat32()[0]), 1e-6)

	assert.Nil(t, grads[x.Raw()], "detach must sever the path back to x")
}

func TestTape_ClearPreservesRecording(t *testing.T) {
	b := newBackend()

	x := fromSlice(t, b, []float32{1}, tensor.Shape{1})
	_ = x.Mul(x)
	require.Greater(t, b.Tape().NumOps(), 0)

	b.Tape().Clear()
	assert.Equal(t, 0, b.Tape().NumOps())
	assert.True(t, b.Tape().IsRecording(), "Clear must not stop recording")

	_ = x.Mul(x)
	assert.Greater(t, b.Tape().NumOps(), 0)
}

func TestTape_StopRecording(t *testing.T) {
	b := newBackend()
	b.Tape().StopRecording()

	x := fromSlice(t, b, []float32{1}, tensor.Shape{1})
	_ = x.Mul(x)

	assert.Equal(t, 0, b.Tape().NumOps())
}
