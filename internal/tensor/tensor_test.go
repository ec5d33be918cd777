package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathom-ml/fathom/internal/backend/cpu"
	"github.com/fathom-ml/fathom/internal/tensor"
)

type Backend = *cpu.CPUBackend

func TestShape_NumElements(t *testing.T) {
	assert.Equal(t, 24, tensor.Shape{2, 3, 4}.NumElements())
	assert.Equal(t, 1, tensor.Shape{}.NumElements()) // scalar
	assert.Equal(t, 0, tensor.Shape{2, 0, 3}.NumElements())
}

func TestShape_ComputeStrides(t *testing.T) {
	assert.Equal(t, []int{12, 4, 1}, tensor.Shape{2, 3, 4}.ComputeStrides())
	assert.Equal(t, []int{1}, tensor.Shape{5}.ComputeStrides())
}

func TestBroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{1, 3})
	require.NoError(t, err)
	assert.True(t, broadcast)
	assert.Equal(t, tensor.Shape{2, 3}, shape)

	shape, broadcast, err = tensor.BroadcastShapes(tensor.Shape{4, 5}, tensor.Shape{4, 5})
	require.NoError(t, err)
	assert.False(t, broadcast)
	assert.Equal(t, tensor.Shape{4, 5}, shape)

	_, _, err = tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{4, 3})
	assert.Error(t, err)
}

func TestFromSlice_ShapeMismatch(t *testing.T) {
	b := cpu.New()
	_, err := tensor.FromSlice[float32, Backend]([]float32{1, 2, 3}, tensor.Shape{2, 2}, b)
	assert.Error(t, err)
}

func TestCreation(t *testing.T) {
	b := cpu.New()

	zeros := tensor.Zeros[float32](tensor.Shape{2, 3}, b)
	for _, v := range zeros.Data() {
		assert.Zero(t, v)
	}

	full := tensor.Full[int32](tensor.Shape{4}, 7, b)
	assert.Equal(t, []int32{7, 7, 7, 7}, full.Data())

	arange := tensor.Arange[float32](2, 6, b)
	assert.InDeltaSlice(t, []float32{2, 3, 4, 5}, arange.Data(), 1e-6)
}

func TestRand_Bounds(t *testing.T) {
	b := cpu.New()
	r := tensor.Rand[float32](tensor.Shape{1000}, b)
	for _, v := range r.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestRandn_NonDegenerate(t *testing.T) {
	b := cpu.New()
	r := tensor.Randn[float32](tensor.Shape{1001}, b) // odd count exercises the tail element

	var sum float64
	for _, v := range r.Data() {
		sum += float64(v)
	}
	mean := sum / 1001
	assert.InDelta(t, 0, mean, 0.2)
}

func TestTensor_AtSet(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice[float32, Backend]([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	require.NoError(t, err)

	assert.Equal(t, float32(6), x.At(1, 2))
	x.Set(9, 0, 1)
	assert.Equal(t, float32(9), x.At(0, 1))
}

func TestTensor_Item(t *testing.T) {
	b := cpu.New()
	s, err := tensor.FromSlice[float32, Backend]([]float32{42}, tensor.Shape{1}, b)
	require.NoError(t, err)
	assert.Equal(t, float32(42), s.Item())

	x := tensor.Zeros[float32](tensor.Shape{2}, b)
	assert.Panics(t, func() { x.Item() })
}

func TestRawTensor_RefCounting(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	assert.True(t, raw.IsUnique())

	clone := raw.Clone()
	assert.False(t, raw.IsUnique())
	assert.False(t, clone.IsUnique())

	clone.Release()
	assert.True(t, raw.IsUnique())
}

func TestRawTensor_ForceNonUnique(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{4}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)

	restore := raw.ForceNonUnique()
	assert.False(t, raw.IsUnique())
	restore()
	assert.True(t, raw.IsUnique())
}

func TestDetach_SharesBufferNewHandle(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice[float32, Backend]([]float32{1, 2}, tensor.Shape{2}, b)
	require.NoError(t, err)

	d := x.Detach()
	assert.NotSame(t, x.Raw(), d.Raw())

	// Shared storage: writes through one handle show through the other.
	x.Set(5, 0)
	assert.Equal(t, float32(5), d.At(0))
}

func TestChunkCat_Method(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice[float32, Backend]([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)

	parts := x.Chunk(3, 0)
	require.Len(t, parts, 3)
	assert.Equal(t, tensor.Shape{1, 2}, parts[0].Shape())

	back := tensor.Cat(parts, 0)
	assert.Equal(t, x.Data(), back.Data())
}

func TestEmbedding_Method(t *testing.T) {
	b := cpu.New()
	weight, err := tensor.FromSlice[float32, Backend]([]float32{10, 11, 20, 21, 30, 31}, tensor.Shape{3, 2}, b)
	require.NoError(t, err)
	indices, err := tensor.FromSlice[int32, Backend]([]int32{2, 0}, tensor.Shape{2}, b)
	require.NoError(t, err)

	out := weight.Embedding(indices)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.InDeltaSlice(t, []float32{30, 31, 10, 11}, out.Data(), 1e-6)
}

func TestT_RequiresMatrix(t *testing.T) {
	b := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2, 3, 4}, b)
	assert.Panics(t, func() { x.T() })

	m := tensor.Zeros[float32](tensor.Shape{2, 3}, b)
	assert.Equal(t, tensor.Shape{3, 2}, m.T().Shape())
}
